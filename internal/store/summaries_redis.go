package store

import (
    "context"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Summary is one stored summarize result.
type Summary struct {
    ID        string    `json:"id"`
    Summary   string    `json:"summary"`
    Backend   string    `json:"backend"`
    Model     string    `json:"model"`
    CreatedAt time.Time `json:"created_at"`
}

// RedisSummaries keeps summaries in a hash per request ID with a TTL.
type RedisSummaries struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

func NewRedisSummaries(redisURL string, ttl time.Duration) (*RedisSummaries, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil {
        _ = c.Close()
        return nil, err
    }
    return NewRedisSummariesFromClient(c, ttl), nil
}

// NewRedisSummariesFromClient wraps an existing client. A non-positive ttl keeps entries forever.
func NewRedisSummariesFromClient(c *redis.Client, ttl time.Duration) *RedisSummaries {
    return &RedisSummaries{client: c, keyNS: "summary", ttl: ttl}
}

func (s *RedisSummaries) key(id string) string { return fmt.Sprintf("%s:%s", s.keyNS, id) }

func (s *RedisSummaries) Save(ctx context.Context, sum Summary) error {
    if sum.ID == "" { return fmt.Errorf("summary id is empty") }
    if sum.CreatedAt.IsZero() { sum.CreatedAt = time.Now().UTC() }
    m := map[string]interface{}{
        "summary":    sum.Summary,
        "backend":    sum.Backend,
        "model":      sum.Model,
        "created_at": sum.CreatedAt.Format(time.RFC3339Nano),
    }
    key := s.key(sum.ID)
    pipe := s.client.TxPipeline()
    pipe.HSet(ctx, key, m)
    if s.ttl > 0 { pipe.Expire(ctx, key, s.ttl) }
    _, err := pipe.Exec(ctx)
    return err
}

func (s *RedisSummaries) Get(ctx context.Context, id string) (Summary, bool, error) {
    res, err := s.client.HGetAll(ctx, s.key(id)).Result()
    if err != nil { return Summary{}, false, err }
    if len(res) == 0 { return Summary{}, false, nil }
    sum := Summary{
        ID:      id,
        Summary: res["summary"],
        Backend: res["backend"],
        Model:   res["model"],
    }
    if v := res["created_at"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { sum.CreatedAt = t }
    }
    return sum, true, nil
}

func (s *RedisSummaries) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisSummaries) Close() error { return s.client.Close() }
