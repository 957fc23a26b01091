package logger

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
    "github.com/rs/zerolog"
)

const (
    axiomBatch   = 200
    axiomBacklog = 1000
)

type ingester interface {
    IngestEvents(ctx context.Context, dataset string, events []axiom.Event, options ...ingest.Option) (*ingest.Status, error)
}

// axiomSink is a zerolog.LevelWriter that ships info and above to an Axiom dataset in
// batches. Events beyond the backlog are dropped rather than blocking the caller.
type axiomSink struct {
    ingester ingester
    dataset  string
    every    time.Duration
    queue    chan axiom.Event
    stop     chan struct{}
    done     sync.WaitGroup
    once     sync.Once
}

func newAxiomSink(token, orgID, dataset string, every time.Duration) (*axiomSink, error) {
    opts := []axiom.Option{axiom.SetToken(token)}
    if orgID != "" { opts = append(opts, axiom.SetOrganizationID(orgID)) }
    client, err := axiom.NewClient(opts...)
    if err != nil { return nil, err }
    if dataset == "" { dataset = "dev_" + serviceName }
    s := newSink(client, dataset, every)
    s.start()
    return s, nil
}

func newSink(in ingester, dataset string, every time.Duration) *axiomSink {
    if every <= 0 { every = 10 * time.Second }
    return &axiomSink{
        ingester: in,
        dataset:  dataset,
        every:    every,
        queue:    make(chan axiom.Event, axiomBacklog),
        stop:     make(chan struct{}),
    }
}

func (s *axiomSink) start() {
    s.done.Add(1)
    go s.run()
}

// Write is used for events without a level, which are kept.
func (s *axiomSink) Write(p []byte) (int, error) { return s.WriteLevel(zerolog.NoLevel, p) }

func (s *axiomSink) WriteLevel(l zerolog.Level, p []byte) (int, error) {
    if l < zerolog.InfoLevel && l != zerolog.NoLevel { return len(p), nil }
    ev := axiom.Event{}
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = axiom.Event{zerolog.MessageFieldName: string(p)}
    }
    if _, ok := ev[ingest.TimestampField]; !ok { ev[ingest.TimestampField] = time.Now() }
    select {
    case s.queue <- ev:
    default:
    }
    return len(p), nil
}

func (s *axiomSink) run() {
    defer s.done.Done()
    tick := time.NewTicker(s.every)
    defer tick.Stop()

    batch := make([]axiom.Event, 0, axiomBatch)
    for {
        select {
        case ev := <-s.queue:
            if batch = append(batch, ev); len(batch) == axiomBatch { batch = s.ship(batch) }
        case <-tick.C:
            batch = s.ship(batch)
        case <-s.stop:
            for {
                select {
                case ev := <-s.queue:
                    batch = append(batch, ev)
                default:
                    s.ship(batch)
                    return
                }
            }
        }
    }
}

// ship ingests batch and returns it emptied. Ingest errors are dropped.
func (s *axiomSink) ship(batch []axiom.Event) []axiom.Event {
    if len(batch) == 0 { return batch }
    ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
    defer cancel()
    _, _ = s.ingester.IngestEvents(ctx, s.dataset, batch)
    return batch[:0]
}

// Close flushes what is queued and stops the batching goroutine.
func (s *axiomSink) Close() error {
    s.once.Do(func() { close(s.stop) })
    s.done.Wait()
    return nil
}
