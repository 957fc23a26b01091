package statuscheck

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "time"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
    Ping(ctx context.Context) error
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Check produces one subsystem status.
type Check func(ctx context.Context) Status

type namedCheck struct {
    name  string
    check Check
}

// Checker aggregates readiness checks of optional dependencies. Info entries describe
// configuration and never affect readiness.
type Checker struct {
    checks  []namedCheck
    info    map[string]string
    timeout time.Duration
}

// Report is the /status body.
type Report struct {
    Checks map[string]Status `json:"checks"`
    Info   map[string]string `json:"info,omitempty"`
}

func New(timeout time.Duration) *Checker {
    if timeout <= 0 { timeout = 5 * time.Second }
    return &Checker{timeout: timeout, info: map[string]string{}}
}

// SetInfo records a configuration value shown next to the checks.
func (c *Checker) SetInfo(key, value string) { c.info[key] = value }

// Add registers a check under name. Checks run in registration order.
func (c *Checker) Add(name string, check Check) { c.checks = append(c.checks, namedCheck{name, check}) }

// Ping wraps a Pinger as a check.
func Ping(p Pinger) Check {
    return func(ctx context.Context) Status {
        if err := p.Ping(ctx); err != nil {
            return Status{OK: false, Message: trimError(err)}
        }
        return Status{OK: true, Message: "Connected"}
    }
}

// Summary runs every check with the checker timeout and reports whether all passed.
func (c *Checker) Summary(ctx context.Context) (map[string]Status, bool) {
    ctx, cancel := context.WithTimeout(ctx, c.timeout)
    defer cancel()
    out := make(map[string]Status, len(c.checks))
    ok := true
    for _, nc := range c.checks {
        st := nc.check(ctx)
        out[nc.name] = st
        ok = ok && st.OK
    }
    return out, ok
}

// Handler serves the summary as JSON: 200 when every check passes, 503 otherwise.
func (c *Checker) Handler() http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        sum, ok := c.Summary(r.Context())
        status := http.StatusOK
        if !ok { status = http.StatusServiceUnavailable }
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(status)
        _ = json.NewEncoder(w).Encode(Report{Checks: sum, Info: c.info})
    })
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
