package server

import (
    "context"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/hlog"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID returns the ID assigned by Middleware, or "".
func RequestID(ctx context.Context) string {
    id, _ := ctx.Value(ctxKey{}).(string)
    return id
}

// Middleware attaches a request-scoped logger with a request ID and writes one access log
// line per request. A client supplied X-Request-ID is reused when it is a valid UUID.
func Middleware(logger zerolog.Logger, next http.Handler) http.Handler {
    h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
        hlog.FromRequest(r).Info().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", status).
            Int("size", size).
            Dur("duration", duration).
            Msg("request")
    })(next)
    h = requestIDLogger(h)
    return hlog.NewHandler(logger)(h)
}

func requestIDLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        id := r.Header.Get(RequestIDHeader)
        if _, err := uuid.Parse(id); err != nil { id = uuid.NewString() }
        w.Header().Set(RequestIDHeader, id)
        hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
            return c.Str("request_id", id)
        })
        next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
    })
}
