package statuscheck

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandlerAllHealthy(t *testing.T) {
    c := New(time.Second)
    c.SetInfo("backend", "huggingface")
    c.SetInfo("model", "google/gemma-3-4b-it")
    c.Add("redis", Ping(pingFunc(func(context.Context) error { return nil })))

    rec := httptest.NewRecorder()
    c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d", rec.Code)
    }
    var got Report
    if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if !got.Checks["redis"].OK || got.Checks["redis"].Message != "Connected" {
        t.Fatalf("unexpected checks %+v", got.Checks)
    }
    if _, ok := got.Checks["backend"]; ok {
        t.Fatalf("backend is configuration, not a check: %+v", got.Checks)
    }
    if got.Info["backend"] != "huggingface" || got.Info["model"] != "google/gemma-3-4b-it" {
        t.Fatalf("unexpected info %+v", got.Info)
    }
}

func TestInfoDoesNotAffectReadiness(t *testing.T) {
    c := New(time.Second)
    c.SetInfo("backend", "openai")

    rec := httptest.NewRecorder()
    c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), `"info":{"backend":"openai"}`) {
        t.Fatalf("unexpected body %s", rec.Body.String())
    }

    c.Add("s3", Ping(pingFunc(func(context.Context) error { return errors.New("no such bucket") })))
    rec = httptest.NewRecorder()
    c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
    if rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("status = %d", rec.Code)
    }
}

func TestHandlerReportsFailure(t *testing.T) {
    c := New(time.Second)
    c.Add("s3", Ping(pingFunc(func(context.Context) error { return errors.New(strings.Repeat("x", 300)) })))

    rec := httptest.NewRecorder()
    c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
    if rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("status = %d", rec.Code)
    }
    sum, ok := c.Summary(context.Background())
    if ok || len(sum["s3"].Message) != 120 {
        t.Fatalf("unexpected summary %+v", sum)
    }
}

func TestPingTimeout(t *testing.T) {
    c := New(10 * time.Millisecond)
    c.Add("slow", Ping(pingFunc(func(ctx context.Context) error {
        <-ctx.Done()
        return ctx.Err()
    })))
    sum, ok := c.Summary(context.Background())
    if ok || sum["slow"].Message != "timeout" {
        t.Fatalf("unexpected summary %+v", sum)
    }
}
