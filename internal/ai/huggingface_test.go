package ai

import (
    "context"
    "encoding/json"
    "errors"
    "image"
    "image/color"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
)

func TestHuggingFaceGenerateSendsParameters(t *testing.T) {
    var got hfRequest
    var auth string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        auth = r.Header.Get("Authorization")
        if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
            t.Errorf("decode body: %v", err)
        }
        _, _ = w.Write([]byte(`[{"generated_text":"Summary: ok"}]`))
    }))
    defer srv.Close()

    c := NewHuggingFace(srv.URL, "tok", "google/gemma-3-4b-it", srv.Client())
    out, err := c.Generate(context.Background(), Request{Prompt: "hello", MaxNewTokens: 2048})
    if err != nil {
        t.Fatalf("Generate: %v", err)
    }
    if out != "Summary: ok" {
        t.Fatalf("unexpected output %q", out)
    }
    if auth != "Bearer tok" {
        t.Fatalf("unexpected auth header %q", auth)
    }
    if got.Inputs != "hello" || got.Parameters.MaxNewTokens != 2048 || got.Parameters.ReturnFullText {
        t.Fatalf("unexpected request %+v", got)
    }
}

func TestHuggingFaceGenerateInlinesImage(t *testing.T) {
    var got hfRequest
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _ = json.NewDecoder(r.Body).Decode(&got)
        // echo the full input like return_full_text=true
        _ = json.NewEncoder(w).Encode(hfGeneration{GeneratedText: got.Inputs + " done"})
    }))
    defer srv.Close()

    img := image.NewRGBA(image.Rect(0, 0, 2, 2))
    img.Set(0, 0, color.RGBA{R: 255, A: 255})

    c := NewHuggingFace(srv.URL, "", "m", srv.Client())
    out, err := c.Generate(context.Background(), Request{Prompt: "prompt", Image: img, ImageFormat: "png", ReturnFullText: true})
    if err != nil {
        t.Fatalf("Generate: %v", err)
    }
    if !strings.HasPrefix(got.Inputs, "![](data:image/png;base64,") {
        t.Fatalf("image markdown missing: %.60q", got.Inputs)
    }
    if out != "prompt done" {
        t.Fatalf("image markdown should be stripped from echo, got %q", out)
    }
}

func TestHuggingFaceGenerateStatusErrors(t *testing.T) {
    cases := []struct {
        status    int
        rateLimit bool
    }{
        {http.StatusTooManyRequests, true},
        {http.StatusServiceUnavailable, false},
    }
    for _, tc := range cases {
        srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            http.Error(w, "busy", tc.status)
        }))
        c := NewHuggingFace(srv.URL, "", "m", srv.Client())
        _, err := c.Generate(context.Background(), Request{Prompt: "x"})
        srv.Close()
        if err == nil {
            t.Fatalf("status %d: expected error", tc.status)
        }
        if IsRateLimited(err) != tc.rateLimit {
            t.Fatalf("status %d: rate limited = %v", tc.status, IsRateLimited(err))
        }
        if !tc.rateLimit {
            var httpErr *HTTPError
            if !errors.As(err, &httpErr) || httpErr.StatusCode != tc.status {
                t.Fatalf("status %d: expected HTTPError, got %v", tc.status, err)
            }
        }
    }
}

func TestDecodeHFGeneration(t *testing.T) {
    if out, err := decodeHFGeneration([]byte(`[]`)); err != nil || out != "" {
        t.Fatalf("empty list: %q %v", out, err)
    }
    out, err := decodeHFGeneration([]byte(` {"generated_text":"x"}`))
    if err != nil || out != "x" {
        t.Fatalf("object form: %q %v", out, err)
    }
    if _, err := decodeHFGeneration([]byte(`not json`)); err == nil {
        t.Fatal("expected decode error")
    }
}

func TestNewHuggingFaceDefaultEndpoint(t *testing.T) {
    c := NewHuggingFace("", "", "google/gemma-3-4b-it", nil)
    if c.endpoint != hfDefaultBase+"google/gemma-3-4b-it" {
        t.Fatalf("unexpected endpoint %q", c.endpoint)
    }
}
