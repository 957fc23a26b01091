package server

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "io"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/local/medsummarizer/internal/store"
    "github.com/local/medsummarizer/internal/summarize"
)

type stubSummarizer struct {
    got      summarize.Request
    calls    int
    summary  string
    err      error
    deadline bool
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarize.Request) (summarize.Result, error) {
    s.calls++
    s.got = req
    _, s.deadline = ctx.Deadline()
    if s.err != nil {
        return summarize.Result{}, s.err
    }
    return summarize.Result{ID: req.ID, Summary: s.summary, SchemaOK: true}, nil
}

type memSummaries map[string]store.Summary

func (m memSummaries) Get(ctx context.Context, id string) (store.Summary, bool, error) {
    if id == "broken" {
        return store.Summary{}, false, errors.New("redis down")
    }
    s, ok := m[id]
    return s, ok, nil
}

type part struct {
    field, filename string
    data            []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
    t.Helper()
    var b bytes.Buffer
    mw := multipart.NewWriter(&b)
    for k, v := range fields {
        if err := mw.WriteField(k, v); err != nil {
            t.Fatalf("write field: %v", err)
        }
    }
    for _, f := range files {
        fw, err := mw.CreateFormFile(f.field, f.filename)
        if err != nil {
            t.Fatalf("create file: %v", err)
        }
        _, _ = fw.Write(f.data)
    }
    if err := mw.Close(); err != nil {
        t.Fatalf("close writer: %v", err)
    }
    return &b, mw.FormDataContentType()
}

func newTestHandler(svc Summarizer, opts Options) http.Handler {
    mux := http.NewServeMux()
    New(svc, opts).RegisterRoutes(mux)
    return Middleware(zerolog.Nop(), mux)
}

func TestSummarizeReturnsSummary(t *testing.T) {
    svc := &stubSummarizer{summary: `{"summary":"ok"}`}
    h := newTestHandler(svc, Options{MaxUploadBytes: 1 << 20, RequestTimeout: time.Minute})

    body, ct := multipartBody(t, map[string]string{"text": "patient note"},
        part{"pdf", "report.pdf", []byte("%PDF-1.4")})
    req := httptest.NewRequest(http.MethodPost, "/summarize", body)
    req.Header.Set("Content-Type", ct)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
    }
    var resp map[string]string
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(resp) != 1 || resp["summary"] != `{"summary":"ok"}` {
        t.Fatalf("unexpected body %v", resp)
    }
    if svc.got.Text != "patient note" || svc.got.Image != nil {
        t.Fatalf("unexpected request %+v", svc.got)
    }
    if svc.got.PDF == nil || svc.got.PDF.Filename != "report.pdf" || string(svc.got.PDF.Data) != "%PDF-1.4" {
        t.Fatalf("pdf not forwarded: %+v", svc.got.PDF)
    }
    if !svc.deadline {
        t.Fatal("expected request timeout on the pipeline context")
    }
    id := rec.Header().Get(RequestIDHeader)
    if _, err := uuid.Parse(id); err != nil || svc.got.ID != id {
        t.Fatalf("request id header %q, pipeline id %q", id, svc.got.ID)
    }
}

func TestSummarizeReusesClientRequestID(t *testing.T) {
    svc := &stubSummarizer{summary: "s"}
    h := newTestHandler(svc, Options{})
    id := uuid.NewString()

    body, ct := multipartBody(t, map[string]string{"text": "x"})
    req := httptest.NewRequest(http.MethodPost, "/summarize", body)
    req.Header.Set("Content-Type", ct)
    req.Header.Set(RequestIDHeader, id)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)

    if rec.Header().Get(RequestIDHeader) != id || svc.got.ID != id {
        t.Fatalf("client request id not reused: %q / %q", rec.Header().Get(RequestIDHeader), svc.got.ID)
    }
}

func TestSummarizeTreatsEmptyFilePartAsAbsent(t *testing.T) {
    svc := &stubSummarizer{summary: "s"}
    h := newTestHandler(svc, Options{})
    body, ct := multipartBody(t, map[string]string{"text": "x"}, part{"image", "", nil})
    req := httptest.NewRequest(http.MethodPost, "/summarize", body)
    req.Header.Set("Content-Type", ct)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK || svc.got.Image != nil {
        t.Fatalf("status=%d image=%v", rec.Code, svc.got.Image)
    }
}

func TestSummarizeRejections(t *testing.T) {
    cases := []struct {
        name   string
        build  func(t *testing.T) *http.Request
        opts   Options
        status int
    }{
        {
            name: "missing text",
            build: func(t *testing.T) *http.Request {
                body, ct := multipartBody(t, map[string]string{"other": "x"})
                r := httptest.NewRequest(http.MethodPost, "/summarize", body)
                r.Header.Set("Content-Type", ct)
                return r
            },
            status: http.StatusBadRequest,
        },
        {
            name: "not multipart",
            build: func(t *testing.T) *http.Request {
                r := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"text":"x"}`))
                r.Header.Set("Content-Type", "application/json")
                return r
            },
            status: http.StatusBadRequest,
        },
        {
            name: "too large",
            build: func(t *testing.T) *http.Request {
                body, ct := multipartBody(t, map[string]string{"text": "x"}, part{"pdf", "big.pdf", bytes.Repeat([]byte("a"), 4096)})
                r := httptest.NewRequest(http.MethodPost, "/summarize", body)
                r.Header.Set("Content-Type", ct)
                return r
            },
            opts:   Options{MaxUploadBytes: 512},
            status: http.StatusRequestEntityTooLarge,
        },
        {
            name: "wrong method",
            build: func(t *testing.T) *http.Request {
                return httptest.NewRequest(http.MethodGet, "/summarize", nil)
            },
            status: http.StatusMethodNotAllowed,
        },
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            svc := &stubSummarizer{}
            rec := httptest.NewRecorder()
            newTestHandler(svc, tc.opts).ServeHTTP(rec, tc.build(t))
            if rec.Code != tc.status {
                t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
            }
            if svc.calls != 0 {
                t.Fatal("pipeline must not run for rejected requests")
            }
        })
    }
}

func TestSummarizePipelineErrorIs500(t *testing.T) {
    svc := &stubSummarizer{err: errors.New("backend exploded with secret details")}
    h := newTestHandler(svc, Options{})
    body, ct := multipartBody(t, map[string]string{"text": "x"})
    req := httptest.NewRequest(http.MethodPost, "/summarize", body)
    req.Header.Set("Content-Type", ct)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)

    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status = %d", rec.Code)
    }
    if strings.Contains(rec.Body.String(), "secret") || strings.Contains(rec.Body.String(), "summary\"") {
        t.Fatalf("error body leaks details or a partial result: %s", rec.Body.String())
    }
}

func TestHealth(t *testing.T) {
    rec := httptest.NewRecorder()
    newTestHandler(&stubSummarizer{}, Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
    body, _ := io.ReadAll(rec.Body)
    if rec.Code != http.StatusOK || string(body) != "ok" {
        t.Fatalf("health: %d %q", rec.Code, body)
    }
}

func TestGetSummary(t *testing.T) {
    created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
    h := newTestHandler(&stubSummarizer{}, Options{Summaries: memSummaries{
        "abc": {ID: "abc", Summary: "s", Backend: "huggingface", Model: "m", CreatedAt: created},
    }})

    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summaries/abc", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d", rec.Code)
    }
    var got store.Summary
    if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if got.ID != "abc" || got.Summary != "s" || !got.CreatedAt.Equal(created) {
        t.Fatalf("unexpected summary %+v", got)
    }

    for path, status := range map[string]int{
        "/summaries/missing": http.StatusNotFound,
        "/summaries/":        http.StatusNotFound,
        "/summaries/broken":  http.StatusInternalServerError,
    } {
        rec := httptest.NewRecorder()
        h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
        if rec.Code != status {
            t.Fatalf("%s: status = %d, want %d", path, rec.Code, status)
        }
    }
}

func TestGetSummaryDisabledWithoutStore(t *testing.T) {
    rec := httptest.NewRecorder()
    newTestHandler(&stubSummarizer{}, Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summaries/abc", nil))
    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d", rec.Code)
    }
}
