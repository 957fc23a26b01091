// Package server exposes the summarize pipeline over HTTP.
package server

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/hlog"

    "github.com/local/medsummarizer/internal/extract"
    "github.com/local/medsummarizer/internal/metrics"
    "github.com/local/medsummarizer/internal/store"
    "github.com/local/medsummarizer/internal/summarize"
)

// multipart parts larger than this spill to temp files
const maxMemory = 32 << 20

var (
    ErrMissingText = errors.New("missing text field")
    ErrBadForm     = errors.New("invalid multipart form")
    ErrTooLarge    = errors.New("upload too large")
)

type Summarizer interface {
    Summarize(ctx context.Context, req summarize.Request) (summarize.Result, error)
}

// SummaryReader serves GET /summaries/{id}. Nil disables the route.
type SummaryReader interface {
    Get(ctx context.Context, id string) (store.Summary, bool, error)
}

type Options struct {
    MaxUploadBytes int64
    RequestTimeout time.Duration
    Summaries      SummaryReader
}

type Server struct {
    svc  Summarizer
    opts Options
}

func New(svc Summarizer, opts Options) *Server {
    return &Server{svc: svc, opts: opts}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request){ w.WriteHeader(http.StatusOK); _,_ = w.Write([]byte("ok")) })
    mux.HandleFunc("/summarize", s.handleSummarize)
    if s.opts.Summaries != nil {
        mux.HandleFunc("/summaries/", s.handleGetSummary)
    }
}

type summaryResp struct {
    Summary string `json:"summary"`
}

type errorResp struct {
    Error string `json:"error"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.Header().Set("Allow", http.MethodPost)
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    logger := hlog.FromRequest(r)
    id := RequestID(r.Context())
    if id == "" { id = uuid.NewString() }

    req, err := s.parseRequest(w, r)
    if err != nil {
        status := http.StatusBadRequest
        if errors.Is(err, ErrTooLarge) { status = http.StatusRequestEntityTooLarge }
        metrics.IncSummarize("bad_request")
        logger.Warn().Err(err).Msg("rejected summarize request")
        writeJSON(w, status, errorResp{Error: err.Error()})
        return
    }
    req.ID = id

    ctx := r.Context()
    if s.opts.RequestTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
        defer cancel()
    }

    res, err := s.svc.Summarize(ctx, req)
    if err != nil {
        metrics.IncSummarize("failed")
        logger.Error().Err(err).Msg("summarize failed")
        writeJSON(w, http.StatusInternalServerError, errorResp{Error: "summarization failed"})
        return
    }
    metrics.IncSummarize("success")
    logger.Info().Int("summary_chars", len(res.Summary)).Bool("schema_ok", res.SchemaOK).Msg("summarize completed")
    writeJSON(w, http.StatusOK, summaryResp{Summary: res.Summary})
}

// parseRequest reads the text field and the optional image and pdf files.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (summarize.Request, error) {
    if s.opts.MaxUploadBytes > 0 {
        r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
    }
    if err := r.ParseMultipartForm(maxMemory); err != nil {
        var tooLarge *http.MaxBytesError
        if errors.As(err, &tooLarge) { return summarize.Request{}, ErrTooLarge }
        return summarize.Request{}, fmt.Errorf("%w: %v", ErrBadForm, err)
    }
    defer r.MultipartForm.RemoveAll()

    texts, ok := r.MultipartForm.Value["text"]
    if !ok || len(texts) == 0 { return summarize.Request{}, ErrMissingText }

    req := summarize.Request{Text: texts[0]}
    var err error
    if req.Image, err = readPart(r.MultipartForm, "image"); err != nil { return summarize.Request{}, err }
    if req.PDF, err = readPart(r.MultipartForm, "pdf"); err != nil { return summarize.Request{}, err }
    return req, nil
}

// readPart returns nil when the file field is absent or an empty part without a filename
// (what browsers send for an untouched file input).
func readPart(form *multipart.Form, field string) (*extract.Payload, error) {
    files := form.File[field]
    if len(files) == 0 { return nil, nil }
    hdr := files[0]
    if hdr.Size == 0 && hdr.Filename == "" { return nil, nil }
    f, err := hdr.Open()
    if err != nil { return nil, fmt.Errorf("%w: open %s: %v", ErrBadForm, field, err) }
    defer f.Close()
    data, err := io.ReadAll(f)
    if err != nil { return nil, fmt.Errorf("%w: read %s: %v", ErrBadForm, field, err) }
    return &extract.Payload{Filename: hdr.Filename, Data: data}, nil
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    id := strings.TrimPrefix(r.URL.Path, "/summaries/")
    if id == "" || strings.Contains(id, "/") { http.NotFound(w, r); return }
    sum, ok, err := s.opts.Summaries.Get(r.Context(), id)
    if err != nil {
        hlog.FromRequest(r).Error().Err(err).Str("summary_id", id).Msg("summary lookup failed")
        writeJSON(w, http.StatusInternalServerError, errorResp{Error: "lookup failed"})
        return
    }
    if !ok { writeJSON(w, http.StatusNotFound, errorResp{Error: "not found"}); return }
    writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}
