// Package summarize runs one request through extraction, prompt composition, generation
// and output normalization.
package summarize

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/rs/zerolog"

    "github.com/local/medsummarizer/internal/ai"
    "github.com/local/medsummarizer/internal/extract"
    "github.com/local/medsummarizer/internal/metrics"
    "github.com/local/medsummarizer/internal/normalize"
    "github.com/local/medsummarizer/internal/prompt"
    "github.com/local/medsummarizer/internal/storage"
    "github.com/local/medsummarizer/internal/store"
)

// Extractor turns the optional uploads into model inputs.
type Extractor interface {
    Extract(ctx context.Context, img, pdf *extract.Payload) (extract.Context, error)
}

// SummaryStore persists results for later lookup.
type SummaryStore interface {
    Save(ctx context.Context, s store.Summary) error
}

// Archiver keeps a copy of the request and its result.
type Archiver interface {
    Store(ctx context.Context, rec storage.Record) error
}

type Options struct {
    MaxNewTokens   int
    ReturnFullText bool
    Schema         *SchemaChecker // nil disables the check
    Store          SummaryStore   // nil disables
    Archive        Archiver       // nil disables
}

// Request is one summarize call. Image and PDF are nil when absent.
type Request struct {
    ID    string
    Text  string
    Image *extract.Payload
    PDF   *extract.Payload
}

type Result struct {
    ID       string
    Summary  string
    Backend  string
    Model    string
    Pages    int
    Rules    []normalize.Kind
    SchemaOK bool
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
    ext  Extractor
    gen  ai.Generator
    opts Options
}

func New(ext Extractor, gen ai.Generator, opts Options) *Service {
    return &Service{ext: ext, gen: gen, opts: opts}
}

// Summarize runs the pipeline. Any extraction or generation error aborts the request;
// store and archive failures are logged only.
func (s *Service) Summarize(ctx context.Context, req Request) (Result, error) {
    logger := zerolog.Ctx(ctx)

    ectx, err := s.ext.Extract(ctx, req.Image, req.PDF)
    if err != nil { return Result{}, fmt.Errorf("extract: %w", err) }

    p := prompt.Compose(req.Text, ectx.PDFText)
    logger.Debug().Int("prompt_chars", len(p)).Bool("image", ectx.HasImage()).Msg("prompt composed")

    start := time.Now()
    raw, err := s.gen.Generate(ctx, ai.Request{
        Prompt:         p,
        Image:          ectx.Image,
        ImageFormat:    ectx.ImageFormat,
        MaxNewTokens:   s.opts.MaxNewTokens,
        ReturnFullText: s.opts.ReturnFullText,
    })
    dur := time.Since(start)
    if err != nil {
        metrics.ObserveGeneration(s.gen.Name(), s.gen.Model(), generationResult(err), dur)
        logger.Error().Err(err).Str("backend", s.gen.Name()).Dur("duration", dur).Msg("generation failed")
        return Result{}, fmt.Errorf("generate: %w", err)
    }
    metrics.ObserveGeneration(s.gen.Name(), s.gen.Model(), "success", dur)
    logger.Info().Str("backend", s.gen.Name()).Str("model", s.gen.Model()).Dur("duration", dur).Int("raw_chars", len(raw)).Msg("generation completed")

    summary, rules := normalize.Default(p).Apply(raw)
    for _, k := range rules { metrics.IncRule(k.String()) }

    res := Result{
        ID:       req.ID,
        Summary:  summary,
        Backend:  s.gen.Name(),
        Model:    s.gen.Model(),
        Pages:    ectx.PDFPages,
        Rules:    rules,
        SchemaOK: true,
    }
    if s.opts.Schema != nil {
        if err := s.opts.Schema.Check(summary); err != nil {
            res.SchemaOK = false
            metrics.IncSchemaViolation()
            logger.Warn().Err(err).Msg("summary does not match answer schema")
        }
    }

    s.record(ctx, req, res)
    return res, nil
}

func (s *Service) record(ctx context.Context, req Request, res Result) {
    logger := zerolog.Ctx(ctx)
    if s.opts.Store != nil && res.ID != "" {
        err := s.opts.Store.Save(ctx, store.Summary{ID: res.ID, Summary: res.Summary, Backend: res.Backend, Model: res.Model, CreatedAt: time.Now().UTC()})
        metrics.IncSideEffect("store", err == nil)
        if err != nil { logger.Error().Err(err).Msg("failed to store summary") }
    }
    if s.opts.Archive != nil && res.ID != "" {
        rec := storage.Record{ID: res.ID, Text: req.Text, Summary: res.Summary, Backend: res.Backend, Model: res.Model}
        if req.Image != nil { rec.Image, rec.ImageName = req.Image.Data, req.Image.Filename }
        if req.PDF != nil { rec.PDF, rec.PDFName = req.PDF.Data, req.PDF.Filename }
        err := s.opts.Archive.Store(ctx, rec)
        metrics.IncSideEffect("archive", err == nil)
        if err != nil { logger.Error().Err(err).Msg("failed to archive request") }
    }
}

func generationResult(err error) string {
    switch {
    case ai.IsRateLimited(err):
        return "rate_limited"
    case errors.Is(err, context.DeadlineExceeded):
        return "timeout"
    default:
        return "error"
    }
}
