package client

import (
    "context"
    "errors"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog"
)

const (
    defaultAttemptTimeout = 120 * time.Second
    // retryTextLimit bounds the text of the second attempt, counted in characters.
    retryTextLimit = 3000
)

var ErrNoDocuments = errors.New("no document summaries provided for aggregation")

// StructuredOptions tunes StructuredSummary.
type StructuredOptions struct {
    // AllowLong lifts the per-attempt timeout and skips the shortened retry.
    AllowLong      bool
    AttemptTimeout time.Duration // 0 means two minutes
    MaxFindings    int           // heuristic fallback only
}

// StructuredSummary asks the service for a structured report of in.Text with the extra
// report fields enforced. A failed attempt is retried once with the enforced text cut to
// 3000 characters; when that fails too, or when AllowLong is set, the heuristic
// FastSummarize of the original text is returned. Only ErrEmptyText is returned as an error.
func (c *Client) StructuredSummary(ctx context.Context, in Input, opts StructuredOptions) (Structured, error) {
    if strings.TrimSpace(in.Text) == "" { return nil, ErrEmptyText }
    logger := zerolog.Ctx(ctx)
    text := in.Text

    in.Text = EnforceExtraFields(text)
    raw, err := c.attempt(ctx, in, opts)
    if err != nil && !opts.AllowLong {
        logger.Warn().Err(err).Msg("structured summary failed, retrying with reduced payload")
        in.Text = truncateRunes(in.Text, retryTextLimit)
        raw, err = c.attempt(ctx, in, opts)
    }
    if err != nil {
        logger.Warn().Err(err).Msg("falling back to heuristic summary")
        return FastSummarize(text, opts.MaxFindings), nil
    }
    return ParseStructured(raw), nil
}

func (c *Client) attempt(ctx context.Context, in Input, opts StructuredOptions) (string, error) {
    if !opts.AllowLong {
        timeout := opts.AttemptTimeout
        if timeout <= 0 { timeout = defaultAttemptTimeout }
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, timeout)
        defer cancel()
    }
    return c.Summarize(ctx, in)
}

// Document is one already summarized document of a patient.
type Document struct {
    Title   string
    Summary string
}

// AggregateText joins the documents as "<title>:\n<summary>" blocks separated by a blank
// line. Untitled documents are named "Document N", counting from 1.
func AggregateText(docs []Document) (string, error) {
    if len(docs) == 0 { return "", ErrNoDocuments }
    blocks := make([]string, len(docs))
    for i, d := range docs {
        title := strings.TrimSpace(d.Title)
        if title == "" { title = "Document " + strconv.Itoa(i+1) }
        blocks[i] = title + ":\n" + d.Summary
    }
    return strings.Join(blocks, "\n\n"), nil
}

// Aggregate summarizes the combined summaries of several documents into one.
func (c *Client) Aggregate(ctx context.Context, docs []Document) (string, error) {
    text, err := AggregateText(docs)
    if err != nil { return "", err }
    zerolog.Ctx(ctx).Debug().Int("documents", len(docs)).Msg("requesting aggregate summary")
    return c.Summarize(ctx, Input{Text: text})
}

func truncateRunes(s string, n int) string {
    r := []rune(s)
    if len(r) <= n { return s }
    return string(r[:n])
}
