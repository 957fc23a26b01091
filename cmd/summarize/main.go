// Command summarize sends a note (and optional image/PDF) to a running summarize service
// and prints a formatted report. A failed request is retried once with a shortened note;
// when that fails too it prints a heuristic summary of the text instead. With -aggregate
// it combines several per-document summaries into one.
package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/local/medsummarizer/internal/client"
    cfgpkg "github.com/local/medsummarizer/internal/config"
)

const maxFindings = 8

type options struct {
    url       string
    input     string
    imagePath string
    pdfPath   string
    timeout   time.Duration
    raw       bool
    long      bool
    aggregate bool
    docs      []string // summary files for -aggregate
}

func main() {
    var o options
    flag.StringVar(&o.url, "url", cfgpkg.LookupEnv("SUMMARIZE_URL", "http://localhost:8080/summarize"), "summarize endpoint")
    flag.StringVar(&o.input, "input", "", "text to summarize; read from stdin when empty")
    flag.StringVar(&o.imagePath, "image", "", "optional image file")
    flag.StringVar(&o.pdfPath, "pdf", "", "optional PDF file")
    flag.DurationVar(&o.timeout, "timeout", 10*time.Minute, "overall deadline")
    flag.BoolVar(&o.raw, "raw", false, "print the service answer without formatting")
    flag.BoolVar(&o.long, "long", false, "no per-attempt timeout and no shortened retry")
    flag.BoolVar(&o.aggregate, "aggregate", false, "summarize the summary files given as arguments into one")
    flag.Parse()
    o.docs = flag.Args()

    logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

    if err := run(logger, o, os.Stdin, os.Stdout); err != nil {
        logger.Error().Err(err).Msg("summarize failed")
        os.Exit(1)
    }
}

func run(logger zerolog.Logger, o options, stdin io.Reader, stdout io.Writer) error {
    ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), o.timeout)
    defer cancel()
    c := client.New(o.url, nil)

    if o.aggregate { return aggregate(ctx, c, o, stdout) }

    text := o.input
    if text == "" {
        b, err := io.ReadAll(stdin)
        if err != nil { return fmt.Errorf("read stdin: %w", err) }
        text = string(b)
    }
    if strings.TrimSpace(text) == "" { return client.ErrEmptyText }

    in := client.Input{Text: text}
    var err error
    if in.Image, err = readFile(o.imagePath); err != nil { return err }
    if in.PDF, err = readFile(o.pdfPath); err != nil { return err }

    if o.raw {
        summary, err := c.Summarize(ctx, in)
        if err != nil {
            if errors.Is(err, client.ErrEmptyText) { return err }
            logger.Warn().Err(err).Msg("service unavailable, falling back to heuristic summary")
            _, err = fmt.Fprintln(stdout, client.Format(client.FastSummarize(text, maxFindings)))
            return err
        }
        _, err = fmt.Fprintln(stdout, summary)
        return err
    }

    report, err := c.StructuredSummary(ctx, in, client.StructuredOptions{AllowLong: o.long, MaxFindings: maxFindings})
    if err != nil { return err }
    _, err = fmt.Fprintln(stdout, client.Format(report))
    return err
}

// aggregate reads one summary per file and titles it with the file name without extension.
func aggregate(ctx context.Context, c *client.Client, o options, stdout io.Writer) error {
    docs := make([]client.Document, 0, len(o.docs))
    for _, path := range o.docs {
        data, err := os.ReadFile(path)
        if err != nil { return fmt.Errorf("read %s: %w", path, err) }
        base := filepath.Base(path)
        docs = append(docs, client.Document{Title: strings.TrimSuffix(base, filepath.Ext(base)), Summary: string(data)})
    }
    summary, err := c.Aggregate(ctx, docs)
    if err != nil { return err }
    if o.raw {
        _, err = fmt.Fprintln(stdout, summary)
        return err
    }
    _, err = fmt.Fprintln(stdout, client.Format(client.ParseStructured(summary)))
    return err
}

func readFile(path string) (*client.File, error) {
    if path == "" { return nil, nil }
    data, err := os.ReadFile(path)
    if err != nil { return nil, fmt.Errorf("read %s: %w", path, err) }
    return &client.File{Name: filepath.Base(path), Data: data}, nil
}
