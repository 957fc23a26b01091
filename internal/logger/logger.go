// Package logger configures the process-wide zerolog logger. Events go to the console
// (JSON or pretty), optionally to a rotated file and optionally to Axiom.
package logger

import (
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "medsummarizer"

// Options defines logger initialization parameters.
type Options struct {
    Level  string
    Pretty bool

    File       string // empty disables the rotated file
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool

    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomFlush   time.Duration

    Console io.Writer // defaults to stdout
}

var (
    root  zerolog.Logger
    sinks []io.Closer
)

// Init builds the root logger and installs it as log.Logger and as the fallback for
// zerolog.Ctx. An unusable Axiom configuration is reported on stderr and skipped.
func Init(opts Options) error {
    Close()

    var outs []io.Writer
    if opts.File != "" {
        f, err := rotatedFile(opts)
        if err != nil { return err }
        outs = append(outs, f)
    }
    outs = append(outs, consoleOutput(opts))
    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        sink, err := newAxiomSink(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.AxiomFlush)
        if err != nil {
            fmt.Fprintf(os.Stderr, "axiom log forwarding disabled: %v\n", err)
        } else {
            outs = append(outs, sink)
            sinks = append(sinks, sink)
        }
    }

    zerolog.TimeFieldFormat = time.RFC3339
    root = zerolog.New(zerolog.MultiLevelWriter(outs...)).
        Level(parseLevel(opts.Level)).
        With().Timestamp().Str("service", serviceName).
        Logger()
    log.Logger = root
    zerolog.DefaultContextLogger = &root
    return nil
}

func rotatedFile(opts Options) (io.Writer, error) {
    if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
        return nil, fmt.Errorf("create log dir: %w", err)
    }
    return &lumberjack.Logger{
        Filename:   opts.File,
        MaxSize:    opts.MaxSizeMB,
        MaxBackups: opts.MaxBackups,
        MaxAge:     opts.MaxAgeDays,
        Compress:   opts.Compress,
    }, nil
}

func consoleOutput(opts Options) io.Writer {
    out := opts.Console
    if out == nil { out = os.Stdout }
    if !opts.Pretty { return out }
    return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
}

// parseLevel maps an empty or unknown level to info.
func parseLevel(s string) zerolog.Level {
    if s == "" { return zerolog.InfoLevel }
    lvl, err := zerolog.ParseLevel(s)
    if err != nil { return zerolog.InfoLevel }
    return lvl
}

// Close drains the external sinks. Safe to call more than once.
func Close() {
    for _, s := range sinks { _ = s.Close() }
    sinks = nil
}

// Get returns the root logger.
func Get() *zerolog.Logger { return &root }
