package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/rs/zerolog/log"

    "github.com/local/medsummarizer/internal/ai"
    cfgpkg "github.com/local/medsummarizer/internal/config"
    "github.com/local/medsummarizer/internal/extract"
    logpkg "github.com/local/medsummarizer/internal/logger"
    "github.com/local/medsummarizer/internal/metrics"
    "github.com/local/medsummarizer/internal/prompt"
    "github.com/local/medsummarizer/internal/server"
    "github.com/local/medsummarizer/internal/statuscheck"
    "github.com/local/medsummarizer/internal/storage"
    "github.com/local/medsummarizer/internal/store"
    "github.com/local/medsummarizer/internal/summarize"
)

func main() {
    cfg, err := cfgpkg.FromEnv()
    if err != nil {
        fmt.Fprintf(os.Stderr, "config: %v\n", err)
        os.Exit(1)
    }

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.PrettyLogs(),
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    if err := cfg.Validate(); err != nil {
        log.Fatal().Err(err).Msg("invalid configuration")
    }
    metrics.Init()

    ctx := context.Background()

    // Generation backend, built once and shared by all requests
    gen, err := ai.New(ctx, cfg.Backend)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init generation backend")
    }
    log.Info().Str("backend", gen.Name()).Str("model", gen.Model()).Msg("generation backend ready")

    opts := summarize.Options{
        MaxNewTokens:   cfg.Generation.MaxNewTokens,
        ReturnFullText: cfg.Generation.ReturnFullText,
    }
    if cfg.Generation.SchemaCheck {
        checker, err := summarize.NewSchemaChecker(prompt.AnswerSchema())
        if err != nil { log.Fatal().Err(err).Msg("failed to compile answer schema") }
        opts.Schema = checker
    }

    status := statuscheck.New(0)
    status.SetInfo("backend", gen.Name())
    status.SetInfo("model", gen.Model())

    srvOpts := server.Options{
        MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
        RequestTimeout: cfg.HTTP.RequestTimeout,
    }

    // Summary store (optional)
    if cfg.Store.RedisURL != "" {
        rs, err := store.NewRedisSummaries(cfg.Store.RedisURL, cfg.Store.TTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init redis summary store")
        }
        defer rs.Close()
        opts.Store = rs
        srvOpts.Summaries = rs
        status.Add("redis", statuscheck.Ping(rs))
    }

    // Archive (optional)
    if cfg.Archive.Bucket != "" {
        arch, err := storage.NewS3Archive(ctx, cfg.Archive)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init s3 archive")
        }
        opts.Archive = arch
        status.Add("s3", statuscheck.Ping(arch))
        log.Info().Str("bucket", cfg.Archive.Bucket).Bool("sealed", cfg.Archive.Passphrase != "").Msg("archive enabled")
    }

    svc := summarize.New(extract.New(), gen, opts)

    mux := http.NewServeMux()
    server.New(svc, srvOpts).RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())
    mux.Handle("/status", status.Handler())

    port := cfg.HTTP.Port
    srv := &http.Server{Addr: ":"+port, Handler: server.Middleware(*logpkg.Get(), mux)}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("graceful shutdown failed")
    }
    log.Info().Msg("shutdown complete")
}
