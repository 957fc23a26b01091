package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    generationReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "medsummarizer",
            Name:      "generation_requests_total",
            Help:      "Total generation calls by backend, model and result",
        },
        []string{"backend", "model", "result"},
    )

    generationLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "medsummarizer",
            Name:      "generation_duration_seconds",
            Help:      "Duration of generation calls by backend and model",
            Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320, 600},
        },
        []string{"backend", "model"},
    )

    summarizeReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "medsummarizer",
            Name:      "summarize_requests_total",
            Help:      "Summarize requests by result (success, bad_request, failed)",
        },
        []string{"result"},
    )

    rulesApplied = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "medsummarizer",
            Name:      "normalize_rules_applied_total",
            Help:      "Output normalization rules that changed the generated text, by rule",
        },
        []string{"rule"},
    )

    schemaViolations = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "medsummarizer",
            Name:      "schema_violations_total",
            Help:      "Summaries that did not match the requested JSON schema",
        },
    )

    pdfPages = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "medsummarizer",
            Name:      "pdf_pages",
            Help:      "Pages per uploaded PDF",
            Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
        },
    )

    sideEffects = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "medsummarizer",
            Name:      "side_effects_total",
            Help:      "Best-effort store and archive writes by target and result",
        },
        []string{"target", "result"},
    )

    once sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(generationReqs, generationLatency, summarizeReqs, rulesApplied, schemaViolations, pdfPages, sideEffects)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveGeneration(backend, model, result string, dur time.Duration) {
    generationReqs.WithLabelValues(backend, model, result).Inc()
    generationLatency.WithLabelValues(backend, model).Observe(dur.Seconds())
}

func IncSummarize(result string) { summarizeReqs.WithLabelValues(result).Inc() }
func IncRule(rule string)        { rulesApplied.WithLabelValues(rule).Inc() }
func IncSchemaViolation()        { schemaViolations.Inc() }
func ObservePDFPages(n int)      { pdfPages.Observe(float64(n)) }

// IncSideEffect tracks store/archive writes, which never fail a request.
func IncSideEffect(target string, ok bool) {
    sideEffects.WithLabelValues(target, boolToResult(ok)).Inc()
}

func boolToResult(ok bool) string { if ok { return "ok" }; return "error" }
