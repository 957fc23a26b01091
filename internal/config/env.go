package config

import (
    "errors"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/caarlos0/env/v11"
    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string `env:"LOG_LEVEL" envDefault:"info"`
    Pretty     *bool  `env:"LOG_PRETTY"`
    File       string `env:"LOG_FILE" envDefault:"logs/medsummarizer.log"`
    MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
    MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"10"`
    MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
    Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool          `env:"SEND_LOGS_TO_AXIOM" envDefault:"false"`
    APIKey        string        `env:"AXIOM_API_KEY"`
    OrgID         string        `env:"AXIOM_ORG_ID"`
    Dataset       string        `env:"AXIOM_DATASET" envDefault:"dev"`
    FlushInterval time.Duration `env:"AXIOM_FLUSH_INTERVAL" envDefault:"10s"`
}

// BackendConfig selects the generation backend and its credentials.
type BackendConfig struct {
    Name            string `env:"BACKEND" envDefault:"huggingface"` // huggingface|openai|gemini|anthropic
    Model           string `env:"MODEL" envDefault:"google/gemma-3-4b-it"`
    HFToken         string `env:"HF_TOKEN"`
    HFEndpoint      string `env:"HF_ENDPOINT"`
    OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
    OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
    GeminiAPIKey    string `env:"GEMINI_API_KEY"`
    GeminiBaseURL   string `env:"GEMINI_BASE_URL"`
    AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
}

// GenerationConfig holds the parameters passed on every generation call.
type GenerationConfig struct {
    MaxNewTokens   int  `env:"MAX_NEW_TOKENS" envDefault:"2048"`
    ReturnFullText bool `env:"RETURN_FULL_TEXT" envDefault:"false"`
    SchemaCheck    bool `env:"SCHEMA_CHECK" envDefault:"true"`
}

// HTTPConfig defines the hosting layer around the pipeline.
type HTTPConfig struct {
    Port            string        `env:"PORT" envDefault:"8080"`
    RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"600s"`
    ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
    MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"67108864"`
}

// StoreConfig enables the Redis summary store when RedisURL is set.
type StoreConfig struct {
    RedisURL string        `env:"REDIS_URL"`
    TTL      time.Duration `env:"SUMMARY_TTL" envDefault:"24h"`
}

// ArchiveConfig enables the S3 archive when Bucket is set.
type ArchiveConfig struct {
    Bucket          string `env:"ARCHIVE_BUCKET"`
    Prefix          string `env:"ARCHIVE_PREFIX" envDefault:"summaries"`
    Passphrase      string `env:"ARCHIVE_PASSPHRASE"`
    Region          string `env:"AWS_REGION"`
    AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
    SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Config is the top-level configuration.
type Config struct {
    Environment string `env:"ENVIRONMENT" envDefault:"production"`
    HTTP        HTTPConfig
    Logging     LoggingConfig
    Axiom       AxiomConfig
    Backend     BackendConfig
    Generation  GenerationConfig
    Store       StoreConfig
    Archive     ArchiveConfig
}

// FromEnv loads configuration from the environment (and an optional .env file) with sensible defaults.
func FromEnv() (Config, error) {
    // a missing .env is the normal case outside local development
    _ = godotenv.Load()

    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    if cfg.Logging.Pretty == nil {
        pretty := isDevEnvironment(cfg.Environment)
        cfg.Logging.Pretty = &pretty
    }
    cfg.Axiom.Dataset = cfg.Axiom.Dataset + "_medsummarizer"
    cfg.Backend.Name = strings.ToLower(strings.TrimSpace(cfg.Backend.Name))
    return cfg, nil
}

// PrettyLogs reports whether console logging should be human readable.
func (c Config) PrettyLogs() bool { return c.Logging.Pretty != nil && *c.Logging.Pretty }

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
    var errs []error
    switch c.Backend.Name {
    case "huggingface", "hf":
        if c.Backend.HFToken == "" { errs = append(errs, errors.New("HF_TOKEN is required for the huggingface backend")) }
    case "openai":
        // a custom base URL usually points at a self-hosted server without auth
        if c.Backend.OpenAIAPIKey == "" && c.Backend.OpenAIBaseURL == "" {
            errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai backend"))
        }
    case "gemini":
        if c.Backend.GeminiAPIKey == "" { errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini backend")) }
    case "anthropic":
        if c.Backend.AnthropicAPIKey == "" { errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic backend")) }
    default:
        errs = append(errs, fmt.Errorf("unknown BACKEND %q", c.Backend.Name))
    }
    if c.Backend.Model == "" { errs = append(errs, errors.New("MODEL must not be empty")) }
    if c.Generation.MaxNewTokens <= 0 { errs = append(errs, errors.New("MAX_NEW_TOKENS must be positive")) }
    if c.HTTP.MaxUploadBytes <= 0 { errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive")) }
    return errors.Join(errs...)
}

func isDevEnvironment(env string) bool {
    switch strings.ToLower(env) {
    case "dev", "development", "local":
        return true
    }
    return false
}

// LookupEnv is a small helper for optional toggles read outside the Config tree.
func LookupEnv(key, def string) string {
    if v := os.Getenv(key); v != "" { return v }
    return def
}
