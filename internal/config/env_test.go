package config

import (
    "testing"
    "time"
)

func TestFromEnvDefaults(t *testing.T) {
    t.Setenv("ENVIRONMENT", "development")
    t.Setenv("HF_TOKEN", "hf_test")

    cfg, err := FromEnv()
    if err != nil {
        t.Fatalf("FromEnv: %v", err)
    }
    if cfg.Backend.Name != "huggingface" {
        t.Fatalf("backend: want huggingface got %q", cfg.Backend.Name)
    }
    if cfg.Backend.Model != "google/gemma-3-4b-it" {
        t.Fatalf("model: got %q", cfg.Backend.Model)
    }
    if cfg.Generation.MaxNewTokens != 2048 || cfg.Generation.ReturnFullText {
        t.Fatalf("generation params: %+v", cfg.Generation)
    }
    if cfg.HTTP.RequestTimeout != 600*time.Second {
        t.Fatalf("request timeout: got %s", cfg.HTTP.RequestTimeout)
    }
    if !cfg.PrettyLogs() {
        t.Fatalf("expected pretty logs in development")
    }
    if cfg.Axiom.Dataset != "dev_medsummarizer" {
        t.Fatalf("axiom dataset: got %q", cfg.Axiom.Dataset)
    }
    if err := cfg.Validate(); err != nil {
        t.Fatalf("Validate: %v", err)
    }
}

func TestFromEnvOverrides(t *testing.T) {
    t.Setenv("ENVIRONMENT", "production")
    t.Setenv("BACKEND", " OpenAI ")
    t.Setenv("OPENAI_BASE_URL", "http://vllm:8000/v1")
    t.Setenv("MAX_NEW_TOKENS", "512")
    t.Setenv("LOG_PRETTY", "true")

    cfg, err := FromEnv()
    if err != nil {
        t.Fatalf("FromEnv: %v", err)
    }
    if cfg.Backend.Name != "openai" {
        t.Fatalf("backend: got %q", cfg.Backend.Name)
    }
    if cfg.Generation.MaxNewTokens != 512 {
        t.Fatalf("max tokens: got %d", cfg.Generation.MaxNewTokens)
    }
    if !cfg.PrettyLogs() {
        t.Fatalf("explicit LOG_PRETTY should win over environment")
    }
    if err := cfg.Validate(); err != nil {
        t.Fatalf("self-hosted openai endpoint should not need a key: %v", err)
    }
}

func TestValidateRequiresBackendCredential(t *testing.T) {
    cases := []struct {
        name    string
        backend BackendConfig
    }{
        {"huggingface", BackendConfig{Name: "huggingface", Model: "m"}},
        {"openai", BackendConfig{Name: "openai", Model: "m"}},
        {"gemini", BackendConfig{Name: "gemini", Model: "m"}},
        {"anthropic", BackendConfig{Name: "anthropic", Model: "m"}},
        {"unknown", BackendConfig{Name: "llama.cpp", Model: "m", HFToken: "x"}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            cfg := Config{
                Backend:    tc.backend,
                Generation: GenerationConfig{MaxNewTokens: 16},
                HTTP:       HTTPConfig{MaxUploadBytes: 1},
            }
            if err := cfg.Validate(); err == nil {
                t.Fatalf("expected validation error")
            }
        })
    }
}
