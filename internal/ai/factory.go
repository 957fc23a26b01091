package ai

import (
    "context"
    "fmt"
    "net/http"

    "google.golang.org/genai"

    cfgpkg "github.com/local/medsummarizer/internal/config"
)

// New builds the configured backend. It is called once per process; the returned
// Generator is injected into the request handlers.
func New(ctx context.Context, cfg cfgpkg.BackendConfig) (Generator, error) {
    switch cfg.Name {
    case "huggingface", "hf":
        return NewHuggingFace(cfg.HFEndpoint, cfg.HFToken, cfg.Model, &http.Client{}), nil
    case "openai":
        return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
    case "gemini":
        return NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model, genai.HTTPOptions{BaseURL: cfg.GeminiBaseURL})
    case "anthropic":
        return NewAnthropic(cfg.AnthropicAPIKey, cfg.Model), nil
    default:
        return nil, fmt.Errorf("unknown backend %q", cfg.Name)
    }
}
