package ai

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "google.golang.org/genai"
)

// Gemini calls the Gemini API, which also serves the open Gemma models.
type Gemini struct {
    client *genai.Client
    model  string
}

// NewGemini builds the client. Hugging Face style ids ("google/gemma-3-4b-it") are accepted.
// httpOptions may point the client at another base URL.
func NewGemini(ctx context.Context, apiKey, model string, httpOptions genai.HTTPOptions) (*Gemini, error) {
    client, err := genai.NewClient(ctx, &genai.ClientConfig{
        APIKey:      apiKey,
        Backend:     genai.BackendGeminiAPI,
        HTTPOptions: httpOptions,
    })
    if err != nil { return nil, fmt.Errorf("gemini client: %w", err) }
    return &Gemini{client: client, model: strings.TrimPrefix(model, "google/")}, nil
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
    parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
    if req.Image != nil {
        data, mime, err := EncodeImage(req.Image, req.ImageFormat)
        if err != nil { return "", err }
        parts = append(parts, genai.NewPartFromBytes(data, mime))
    }

    resp, err := g.client.Models.GenerateContent(ctx, g.model,
        []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
        &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxNewTokens)},
    )
    if err != nil {
        if code, ok := geminiStatus(err); ok {
            return "", statusError(g.Name(), code, err.Error(), err)
        }
        return "", fmt.Errorf("gemini: %w", err)
    }
    return resp.Text(), nil
}

// geminiStatus extracts the HTTP status carried by a genai.APIError.
func geminiStatus(err error) (int, bool) {
    var apiErr genai.APIError
    if errors.As(err, &apiErr) { return apiErr.Code, true }
    var apiErrPtr *genai.APIError
    if errors.As(err, &apiErrPtr) && apiErrPtr != nil { return apiErrPtr.Code, true }
    return 0, false
}
