package ai

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
)

const hfDefaultBase = "https://api-inference.huggingface.co/models/"

// HuggingFace calls a text-generation endpoint (Inference API or a TGI server) that accepts
// {"inputs", "parameters": {"max_new_tokens", "return_full_text"}}.
type HuggingFace struct {
    http     *http.Client
    endpoint string
    token    string
    model    string
}

// NewHuggingFace builds the client. An empty endpoint targets the hosted Inference API for model.
func NewHuggingFace(endpoint, token, model string, hc *http.Client) *HuggingFace {
    if endpoint == "" { endpoint = hfDefaultBase + model }
    if hc == nil { hc = &http.Client{} }
    return &HuggingFace{http: hc, endpoint: endpoint, token: token, model: model}
}

func (c *HuggingFace) Name() string  { return "huggingface" }
func (c *HuggingFace) Model() string { return c.model }

type hfParameters struct {
    MaxNewTokens   int  `json:"max_new_tokens"`
    ReturnFullText bool `json:"return_full_text"`
}

type hfRequest struct {
    Inputs     string       `json:"inputs"`
    Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
    GeneratedText string `json:"generated_text"`
}

func (c *HuggingFace) Generate(ctx context.Context, req Request) (string, error) {
    // TGI reads images as inline markdown in front of the text
    var imageMD string
    if req.Image != nil {
        data, mime, err := EncodeImage(req.Image, req.ImageFormat)
        if err != nil { return "", err }
        imageMD = fmt.Sprintf("![](%s)\n\n", DataURL(mime, data))
    }

    body, err := json.Marshal(hfRequest{
        Inputs:     imageMD + req.Prompt,
        Parameters: hfParameters{MaxNewTokens: req.MaxNewTokens, ReturnFullText: req.ReturnFullText},
    })
    if err != nil { return "", fmt.Errorf("marshal request: %w", err) }

    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
    if err != nil { return "", fmt.Errorf("build request: %w", err) }
    httpReq.Header.Set("Content-Type", "application/json")
    if c.token != "" { httpReq.Header.Set("Authorization", "Bearer "+c.token) }

    resp, err := c.http.Do(httpReq)
    if err != nil { return "", err }
    defer resp.Body.Close()

    raw, err := io.ReadAll(resp.Body)
    if err != nil { return "", fmt.Errorf("read response: %w", err) }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return "", statusError(c.Name(), resp.StatusCode, truncate(string(raw), 512), nil)
    }

    text, err := decodeHFGeneration(raw)
    if err != nil { return "", err }
    // keep an echo starting with the prompt itself
    return strings.TrimPrefix(text, imageMD), nil
}

// decodeHFGeneration accepts both the Inference API list form and the TGI object form.
func decodeHFGeneration(raw []byte) (string, error) {
    trimmed := bytes.TrimSpace(raw)
    if len(trimmed) > 0 && trimmed[0] == '[' {
        var out []hfGeneration
        if err := json.Unmarshal(trimmed, &out); err != nil { return "", fmt.Errorf("decode response: %w", err) }
        if len(out) == 0 { return "", nil }
        return out[0].GeneratedText, nil
    }
    var out hfGeneration
    if err := json.Unmarshal(trimmed, &out); err != nil { return "", fmt.Errorf("decode response: %w", err) }
    return out.GeneratedText, nil
}

func truncate(s string, n int) string {
    if len(s) <= n { return s }
    return s[:n] + "..."
}
