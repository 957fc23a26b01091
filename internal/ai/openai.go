package ai

import (
    "context"
    "errors"
    "fmt"

    "github.com/openai/openai-go/v3"
    "github.com/openai/openai-go/v3/option"
)

// OpenAI talks to the Chat Completions API or any compatible server (vLLM, Ollama) via base URL.
type OpenAI struct {
    client openai.Client
    model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
    opts := []option.RequestOption{option.WithMaxRetries(0)}
    if apiKey != "" { opts = append(opts, option.WithAPIKey(apiKey)) }
    if baseURL != "" { opts = append(opts, option.WithBaseURL(baseURL)) }
    return &OpenAI{client: openai.NewClient(opts...), model: model}
}

func (c *OpenAI) Name() string  { return "openai" }
func (c *OpenAI) Model() string { return c.model }

// Generate sends the prompt (and image, as a data URL part) as a single user message.
// Chat completions never echo the prompt, so ReturnFullText has no effect here.
func (c *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
    var parts []openai.ChatCompletionContentPartUnionParam
    if req.Image != nil {
        data, mime, err := EncodeImage(req.Image, req.ImageFormat)
        if err != nil { return "", err }
        parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
            URL: DataURL(mime, data),
        }))
    }
    parts = append(parts, openai.TextContentPart(req.Prompt))

    resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
        Model:               openai.ChatModel(c.model),
        Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
        MaxCompletionTokens: openai.Int(int64(req.MaxNewTokens)),
    })
    if err != nil {
        var apiErr *openai.Error
        if errors.As(err, &apiErr) {
            return "", statusError(c.Name(), apiErr.StatusCode, apiErr.Error(), err)
        }
        return "", fmt.Errorf("openai: %w", err)
    }
    if len(resp.Choices) == 0 { return "", nil }
    return resp.Choices[0].Message.Content, nil
}
