package ai

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/anthropics/anthropic-sdk-go"
    anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

type Anthropic struct {
    client anthropic.Client
    model  string
}

// NewAnthropic builds the Messages API client. Extra options are applied last, so a
// base URL or HTTP client passed here wins over the environment.
func NewAnthropic(apiKey, model string, opts ...anthropicopt.RequestOption) *Anthropic {
    opts = append([]anthropicopt.RequestOption{anthropicopt.WithAPIKey(apiKey), anthropicopt.WithMaxRetries(0)}, opts...)
    return &Anthropic{client: anthropic.NewClient(opts...), model: model}
}

func (c *Anthropic) Name() string  { return "anthropic" }
func (c *Anthropic) Model() string { return c.model }

func (c *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
    var blocks []anthropic.ContentBlockParamUnion
    if req.Image != nil {
        data, mime, err := EncodeImage(req.Image, req.ImageFormat)
        if err != nil { return "", err }
        blocks = append(blocks, anthropic.NewImageBlockBase64(mime, EncodeToBase64(data)))
    }
    blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

    msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
        Model:     anthropic.Model(c.model),
        MaxTokens: int64(req.MaxNewTokens),
        Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
    })
    if err != nil {
        var apiErr *anthropic.Error
        if errors.As(err, &apiErr) {
            return "", statusError(c.Name(), apiErr.StatusCode, apiErr.Error(), err)
        }
        return "", fmt.Errorf("anthropic: %w", err)
    }

    var b strings.Builder
    for _, block := range msg.Content {
        if block.Type == "text" { b.WriteString(block.Text) }
    }
    return b.String(), nil
}
