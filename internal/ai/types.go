package ai

import (
    "context"
    "errors"
    "fmt"
    "image"
)

// Request is one generation call: the composed prompt, an optional decoded image and the
// generation parameters.
type Request struct {
    Prompt         string
    Image          image.Image // nil for text-only requests
    ImageFormat    string      // decoder format name; selects the transport encoding
    MaxNewTokens   int
    ReturnFullText bool // ask the backend to echo the prompt in front of the new tokens
}

// Generator is a multimodal text-generation backend. Implementations are built once at
// startup and shared read-only by all requests. A backend that generates nothing returns
// "" and a nil error; the caller decides what an empty summary means. Backends never retry.
type Generator interface {
    Name() string
    Model() string
    Generate(ctx context.Context, req Request) (string, error)
}

var ErrRateLimited = errors.New("rate_limited")

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// HTTPError represents a non-2xx response from a generation backend
type HTTPError struct {
    StatusCode int
    Body       string
    Backend    string
}

func (e *HTTPError) Error() string {
    return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Backend, e.Body)
}

// statusError maps a backend status code to ErrRateLimited or an *HTTPError.
func statusError(backend string, status int, body string, cause error) error {
    if status == 429 {
        if cause != nil { return fmt.Errorf("%s: %w: %w", backend, ErrRateLimited, cause) }
        return fmt.Errorf("%s: %w", backend, ErrRateLimited)
    }
    return &HTTPError{StatusCode: status, Body: body, Backend: backend}
}
