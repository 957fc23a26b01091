// Package client calls a running summarize service and turns its answers into
// readable reports.
package client

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "strings"
)

var (
    ErrEmptyText    = errors.New("no text provided for summarization")
    ErrEmptySummary = errors.New("service returned empty summary")
)

// StatusError is a non-2xx answer from the service.
type StatusError struct {
    StatusCode int
    Body       string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("summarize service returned %d: %s", e.StatusCode, e.Body)
}

// File is an optional upload.
type File struct {
    Name string
    Data []byte
}

type Input struct {
    Text  string
    Image *File
    PDF   *File
}

type Client struct {
    url  string
    http *http.Client
}

// New returns a client for the /summarize endpoint at url. Timeouts come from the
// caller's context.
func New(url string, hc *http.Client) *Client {
    if hc == nil { hc = &http.Client{} }
    return &Client{url: url, http: hc}
}

// Summarize posts the multipart form and returns the summary string as sent by the service.
func (c *Client) Summarize(ctx context.Context, in Input) (string, error) {
    if strings.TrimSpace(in.Text) == "" { return "", ErrEmptyText }

    var b bytes.Buffer
    mw := multipart.NewWriter(&b)
    if err := mw.WriteField("text", in.Text); err != nil { return "", err }
    for field, f := range map[string]*File{"image": in.Image, "pdf": in.PDF} {
        if f == nil { continue }
        fw, err := mw.CreateFormFile(field, f.Name)
        if err != nil { return "", err }
        if _, err := fw.Write(f.Data); err != nil { return "", err }
    }
    if err := mw.Close(); err != nil { return "", err }

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &b)
    if err != nil { return "", fmt.Errorf("build request: %w", err) }
    req.Header.Set("Content-Type", mw.FormDataContentType())

    resp, err := c.http.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
        return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
    }
    var out struct {
        Summary string `json:"summary"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        return "", fmt.Errorf("decode response: %w", err)
    }
    if strings.TrimSpace(out.Summary) == "" { return "", ErrEmptySummary }
    return strings.TrimSpace(out.Summary), nil
}

// EnforceExtraFields appends an instruction asking the model for the optional report arrays.
func EnforceExtraFields(text string) string {
    return text + "\n\n[INSTRUCTION ENFORCEMENT]: Also ensure the JSON response includes the following arrays of strings " +
        `if found in the text: "important_readings", "threats", "precautions", and "recommendations". ` +
        "Focus on threatening readings and future precautions."
}
