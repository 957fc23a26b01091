// Package prompt builds the instruction prompt sent to the generation backend and
// describes the JSON answer the model is asked to return.
package prompt

import "strings"

// Persona and Task open every prompt.
const (
    Persona = "You are a medical AI assistant."
    Task    = "Extract and summarize the following report."
)

// AnswerTemplate is the JSON object the model is asked to return. The field names are a
// contract the model is asked, but not guaranteed, to honor.
const AnswerTemplate = `{
  "chief_complaint": "",
  "duration": "",
  "key_findings": [],
  "summary": ""
}`

// Compose builds the prompt for one request: persona, task, the JSON-only directive with
// the answer template, then the primary text and the PDF-derived text, in that order.
// The inputs are embedded verbatim.
func Compose(text, pdfText string) string {
    var b strings.Builder
    b.Grow(len(text) + len(pdfText) + 256)
    b.WriteString("\n")
    b.WriteString(Persona)
    b.WriteString("\n\n")
    b.WriteString(Task)
    b.WriteString("\n\nReturn ONLY valid JSON in this format:\n\n")
    b.WriteString(AnswerTemplate)
    b.WriteString("\n\nMedical Text:\n")
    b.WriteString(text)
    b.WriteString("\n\nPDF Extracted Text:\n")
    b.WriteString(pdfText)
    b.WriteString("\n")
    return b.String()
}

// AnswerSchema is the JSON schema of AnswerTemplate. Extra properties are allowed because
// the model is free to add fields.
func AnswerSchema() map[string]any {
    return map[string]any{
        "$schema": "http://json-schema.org/draft-07/schema#",
        "type":    "object",
        "required": []any{"chief_complaint", "duration", "key_findings", "summary"},
        "properties": map[string]any{
            "chief_complaint": map[string]any{"type": "string"},
            "duration":        map[string]any{"type": "string"},
            "key_findings": map[string]any{
                "type":  "array",
                "items": map[string]any{"type": "string"},
            },
            "summary": map[string]any{"type": "string"},
        },
    }
}
