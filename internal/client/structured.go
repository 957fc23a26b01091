package client

import (
    "encoding/json"
    "fmt"
    "regexp"
    "strings"
)

// Structured is a parsed summary. Known keys: chief_complaint, duration, summary,
// key_findings, important_readings, threats, recommendations, precautions, method.
type Structured map[string]any

var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

// ParseStructured reads a model answer: a JSON object, else the outermost {...} span,
// else the whole text as {"summary": raw}.
func ParseStructured(raw string) Structured {
    trimmed := strings.TrimSpace(raw)
    var m map[string]any
    if err := json.Unmarshal([]byte(trimmed), &m); err == nil && m != nil {
        return m
    }
    if span := objectSpan.FindString(trimmed); span != "" {
        if err := json.Unmarshal([]byte(span), &m); err == nil && m != nil {
            return m
        }
    }
    return Structured{"summary": trimmed}
}

var (
    readingPattern = regexp.MustCompile(`(?i)\b\d+[.,]?\d*\b|%|\b(mg/dL|g/dL|mmol/L|IU/L|IU|kU|mL|cm|mm|s|sec)\b`)
    labKeywords    = regexp.MustCompile(`(?i)\b(ptt|aptt|inr|hemoglobin|wbc|platelet|creatinine|glucose|sodium|potassium|bilirubin|alt|ast|crp|esr|ldh)\b`)
    threatPattern  = regexp.MustCompile(`(?i)critical|high|low|abnormal|danger|prolong|increase|decrease|>|<`)
)

// FastSummarize builds a structured result from text without calling a model: lines with
// readings or lab names become findings, flagged findings become threats.
func FastSummarize(text string, maxFindings int) Structured {
    var lines []string
    for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
        if l = strings.TrimSpace(l); l != "" { lines = append(lines, l) }
    }

    seen := map[string]bool{}
    var combined, nonNumeric []string
    for _, l := range lines {
        if readingPattern.MatchString(l) {
            if !seen[l] { seen[l] = true; combined = append(combined, l) }
        } else {
            nonNumeric = append(nonNumeric, l)
        }
    }
    for _, l := range lines {
        if labKeywords.MatchString(l) && !seen[l] { seen[l] = true; combined = append(combined, l) }
    }

    findings := combined
    if maxFindings > 0 && len(findings) > maxFindings { findings = findings[:maxFindings] }
    threats := []string{}
    for _, f := range findings {
        if threatPattern.MatchString(f) { threats = append(threats, f) }
    }

    comments := strings.Join(nonNumeric[:min(2, len(nonNumeric))], " ")
    summary := strings.Join(findings, "\n")
    if summary == "" { summary = comments }
    if summary == "" { summary = strings.Join(lines[:min(3, len(lines))], "\n") }
    if summary == "" { summary = "No discrete numeric readings found." }

    chief := ""
    if len(nonNumeric) > 0 { chief = nonNumeric[0] }

    s := Structured{
        "method":             "heuristic",
        "chief_complaint":    chief,
        "comments":           comments,
        "key_findings":       toAny(findings),
        "important_readings": toAny(findings),
        "threats":            toAny(threats),
        "recommendations":    []any{},
        "precautions":        []any{},
        "summary":            summary,
    }
    s["summary_markdown"] = Format(s)
    return s
}

func toAny(ss []string) []any {
    out := make([]any, 0, len(ss))
    for _, s := range ss { out = append(out, s) }
    return out
}

// Format renders s as markdown sections. Empty input yields "No summary data extracted.";
// a result with no known sections falls back to its summary or the raw JSON.
func Format(s Structured) string {
    var b strings.Builder
    if v := s.pick("chief_complaint"); v != nil { fmt.Fprintf(&b, "**Chief Complaint:** %v\n\n", v) }
    if v := s.pick("duration"); v != nil { fmt.Fprintf(&b, "**Duration:** %v\n\n", v) }
    if sum, ok := s["summary"].(string); ok && strings.TrimSpace(sum) != "" {
        title := "Overview"
        if s["method"] == "heuristic" { title = "Raw Extracted Excerpts" }
        fmt.Fprintf(&b, "**%s:**\n%s\n\n", title, strings.TrimSpace(sum))
    }
    b.WriteString(formatList("Key Findings", s.pick("key_findings", "keyFindings")))
    b.WriteString(formatList("Important Readings", s.pick("important_readings", "importantReadings", "readings")))
    b.WriteString(formatList("Threats / Concerns", s.pick("threats", "concerns")))
    b.WriteString(formatList("Doctor Recommendations", s.pick("recommendations", "recommendation")))
    b.WriteString(formatList("Future Precautions", s.pick("precautions", "future_precautions")))

    out := strings.TrimSpace(b.String())
    if out != "" { return out }
    if len(s) == 0 { return "No summary data extracted." }
    if v := s.pick("summary"); v != nil { return fmt.Sprint(v) }
    raw, err := json.MarshalIndent(map[string]any(s), "", "  ")
    if err != nil { return "No summary data extracted." }
    return "**Raw LLM Output:**\n```json\n" + string(raw) + "\n```"
}

// pick returns the first present, non-empty value among keys. Lists count as present
// even when empty so an explicit [] hides the alternate spellings.
func (s Structured) pick(keys ...string) any {
    for _, k := range keys {
        switch v := s[k].(type) {
        case nil:
        case string:
            if v != "" { return v }
        case bool:
            if v { return v }
        case float64:
            if v != 0 { return v }
        default:
            return v
        }
    }
    return nil
}

func formatList(label string, items any) string {
    var list []string
    switch v := items.(type) {
    case []any:
        for _, it := range v { list = append(list, fmt.Sprint(it)) }
    case []string:
        list = v
    case string:
        if t := strings.TrimSpace(v); t != "" { list = []string{t} }
    }
    if len(list) == 0 { return "" }
    var b strings.Builder
    fmt.Fprintf(&b, "**%s:**\n", label)
    for i, it := range list {
        if i > 0 { b.WriteString("\n") }
        b.WriteString("• " + it)
    }
    b.WriteString("\n\n")
    return b.String()
}
