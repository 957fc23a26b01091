// Package normalize cleans up raw model output with a fixed, ordered set of rewrite rules.
// It is a heuristic, not a parser: every rule is a no-op when its marker is absent and
// malformed output passes through unchanged.
package normalize

import "strings"

// Kind tags a rewrite rule.
type Kind int

const (
    // PrefixStrip removes an echoed prompt from the start of the output.
    PrefixStrip Kind = iota + 1
    // MarkerTruncate keeps only the text after the last marker unless the output already looks like JSON.
    MarkerTruncate
    // LiteralRemove deletes every verbatim occurrence of a known instruction echo.
    LiteralRemove
    // FenceExtract takes the body of a fenced block.
    FenceExtract
)

func (k Kind) String() string {
    switch k {
    case PrefixStrip:
        return "prefix_strip"
    case MarkerTruncate:
        return "marker_truncate"
    case LiteralRemove:
        return "literal_remove"
    case FenceExtract:
        return "fence_extract"
    }
    return "unknown"
}

const (
    SummaryMarker   = "Summary:"
    InstructionEcho = "You are a medical assistant.\nSummarize clearly for a doctor.\n\n"
    Fence           = "```"
    JSONTag         = "json"
)

// Rule is one rewrite step. Text is the prefix, marker or literal the rule looks for;
// for FenceExtract it is the language tag of the preferred fence.
type Rule struct {
    Kind Kind
    Text string
}

// Apply runs the rule and returns the rewritten text.
func (r Rule) Apply(s string) string {
    switch r.Kind {
    case PrefixStrip:
        if strings.HasPrefix(s, r.Text) {
            return strings.TrimSpace(s[len(r.Text):])
        }
    case MarkerTruncate:
        if r.Text != "" && strings.Contains(s, r.Text) && !strings.HasPrefix(strings.TrimSpace(s), "{") {
            return s[strings.LastIndex(s, r.Text)+len(r.Text):]
        }
    case LiteralRemove:
        if r.Text != "" {
            return strings.ReplaceAll(s, r.Text, "")
        }
    case FenceExtract:
        return extractFence(s, r.Text)
    }
    return s
}

// extractFence prefers the last fence tagged with lang, then falls back to the first untagged fence.
// The block runs up to the next fence or the end of the text.
func extractFence(s, lang string) string {
    if lang != "" {
        tagged := Fence + lang
        if i := strings.LastIndex(s, tagged); i >= 0 {
            return strings.TrimSpace(untilFence(s[i+len(tagged):]))
        }
    }
    if i := strings.Index(s, Fence); i >= 0 {
        return strings.TrimSpace(untilFence(s[i+len(Fence):]))
    }
    return s
}

func untilFence(s string) string {
    if i := strings.Index(s, Fence); i >= 0 {
        return s[:i]
    }
    return s
}

// Chain is an ordered list of rules. Order matters: later rules assume earlier ones ran.
type Chain []Rule

// Default returns the chain used for every generation: strip the echoed prompt, truncate at
// the last "Summary:", drop the known instruction echo, extract a fenced block.
func Default(prompt string) Chain {
    return Chain{
        {Kind: PrefixStrip, Text: prompt},
        {Kind: MarkerTruncate, Text: SummaryMarker},
        {Kind: LiteralRemove, Text: InstructionEcho},
        {Kind: FenceExtract, Text: JSONTag},
    }
}

// Apply runs every rule in order, trims the result and reports which rules changed the text.
func (c Chain) Apply(generated string) (string, []Kind) {
    var changed []Kind
    s := generated
    for _, r := range c {
        next := r.Apply(s)
        if next != s {
            changed = append(changed, r.Kind)
        }
        s = next
    }
    return strings.TrimSpace(s), changed
}

// Normalize applies the default chain for prompt to generated.
func Normalize(generated, prompt string) string {
    out, _ := Default(prompt).Apply(generated)
    return out
}
