// Package types defines the domain vocabulary shared by the classifier,
// the skip-cache, and the company registry.
package types

import (
	"strings"
	"unicode/utf8"
)

// Tool identifies which sales-engagement platform a posting shows evidence of.
type Tool string

// Canonical tool states.
const (
	ToolOutreach  Tool = "outreach"
	ToolSalesloft Tool = "salesloft"
	ToolBoth      Tool = "both"
	ToolNone      Tool = "none"
)

// Signal describes the strength of a detected mention.
type Signal string

// Canonical signal states.
const (
	SignalRequired     Signal = "required"
	SignalPreferred    Signal = "preferred"
	SignalStackMention Signal = "stack_mention"
	SignalNone         Signal = "none"
)

// MaxEvidenceLen bounds stored evidence quotes so a verbose classifier
// response cannot inflate registry rows.
const MaxEvidenceLen = 200

// Verdict is the structured outcome of classifying one job posting. It is
// ephemeral; only positive verdicts leave a trace, as registry rows.
type Verdict struct {
	UsesTool bool   `json:"uses_tool"`
	Tool     Tool   `json:"tool_detected"`
	Signal   Signal `json:"signal_type"`
	Evidence string `json:"evidence"`
}

// DefaultVerdict is the safe outcome used for malformed or inconsistent
// classifier output: no detection, no evidence.
func DefaultVerdict() Verdict {
	return Verdict{UsesTool: false, Tool: ToolNone, Signal: SignalNone, Evidence: ""}
}

// Positive reports whether the verdict records a tool detection.
func (v Verdict) Positive() bool {
	return v.UsesTool && v.Tool != ToolNone
}

// Consistent reports whether uses_tool agrees with tool_detected. The
// classifier contract requires uses_tool == true iff a tool was named.
func (v Verdict) Consistent() bool {
	return v.UsesTool == (v.Tool != ToolNone)
}

// toolSynonyms maps observed label variants to canonical tools. The
// classifier's vocabulary drifts across casing and spelling; everything is
// canonicalized here before any downstream logic runs.
var toolSynonyms = map[string]Tool{
	"outreach":               ToolOutreach,
	"outreach.io":            ToolOutreach,
	"salesloft":              ToolSalesloft,
	"sales loft":             ToolSalesloft,
	"sales-loft":             ToolSalesloft,
	"salesloft.":             ToolSalesloft,
	"both":                   ToolBoth,
	"outreach and salesloft": ToolBoth,
	"none":                   ToolNone,
	"neither":                ToolNone,
	"no":                     ToolNone,
	"n/a":                    ToolNone,
	"":                       ToolNone,
}

// CanonicalTool maps a raw classifier label to a canonical Tool. Unknown
// labels map to ToolNone rather than erroring.
func CanonicalTool(raw string) Tool {
	key := strings.ToLower(strings.TrimSpace(raw))
	if tool, ok := toolSynonyms[key]; ok {
		return tool
	}
	return ToolNone
}

var signalSynonyms = map[string]Signal{
	"required":      SignalRequired,
	"require":       SignalRequired,
	"must have":     SignalRequired,
	"must_have":     SignalRequired,
	"preferred":     SignalPreferred,
	"nice to have":  SignalPreferred,
	"nice_to_have":  SignalPreferred,
	"plus":          SignalPreferred,
	"stack_mention": SignalStackMention,
	"stack mention": SignalStackMention,
	"stack":         SignalStackMention,
	"tools list":    SignalStackMention,
	"tools_list":    SignalStackMention,
	"mention":       SignalStackMention,
	"none":          SignalNone,
	"n/a":           SignalNone,
	"":              SignalNone,
}

// CanonicalSignal maps a raw classifier label to a canonical Signal.
func CanonicalSignal(raw string) Signal {
	key := strings.ToLower(strings.TrimSpace(raw))
	if sig, ok := signalSynonyms[key]; ok {
		return sig
	}
	return SignalNone
}

// TruncateEvidence trims whitespace and bounds an evidence quote to
// MaxEvidenceLen bytes, cutting on a rune boundary so the result is always
// valid UTF-8. Postings quote accents and typographic punctuation; a raw
// byte slice could split a rune and the store would reject the row.
func TruncateEvidence(evidence string) string {
	evidence = strings.TrimSpace(evidence)
	if len(evidence) <= MaxEvidenceLen {
		return evidence
	}

	cut := MaxEvidenceLen
	for cut > 0 && !utf8.RuneStart(evidence[cut]) {
		cut--
	}
	return evidence[:cut]
}
