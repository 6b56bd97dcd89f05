package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/types"
)

func parse(raw string) types.Verdict {
	return ParseVerdict(raw, zap.NewNop().Sugar())
}

func TestParseVerdictPositive(t *testing.T) {
	v := parse(`{"uses_tool": true, "tool_detected": "Outreach", "signal_type": "required", "evidence": "Experience with Outreach required"}`)

	assert.True(t, v.UsesTool)
	assert.Equal(t, types.ToolOutreach, v.Tool)
	assert.Equal(t, types.SignalRequired, v.Signal)
	assert.Equal(t, "Experience with Outreach required", v.Evidence)
}

func TestParseVerdictCanonicalizesLabels(t *testing.T) {
	v := parse(`{"uses_tool": true, "tool_detected": "SalesLoft", "signal_type": "Nice to Have", "evidence": "SalesLoft a plus"}`)

	assert.Equal(t, types.ToolSalesloft, v.Tool)
	assert.Equal(t, types.SignalPreferred, v.Signal)
}

func TestParseVerdictMalformedDegradesToDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty response", ""},
		{"whitespace only", "   \n "},
		{"not json", "the company uses Outreach"},
		{"truncated json", `{"uses_tool": true, "tool_det`},
		{"json array", `[1, 2, 3]`},
		{"missing required fields", `{"evidence": "Outreach"}`},
		{"wrong field type", `{"uses_tool": "yes", "tool_detected": "Outreach"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, types.DefaultVerdict(), parse(tt.raw))
		})
	}
}

func TestParseVerdictInconsistentCoerced(t *testing.T) {
	// uses_tool true with no tool named.
	v := parse(`{"uses_tool": true, "tool_detected": "None", "signal_type": "required", "evidence": "x"}`)
	assert.Equal(t, types.DefaultVerdict(), v)

	// Tool named but uses_tool false.
	v = parse(`{"uses_tool": false, "tool_detected": "Outreach"}`)
	assert.Equal(t, types.DefaultVerdict(), v)

	// Unknown tool label with uses_tool true canonicalizes to none, which is
	// then inconsistent.
	v = parse(`{"uses_tool": true, "tool_detected": "HubSpot", "signal_type": "required"}`)
	assert.Equal(t, types.DefaultVerdict(), v)
}

func TestParseVerdictNegativeIsBareDefault(t *testing.T) {
	v := parse(`{"uses_tool": false, "tool_detected": "none", "signal_type": "required", "evidence": "leftover"}`)
	assert.Equal(t, types.DefaultVerdict(), v)
}

func TestParseVerdictTruncatesEvidence(t *testing.T) {
	long := strings.Repeat("e", 600)
	v := parse(`{"uses_tool": true, "tool_detected": "both", "evidence": "` + long + `"}`)

	assert.Equal(t, types.ToolBoth, v.Tool)
	assert.Len(t, v.Evidence, types.MaxEvidenceLen)
}

func TestParseVerdictStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"uses_tool\": true, \"tool_detected\": \"outreach\", \"signal_type\": \"stack_mention\", \"evidence\": \"our stack: Outreach, Gong\"}\n```"
	v := parse(raw)

	assert.Equal(t, types.ToolOutreach, v.Tool)
	assert.Equal(t, types.SignalStackMention, v.Signal)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		Company:     "Acme Inc",
		JobTitle:    "SDR",
		Description: "You will run sequences in Outreach.io daily.",
	})

	assert.Contains(t, prompt, "Acme Inc")
	assert.Contains(t, prompt, "SDR")
	assert.Contains(t, prompt, "Outreach.io daily")
	assert.Contains(t, prompt, "uses_tool")
	assert.NotContains(t, prompt, "{{.")
}
