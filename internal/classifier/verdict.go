package classifier

import (
	_ "embed"
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/types"
)

//go:embed schema.json
var verdictSchema string

var schemaLoader = gojsonschema.NewStringLoader(verdictSchema)

// wireVerdict is the raw response shape before canonicalization.
type wireVerdict struct {
	UsesTool bool   `json:"uses_tool"`
	Tool     string `json:"tool_detected"`
	Signal   string `json:"signal_type"`
	Evidence string `json:"evidence"`
}

// ParseVerdict turns raw classifier output into a well-typed verdict. It
// never fails: empty responses, unparseable JSON, schema violations, and
// inconsistent verdicts all degrade to the safe default. Classification
// errors are recoverable data, not pipeline faults.
func ParseVerdict(raw string, logger *zap.SugaredLogger) types.Verdict {
	raw = cleanJSONBlock(raw)
	if raw == "" {
		logger.Debugw("empty classifier response, using default verdict")
		return types.DefaultVerdict()
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		logger.Warnw("classifier response is not valid JSON", "error", err)
		return types.DefaultVerdict()
	}
	if !result.Valid() {
		logger.Warnw("classifier response violates verdict schema", "errors", result.Errors())
		return types.DefaultVerdict()
	}

	var wire wireVerdict
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		logger.Warnw("failed to decode classifier response", "error", err)
		return types.DefaultVerdict()
	}

	verdict := types.Verdict{
		UsesTool: wire.UsesTool,
		Tool:     types.CanonicalTool(wire.Tool),
		Signal:   types.CanonicalSignal(wire.Signal),
		Evidence: types.TruncateEvidence(wire.Evidence),
	}

	// uses_tool must agree with tool_detected; anything else is coerced to
	// the default rather than trusted.
	if !verdict.Consistent() {
		logger.Warnw("inconsistent verdict coerced to default",
			"uses_tool", wire.UsesTool, "tool_detected", wire.Tool)
		return types.DefaultVerdict()
	}

	if !verdict.Positive() {
		// Negative verdicts carry no evidence or signal.
		return types.DefaultVerdict()
	}

	return verdict
}
