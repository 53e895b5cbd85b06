package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject_FencedBlock(t *testing.T) {
	raw := "Here you go:\n```json\n{\"risk_score\": 7, \"red_flags\": []}\n```"
	obj, err := ExtractObject(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(7), obj["risk_score"])
	assert.Equal(t, []any{}, obj["red_flags"])
}

func TestExtractObject_EmbeddedInProse(t *testing.T) {
	raw := "Sure! Based on the clauses provided, my assessment is:\n" +
		`{"risk_score": 4.5, "red_flags": [{"category": "termination", "severity": "HIGH"}]}` +
		"\nLet me know if you need anything else."
	obj, err := ExtractObject(raw)
	require.NoError(t, err)
	assert.Equal(t, 4.5, obj["risk_score"])
	flags, ok := obj["red_flags"].([]any)
	require.True(t, ok)
	require.Len(t, flags, 1)
	assert.Equal(t, "termination", flags[0].(map[string]any)["category"])
}

func TestExtractObject_MissingOpeningBrace(t *testing.T) {
	raw := `"risk_score": 2, "red_flags": []}`
	obj, err := ExtractObject(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(2), obj["risk_score"])
}

func TestExtractObject_TrailingCommas(t *testing.T) {
	obj, err := ExtractObject(`{"a": 1, "b": 2,}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, obj)

	obj, err = ExtractObject(`{"flags": [1, 2,],}`)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, obj["flags"])
}

func TestExtractObject_BlankInputFails(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t\n"} {
		_, err := ExtractObject(raw)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "input %q", raw)
	}
}

func TestExtractObject_UnparseableCarriesPreview(t *testing.T) {
	raw := strings.Repeat("definitely not json ", 20)
	_, err := ExtractObject(raw)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.LessOrEqual(t, len(perr.Preview), previewLen+len("..."))
	assert.True(t, strings.HasPrefix(raw, strings.TrimSuffix(perr.Preview, "...")))
}

func TestParseReport(t *testing.T) {
	raw := "```json\n" + `{
		"risk_score": 6,
		"red_flags": [
			{"category": "liability", "severity": "CRITICAL", "evidence_quote": "unlimited liability", "why_risky": "no cap", "suggested_fallback": "cap at 12 months fees"}
		]
	}` + "\n```"
	report, err := ParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, 6.0, report.RiskScore)
	require.Len(t, report.RedFlags, 1)
	assert.Equal(t, "CRITICAL", report.RedFlags[0].Severity)
	assert.Equal(t, "cap at 12 months fees", report.RedFlags[0].SuggestedFallback)
}
