package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

// previewLen bounds the diagnostic excerpt attached to parse failures.
const previewLen = 100

// ParseError reports that no JSON object could be recovered from model
// output. Preview holds the start of the offending text for diagnostics.
type ParseError struct {
	Preview string
}

func (e *ParseError) Error() string {
	return "could not parse JSON from model output: " + e.Preview
}

var (
	fencedJSONRe    = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractObject recovers the first JSON object from model output. It works
// even if the model wraps the object in markdown fences, adds commentary
// before or after, omits the opening brace, or leaves trailing commas.
// It performs no schema validation; callers own schema conformance.
func ExtractObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseError{Preview: "(empty output)"}
	}

	// 1) Fenced ```json block.
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if obj, err := parseObject(m[1]); err == nil {
			return obj, nil
		}
	}

	// 2) Greedy span from first { to last }.
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			if obj, err := parseObject(text[i : j+1]); err == nil {
				return obj, nil
			}
		}
	}

	// 3) Output sometimes starts with `"risk_score": ...` (missing leading {).
	if strings.HasPrefix(text, `"`) {
		if obj, err := parseObject("{" + text); err == nil {
			return obj, nil
		}
	}

	// 4) Last resort: strip trailing commas before closing braces/brackets.
	if obj, err := parseObject(trailingCommaRe.ReplaceAllString(text, "$1")); err == nil {
		return obj, nil
	}

	return nil, &ParseError{Preview: preview(text)}
}

// ParseReport extracts a JSON object from raw model output and decodes it
// into the typed risk report.
func ParseReport(raw string) (domain.RiskReport, error) {
	obj, err := ExtractObject(raw)
	if err != nil {
		return domain.RiskReport{}, err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return domain.RiskReport{}, err
	}
	var report domain.RiskReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.RiskReport{}, err
	}
	return report, nil
}

func parseObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	return text[:previewLen] + "..."
}
