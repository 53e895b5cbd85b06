package evidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

// axisEmbedder maps each known keyword to its own axis, so dot products are
// simple term-overlap counts and selection is fully deterministic.
type axisEmbedder struct {
	axes map[string]int
}

func newAxisEmbedder(keywords ...string) *axisEmbedder {
	axes := make(map[string]int, len(keywords))
	for i, kw := range keywords {
		axes[kw] = i
	}
	return &axisEmbedder{axes: axes}
}

func (e *axisEmbedder) Name() string                  { return "axis" }
func (e *axisEmbedder) Prepare(corpus []string) error { return nil }
func (e *axisEmbedder) Dimension() int                { return len(e.axes) }

func (e *axisEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, len(e.axes))
	lower := strings.ToLower(text)
	for kw, i := range e.axes {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *axisEmbedder) EmbedBatch(texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestSelect_EmptySegments(t *testing.T) {
	s := NewSelector(newAxisEmbedder("liability"), []string{"liability"}, 3, 100)
	out, err := s.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestSelect_DocumentOrderAndDedup(t *testing.T) {
	emb := newAxisEmbedder("liability", "payment")
	segments := []domain.Segment{
		{Section: "1", Text: "payment is due in thirty days"},
		{Section: "2", Text: "nothing relevant here"},
		{Section: "3", Text: "liability is capped and payment offsets apply"},
		{Section: "4", Text: "liability survives termination"},
	}
	// Both queries hit segment 3; it must appear exactly once, and output
	// must follow document order regardless of per-query ranking.
	s := NewSelector(emb, []string{"liability cap", "payment terms"}, 2, 10000)
	out, err := s.Select(segments)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "liability is capped and payment offsets apply"))
	first := strings.Index(out, "payment is due")
	last := strings.Index(out, "liability survives")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, last, first)
	assert.NotContains(t, out, "nothing relevant here")
}

func TestSelect_StableTieBreakPrefersLowerIndex(t *testing.T) {
	emb := newAxisEmbedder("indemnity")
	segments := []domain.Segment{
		{Section: "a", Text: "indemnity clause one"},
		{Section: "b", Text: "indemnity clause two"},
		{Section: "c", Text: "indemnity clause three"},
	}
	s := NewSelector(emb, []string{"indemnity"}, 2, 10000)
	out, err := s.Select(segments)
	require.NoError(t, err)
	assert.Contains(t, out, "clause one")
	assert.Contains(t, out, "clause two")
	assert.NotContains(t, out, "clause three")
}

func TestSelect_TruncationExactBudget(t *testing.T) {
	emb := newAxisEmbedder("liability")
	long := strings.Repeat("liability liability liability ", 20)
	segments := []domain.Segment{
		{Section: "a", Text: long},
		{Section: "b", Text: long},
	}
	s := NewSelector(emb, []string{"liability"}, 5, 100)
	out, err := s.Select(segments)
	require.NoError(t, err)

	require.True(t, strings.HasSuffix(out, TruncationNotice))
	body := strings.TrimSuffix(out, TruncationNotice)
	assert.Equal(t, 100, len(body))
}

func TestSelect_DefaultQueriesCoverRiskTaxonomy(t *testing.T) {
	require.Len(t, DefaultRiskQueries, 8)
	joined := strings.Join(DefaultRiskQueries, " ")
	for _, topic := range []string{"liability", "indemn", "termination", "privacy", "payment", "warrant", "confidential", "insurance"} {
		assert.Contains(t, joined, topic)
	}
}
