package evidence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

// DefaultRiskQueries target common contractual risk categories; the selector
// retrieves the top segments per query. The list is fixed for the lifetime of
// a process and is not derived from document content.
var DefaultRiskQueries = []string{
	"limitation of liability and liability cap",
	"indemnity and indemnification",
	"termination for convenience and auto-renewal",
	"data privacy security and GDPR",
	"payment terms fees and pricing",
	"warranties service level agreement SLA",
	"confidentiality and non-disclosure",
	"insurance and compliance",
}

// TruncationNotice is appended when the bundle exceeds the character budget.
const TruncationNotice = "\n\n[... text truncated to fit model context ...]"

// DefaultMaxChars caps evidence sent to the LLM to avoid context overflow
// (typical local model limit is around 4k-8k tokens).
const DefaultMaxChars = 14000

const DefaultTopKPerTopic = 5

// Selector assembles a deduplicated, size-capped evidence bundle from the
// segments most similar to each risk query.
type Selector struct {
	embedder     domain.Embedder
	queries      []string
	topKPerTopic int
	maxChars     int
}

func NewSelector(embedder domain.Embedder, queries []string, topKPerTopic, maxChars int) *Selector {
	if len(queries) == 0 {
		queries = DefaultRiskQueries
	}
	if topKPerTopic <= 0 {
		topKPerTopic = DefaultTopKPerTopic
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Selector{embedder: embedder, queries: queries, topKPerTopic: topKPerTopic, maxChars: maxChars}
}

// Select embeds every segment once, scores them against each risk query by
// dot product (embeddings are L2-normalized, so this is cosine similarity),
// and returns the union of per-query winners concatenated in document order.
// Empty input yields an empty string.
func (s *Selector) Select(segments []domain.Segment) (string, error) {
	if len(segments) == 0 {
		return "", nil
	}
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	vectors, err := s.embedder.EmbedBatch(texts)
	if err != nil {
		return "", fmt.Errorf("embed segments: %w", err)
	}

	selected := make(map[int]struct{})
	for _, query := range s.queries {
		qvec, err := s.embedder.Embed(query)
		if err != nil {
			return "", fmt.Errorf("embed query %q: %w", query, err)
		}
		for _, idx := range topIndices(vectors, qvec, s.topKPerTopic) {
			selected[idx] = struct{}{}
		}
	}

	// Restore document order.
	order := make([]int, 0, len(selected))
	for idx := range selected {
		order = append(order, idx)
	}
	sort.Ints(order)

	picked := make([]string, len(order))
	for i, idx := range order {
		picked[i] = segments[idx].Text
	}
	out := strings.Join(picked, "\n\n")
	if len(out) > s.maxChars {
		out = out[:s.maxChars] + TruncationNotice
	}
	return out, nil
}

// topIndices returns the indices of the k highest-scoring vectors, ties
// broken by lower original index.
func topIndices(vectors [][]float64, query []float64, k int) []int {
	idxs := make([]int, len(vectors))
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		idxs[i] = i
		scores[i] = dot(v, query)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if k > len(idxs) {
		k = len(idxs)
	}
	return idxs[:k]
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
