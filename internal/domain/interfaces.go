package domain

import "context"

// Document is one uploaded contract after text extraction.
type Document struct {
	ID      string
	Path    string
	Text    string
	UsedOCR bool
}

// Segment is a bounded span of contract text with a best-effort section label.
type Segment struct {
	Section string
	Text    string
}

// SearchResult is a matching segment with a relevance score and its origin metadata.
type SearchResult struct {
	Segment    Segment
	Score      float64
	ContractID string
	Vendor     string
}

// RedFlag is a single risk finding reported by the model.
type RedFlag struct {
	Category          string `json:"category"`
	Severity          string `json:"severity"`
	EvidenceQuote     string `json:"evidence_quote"`
	WhyRisky          string `json:"why_risky"`
	SuggestedFallback string `json:"suggested_fallback"`
}

// RiskReport is the structured output of a risk review.
type RiskReport struct {
	RiskScore float64   `json:"risk_score"`
	RedFlags  []RedFlag `json:"red_flags"`
}

// SeverityRank orders severities so reports can be shown worst-first.
// Unknown severities rank below LOW.
func SeverityRank(severity string) int {
	switch severity {
	case "CRITICAL":
		return 4
	case "HIGH":
		return 3
	case "MED":
		return 2
	case "LOW":
		return 1
	}
	return 0
}

// Segmenter splits raw contract text into ordered, bounded segments.
type Segmenter interface {
	Segment(text string) []Segment
}

// Embedder converts free text into a numeric vector representation.
// Vectors are L2-normalized so that dot product equals cosine similarity.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
	EmbedBatch(texts []string) ([][]float64, error)
}

// Filter restricts a vector search by metadata equality. Zero values match everything.
type Filter struct {
	ContractID string
	Vendor     string
}

// VectorStore persists segment vectors and supports filtered similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(contractID, vendor string, segments []Segment, vectors [][]float64) error
	Search(vector []float64, topK int, filter Filter) ([]SearchResult, error)
	Delete(filter Filter) error
	Clear() error
}

// Generator produces free-form text from a prompt. jsonMode asks the model
// for structured output but is advisory; callers must still validate.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, jsonMode bool) (string, error)
}
