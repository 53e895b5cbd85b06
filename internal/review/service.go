package review

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
	"github.com/madhav-20/ClauseCopilot/internal/evidence"
	"github.com/madhav-20/ClauseCopilot/internal/llm"
	"github.com/madhav-20/ClauseCopilot/internal/playbook"
	"github.com/madhav-20/ClauseCopilot/internal/prompt"
	"github.com/madhav-20/ClauseCopilot/internal/store"
	"github.com/madhav-20/ClauseCopilot/internal/summarizer"
)

// historyWindow is how many prior chat turns are included in the chat prompt.
const historyWindow = 4

const chatTemperature = 0.1

// Contract is one ingested document with its segments ready for analysis.
type Contract struct {
	ID       string
	Vendor   string
	Filename string
	UsedOCR  bool
	Segments []domain.Segment
	Preview  string
}

// ChatTurn is one message in a chat session.
type ChatTurn struct {
	Role    string
	Content string
}

// Service orchestrates the contract review pipeline: segmentation, indexing,
// risk analysis, negotiation drafting, chat, and clause-library search.
// Each operation runs to completion before the next begins; there is no
// background work.
type Service struct {
	segmenter   domain.Segmenter
	embedder    domain.Embedder
	vectors     domain.VectorStore
	db          *store.DB
	generator   domain.Generator
	invoker     *llm.Invoker
	selector    *evidence.Selector
	preview     *summarizer.Extractive
	playbook    string
	temperature float64
	topK        int
}

type Config struct {
	Segmenter   domain.Segmenter
	Embedder    domain.Embedder
	Vectors     domain.VectorStore
	DB          *store.DB
	Generator   domain.Generator
	Selector    *evidence.Selector
	Playbook    string
	Temperature float64
	TopK        int
}

func NewService(cfg Config) *Service {
	if cfg.Playbook == "" {
		cfg.Playbook = playbook.DefaultName
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{
		segmenter:   cfg.Segmenter,
		embedder:    cfg.Embedder,
		vectors:     cfg.Vectors,
		db:          cfg.DB,
		generator:   cfg.Generator,
		invoker:     llm.NewInvoker(cfg.Generator),
		selector:    cfg.Selector,
		preview:     summarizer.NewExtractive(),
		playbook:    cfg.Playbook,
		temperature: cfg.Temperature,
		topK:        cfg.TopK,
	}
}

// Ingest segments and indexes the given documents under one vendor. The
// embedder is prepared once over every segment of every document, then each
// contract's prior vectors are replaced. Documents producing no segments
// are rejected, since nothing downstream can use them.
func (s *Service) Ingest(docs []domain.Document, vendor string) ([]*Contract, error) {
	var contracts []*Contract
	var corpus []string
	for _, doc := range docs {
		segments := s.segmenter.Segment(doc.Text)
		if len(segments) == 0 {
			return nil, fmt.Errorf("no text segments in %s; the file may be empty", doc.Path)
		}
		for _, seg := range segments {
			corpus = append(corpus, seg.Text)
		}
		contracts = append(contracts, &Contract{
			ID:       doc.ID,
			Vendor:   vendor,
			Filename: filepath.Base(doc.Path),
			UsedOCR:  doc.UsedOCR,
			Segments: segments,
			Preview:  s.preview.Preview(doc.Text, 3),
		})
	}

	if err := s.embedder.Prepare(corpus); err != nil {
		return nil, err
	}
	initialized := false
	for _, c := range contracts {
		texts := make([]string, len(c.Segments))
		for i, seg := range c.Segments {
			texts[i] = seg.Text
		}
		vectors, err := s.embedder.EmbedBatch(texts)
		if err != nil {
			return nil, err
		}
		// Remote embedders only learn their dimension on the first call.
		if !initialized {
			if err := s.vectors.Init(s.embedder.Dimension()); err != nil {
				return nil, err
			}
			initialized = true
		}
		// Re-upload of the same contract identity replaces its segments.
		if err := s.vectors.Delete(domain.Filter{ContractID: c.ID}); err != nil {
			return nil, err
		}
		if err := s.vectors.Upsert(c.ID, vendor, c.Segments, vectors); err != nil {
			return nil, err
		}
		if err := s.db.SaveContract(c.ID, vendor, c.Filename); err != nil {
			return nil, err
		}
	}
	return contracts, nil
}

// AnalyzeRisks retrieves the evidence bundle for the contract (recomputed on
// every call), runs the validated risk review, and generates the plain
// summary. Both artifacts are persisted before returning.
func (s *Service) AnalyzeRisks(ctx context.Context, c *Contract) (riskJSON, summary string, err error) {
	evidenceText, err := s.selector.Select(c.Segments)
	if err != nil {
		return "", "", err
	}

	riskPrompt := prompt.RiskReview(playbook.Instructions(s.playbook), evidenceText)
	riskJSON, err = s.invoker.GenerateValidated(ctx, riskPrompt, s.temperature)
	if err != nil {
		return "", "", fmt.Errorf("risk review: %w", err)
	}

	// Free-text path: no structural validation, no retry.
	summary, err = s.generator.Generate(ctx, prompt.Summary(evidenceText), s.temperature, false)
	if err != nil {
		return "", "", fmt.Errorf("summary: %w", err)
	}

	prior, _, err := s.db.LoadOutputs(c.ID)
	if err != nil {
		return "", "", err
	}
	out := store.Outputs{RiskJSON: riskJSON, Summary: summary, NegotiationEmail: prior.NegotiationEmail}
	if err := s.db.SaveOutputs(c.ID, out); err != nil {
		return "", "", err
	}
	return riskJSON, summary, nil
}

// Report returns the persisted risk report for the contract, parsed and
// sorted worst-severity-first for display.
func (s *Service) Report(c *Contract) (domain.RiskReport, bool, error) {
	out, ok, err := s.db.LoadOutputs(c.ID)
	if err != nil || !ok || out.RiskJSON == "" {
		return domain.RiskReport{}, false, err
	}
	report, err := llm.ParseReport(out.RiskJSON)
	if err != nil {
		return domain.RiskReport{}, false, err
	}
	sort.SliceStable(report.RedFlags, func(i, j int) bool {
		return domain.SeverityRank(report.RedFlags[i].Severity) > domain.SeverityRank(report.RedFlags[j].Severity)
	})
	return report, true, nil
}

// NegotiationDraft writes a vendor negotiation email from the stored risk
// report. Requires AnalyzeRisks to have run for this contract.
func (s *Service) NegotiationDraft(ctx context.Context, c *Contract) (string, error) {
	out, ok, err := s.db.LoadOutputs(c.ID)
	if err != nil {
		return "", err
	}
	if !ok || out.RiskJSON == "" {
		return "", fmt.Errorf("no risk report for %s; run the analysis first", c.ID)
	}
	email, err := s.generator.Generate(ctx, prompt.Negotiation(out.RiskJSON), s.temperature, false)
	if err != nil {
		return "", err
	}
	out.NegotiationEmail = email
	if err := s.db.SaveOutputs(c.ID, out); err != nil {
		return "", err
	}
	return email, nil
}

// Chat answers a question grounded in the contract's most relevant segments.
// Returns the answer and the context that was shown to the model.
func (s *Service) Chat(ctx context.Context, c *Contract, question string, history []ChatTurn) (answer, contextText string, err error) {
	results, err := s.searchContract(c, question)
	if err != nil {
		return "", "", err
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Segment.Text
	}
	contextText = strings.Join(parts, "\n\n")

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, len(history))
	for i, turn := range history {
		lines[i] = turn.Role + ": " + turn.Content
	}

	answer, err = s.generator.Generate(ctx, prompt.Chat(contextText, strings.Join(lines, "\n"), question), chatTemperature, false)
	if err != nil {
		return "", "", err
	}
	return answer, contextText, nil
}

// SearchClauses runs a clause-library search across all indexed contracts,
// optionally restricted to one vendor.
func (s *Service) SearchClauses(query, vendor string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.topK
	}
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	return s.vectors.Search(vec, topK, domain.Filter{Vendor: vendor})
}

// Vendors lists vendor names with indexed contracts, for library filtering.
func (s *Service) Vendors() ([]string, error) { return s.db.ListVendors() }

// Outputs returns any previously persisted analysis for the contract.
func (s *Service) Outputs(c *Contract) (store.Outputs, bool, error) {
	return s.db.LoadOutputs(c.ID)
}

// searchContract finds the segments of c most relevant to the query. When
// the query embeds to a zero vector (out-of-vocabulary terms under a local
// embedder), it falls back to lexical token overlap over the segments.
func (s *Service) searchContract(c *Contract, query string) ([]domain.SearchResult, error) {
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		return s.lexicalSearch(c, query), nil
	}
	results, err := s.vectors.Search(vec, s.topK, domain.Filter{ContractID: c.ID})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Score > 1e-9 {
			return results, nil
		}
	}
	return s.lexicalSearch(c, query), nil
}

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// lexicalSearch ranks segments by Ochiai coefficient of token overlap with
// the query: |A∩B| / sqrt(|A||B|).
func (s *Service) lexicalSearch(c *Contract, query string) []domain.SearchResult {
	qset := tokenSet(query)
	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(c.Segments))
	for i, seg := range c.Segments {
		sset := tokenSet(seg.Text)
		inter := 0
		for tok := range sset {
			if _, ok := qset[tok]; ok {
				inter++
			}
		}
		score := 0.0
		if len(qset) > 0 && len(sset) > 0 {
			score = float64(inter) / math.Sqrt(float64(len(qset))*float64(len(sset)))
		}
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
	topK := s.topK
	if topK > len(ranked) {
		topK = len(ranked)
	}
	out := make([]domain.SearchResult, 0, topK)
	for _, r := range ranked[:topK] {
		out = append(out, domain.SearchResult{
			Segment:    c.Segments[r.idx],
			Score:      r.score,
			ContractID: c.ID,
			Vendor:     c.Vendor,
		})
	}
	return out
}

func tokenSet(text string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
