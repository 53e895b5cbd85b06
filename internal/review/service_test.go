package review

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
	"github.com/madhav-20/ClauseCopilot/internal/embedding/tfidf"
	"github.com/madhav-20/ClauseCopilot/internal/evidence"
	"github.com/madhav-20/ClauseCopilot/internal/segmenter"
	"github.com/madhav-20/ClauseCopilot/internal/store"
	"github.com/madhav-20/ClauseCopilot/internal/vectorstore/memory"
)

const sampleContract = `1. Term
This agreement begins Jan 1 and renews automatically each year.

LIMITATION OF LIABILITY
Aggregate liability is capped at fees paid in the prior three months.

PAYMENT TERMS
Invoices are due within fifteen days of receipt.`

// fakeGenerator replies with canned output and records every prompt.
type fakeGenerator struct {
	reply   string
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, temperature float64, jsonMode bool) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

func newTestService(t *testing.T, gen domain.Generator) *Service {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	emb := tfidf.NewEmbedder()
	return NewService(Config{
		Segmenter: segmenter.NewSectionSegmenter(1800),
		Embedder:  emb,
		Vectors:   memory.NewStorage(),
		DB:        db,
		Generator: gen,
		Selector:  evidence.NewSelector(emb, nil, 2, 14000),
	})
}

func ingestSample(t *testing.T, svc *Service) *Contract {
	t.Helper()
	contracts, err := svc.Ingest([]domain.Document{
		{ID: "msa-acme", Path: "msa-acme.txt", Text: sampleContract},
	}, "Acme")
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	return contracts[0]
}

func TestIngest_SegmentsAndIndexes(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{})
	c := ingestSample(t, svc)

	assert.Equal(t, "msa-acme", c.ID)
	assert.Equal(t, "Acme", c.Vendor)
	require.Len(t, c.Segments, 3)
	assert.Equal(t, "1. Term", c.Segments[0].Section)
	assert.Equal(t, "LIMITATION OF LIABILITY", c.Segments[1].Section)
	assert.NotEmpty(t, c.Preview)

	vendors, err := svc.Vendors()
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, vendors)
}

func TestIngest_EmptyDocumentRejected(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{})
	_, err := svc.Ingest([]domain.Document{{ID: "x", Path: "x.txt", Text: "   \n  "}}, "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text segments")
}

func TestIngest_ReingestReplacesSegments(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{})
	ingestSample(t, svc)
	c := ingestSample(t, svc)

	// The same contract indexed twice must not duplicate its clauses.
	res, err := svc.SearchClauses("liability capped at fees", "", 20)
	require.NoError(t, err)
	count := 0
	for _, r := range res {
		if strings.Contains(r.Segment.Text, "capped at fees paid") {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "msa-acme", c.ID)
}

func TestAnalyzeRisks_PersistsOutputs(t *testing.T) {
	gen := &fakeGenerator{reply: `{"risk_score": 7, "red_flags": [{"category": "payment", "severity": "MED", "evidence_quote": "due within fifteen days", "why_risky": "short window", "suggested_fallback": "net 30"}]}`}
	svc := newTestService(t, gen)
	c := ingestSample(t, svc)

	riskJSON, summary, err := svc.AnalyzeRisks(context.Background(), c)
	require.NoError(t, err)
	assert.Contains(t, riskJSON, `"risk_score": 7`)
	assert.NotEmpty(t, summary)

	// One validated risk call plus one free-text summary call.
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "contract risk reviewer")
	assert.Contains(t, gen.prompts[0], "capped at fees paid")
	assert.Contains(t, gen.prompts[1], "plain English")

	out, ok, err := svc.Outputs(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, riskJSON, out.RiskJSON)

	report, ok, err := svc.Report(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7.0, report.RiskScore)
	require.Len(t, report.RedFlags, 1)
	assert.Equal(t, "payment", report.RedFlags[0].Category)
}

func TestReport_SortsWorstFirst(t *testing.T) {
	gen := &fakeGenerator{reply: `{"risk_score": 8, "red_flags": [
		{"category": "payment", "severity": "LOW"},
		{"category": "liability", "severity": "CRITICAL"},
		{"category": "renewal", "severity": "HIGH"}
	]}`}
	svc := newTestService(t, gen)
	c := ingestSample(t, svc)
	_, _, err := svc.AnalyzeRisks(context.Background(), c)
	require.NoError(t, err)

	report, ok, err := svc.Report(c)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, report.RedFlags, 3)
	assert.Equal(t, "CRITICAL", report.RedFlags[0].Severity)
	assert.Equal(t, "HIGH", report.RedFlags[1].Severity)
	assert.Equal(t, "LOW", report.RedFlags[2].Severity)
}

func TestNegotiationDraft_RequiresAnalysis(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{reply: "Dear vendor,"})
	c := ingestSample(t, svc)

	_, err := svc.NegotiationDraft(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the analysis first")
}

func TestNegotiationDraft_PersistsEmail(t *testing.T) {
	gen := &fakeGenerator{reply: `{"risk_score": 5, "red_flags": []}`}
	svc := newTestService(t, gen)
	c := ingestSample(t, svc)
	_, _, err := svc.AnalyzeRisks(context.Background(), c)
	require.NoError(t, err)

	gen.reply = "Dear vendor, please amend the payment terms."
	email, err := svc.NegotiationDraft(context.Background(), c)
	require.NoError(t, err)
	assert.Contains(t, email, "Dear vendor")

	out, ok, err := svc.Outputs(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, email, out.NegotiationEmail)
	assert.NotEmpty(t, out.RiskJSON, "drafting must not clobber the risk report")
}

func TestChat_GroundsAndWindowsHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "The term renews automatically."}
	svc := newTestService(t, gen)
	c := ingestSample(t, svc)

	history := []ChatTurn{
		{Role: "user", Content: "turn one"},
		{Role: "assistant", Content: "turn two"},
		{Role: "user", Content: "turn three"},
		{Role: "assistant", Content: "turn four"},
		{Role: "user", Content: "turn five"},
	}
	answer, contextText, err := svc.Chat(context.Background(), c, "when does the agreement renew", history)
	require.NoError(t, err)
	assert.Equal(t, "The term renews automatically.", answer)
	assert.Contains(t, contextText, "renews automatically")

	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "turn one", "history must be windowed to the last 4 turns")
	assert.Contains(t, gen.prompts[0], "turn five")
	assert.Contains(t, gen.prompts[0], "when does the agreement renew")
}

func TestChat_LexicalFallbackOnZeroVector(t *testing.T) {
	gen := &fakeGenerator{reply: "answer"}
	svc := newTestService(t, gen)
	c := ingestSample(t, svc)

	// Out-of-vocabulary terms embed to a zero vector under TF-IDF; context
	// must still come from the lexical fallback.
	_, contextText, err := svc.Chat(context.Background(), c, "frobnicate zorblax", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, contextText)
}
