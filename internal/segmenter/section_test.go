package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

func TestSegment_SectionHeadings(t *testing.T) {
	doc := "1. Term\nThis agreement begins Jan 1.\n\nLIABILITY\nLiability capped at fees paid."
	s := NewSectionSegmenter(1800)
	segs := s.Segment(doc)

	require.Len(t, segs, 2)
	assert.Equal(t, domain.Segment{Section: "1. Term", Text: "1. Term\nThis agreement begins Jan 1."}, segs[0])
	assert.Equal(t, domain.Segment{Section: "LIABILITY", Text: "LIABILITY\nLiability capped at fees paid."}, segs[1])
}

func TestSegment_HeadingHeuristic(t *testing.T) {
	tests := []struct {
		line    string
		heading bool
	}{
		{"1. Term", true},
		{"1.1 Fees", true},
		{"SECTION 2", true},
		{"TERMINATION", true},
		{"LIMITATION OF LIABILITY", true},
		{"This agreement begins Jan 1.", false},
		{"ACME", false}, // all-caps but shorter than 5 chars
		{strings.ToUpper(strings.Repeat("liability and more liability ", 4)), false}, // over 80 chars is prose
	}
	s := NewSectionSegmenter(1800)
	for _, tt := range tests {
		assert.Equal(t, tt.heading, s.isHeading(tt.line), "line %q", tt.line)
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	s := NewSectionSegmenter(1800)
	assert.Empty(t, s.Segment(""))
	assert.Empty(t, s.Segment("\n\n   \n"))
}

func TestSegment_NoHeadingsSingleRun(t *testing.T) {
	s := NewSectionSegmenter(1800)
	segs := s.Segment("just a short line.\nand another one.")
	require.Len(t, segs, 1)
	assert.Equal(t, UnknownSection, segs[0].Section)
	assert.Equal(t, "just a short line.\nand another one.", segs[0].Text)
}

func TestSegment_SizeBound(t *testing.T) {
	var b strings.Builder
	b.WriteString("TERMINATION\n")
	for i := 0; i < 80; i++ {
		b.WriteString("Either party may terminate this agreement for convenience upon thirty days notice. ")
		b.WriteString("\n")
	}
	s := NewSectionSegmenter(400)
	segs := s.Segment(b.String())

	require.NotEmpty(t, segs)
	for _, seg := range segs {
		assert.LessOrEqual(t, len(seg.Text), 400)
		assert.NotEmpty(t, strings.TrimSpace(seg.Text))
		assert.True(t, seg.Section == "TERMINATION" || seg.Section == "TERMINATION (cont.)" || seg.Section == UnknownSection,
			"unexpected section %q", seg.Section)
	}
}

func TestSegment_OrderPreservation(t *testing.T) {
	doc := "1. Term\nThe term is one year. It renews automatically. Notice must be given in writing. A second block follows.\n\nPAYMENT TERMS\nInvoices are due in thirty days. Late fees apply after that. Disputes must be raised early."
	s := NewSectionSegmenter(60)
	segs := s.Segment(doc)

	var joined strings.Builder
	for _, seg := range segs {
		joined.WriteString(seg.Text)
		joined.WriteString(" ")
	}
	// Every original non-blank line survives, in order.
	pos := 0
	for _, line := range strings.Split(doc, "\n") {
		for _, word := range strings.Fields(line) {
			idx := strings.Index(joined.String()[pos:], word)
			require.GreaterOrEqual(t, idx, 0, "word %q missing after position %d", word, pos)
			pos += idx + len(word)
		}
	}
}

func TestSegment_IdempotentOnSmallInput(t *testing.T) {
	in := "  the whole document fits in one segment.  "
	s := NewSectionSegmenter(1800)
	segs := s.Segment(in)
	require.Len(t, segs, 1)
	assert.Equal(t, strings.TrimSpace(in), segs[0].Text)
}

func TestSegment_OversizedParagraphGetsContinuationLabels(t *testing.T) {
	sentence := "The vendor shall indemnify the customer against all third party claims arising from the services. "
	body := strings.Repeat(sentence, 12)
	doc := "INDEMNIFICATION\n" + strings.TrimSpace(body)
	s := NewSectionSegmenter(300)
	segs := s.Segment(doc)

	require.Greater(t, len(segs), 1)
	assert.Equal(t, "INDEMNIFICATION", segs[0].Section)
	for _, seg := range segs[1:] {
		assert.Contains(t, seg.Section, "INDEMNIFICATION")
	}
	for _, seg := range segs {
		assert.LessOrEqual(t, len(seg.Text), 300)
	}
}

func TestSegment_HardCutWithoutSentenceBoundary(t *testing.T) {
	// A single run with no sentence punctuation at all forces the hard cut.
	doc := strings.Repeat("x", 950)
	s := NewSectionSegmenter(400)
	segs := s.Segment(doc)

	require.Len(t, segs, 3)
	total := 0
	for _, seg := range segs {
		assert.LessOrEqual(t, len(seg.Text), 400)
		total += len(seg.Text)
	}
	assert.Equal(t, 950, total)
}
