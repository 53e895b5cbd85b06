package segmenter

import (
	"regexp"
	"strings"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

// UnknownSection labels segments produced before any heading was seen.
const UnknownSection = "UNKNOWN"

// DefaultMaxChars is the default upper bound on a segment's text length.
const DefaultMaxChars = 1800

// Heading lines longer than this are assumed to be prose, not headings.
const maxHeadingLen = 80

// SectionSegmenter splits contract text into clause/section segments.
// It starts a new segment at likely section headers ("1. Term", "1.1 Fees",
// "SECTION 2", "LIMITATION OF LIABILITY") and keeps segments under a size
// bound, splitting at sentence boundaries to avoid mid-sentence cuts.
type SectionSegmenter struct {
	maxChars    int
	headingRe   *regexp.Regexp
	sentenceRe  *regexp.Regexp
	paragraphRe *regexp.Regexp
}

func NewSectionSegmenter(maxChars int) *SectionSegmenter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &SectionSegmenter{
		maxChars:    maxChars,
		headingRe:   regexp.MustCompile(`^(\d+(\.\d+)*\.?\s+|SECTION\s+\d+|[A-Z][A-Z\s]{4,})`),
		sentenceRe:  regexp.MustCompile(`[.!?]\s+`),
		paragraphRe: regexp.MustCompile(`\n\s*\n`),
	}
}

// Segment splits text into ordered segments. Empty or whitespace-only input
// yields an empty slice; a document with no heading candidates yields a
// single UNKNOWN-labeled run, split only by the size rules.
func (s *SectionSegmenter) Segment(text string) []domain.Segment {
	var segments []domain.Segment
	var buffer []string
	title := ""

	flush := func() {
		if len(buffer) > 0 {
			body := strings.TrimSpace(strings.Join(buffer, "\n"))
			if body != "" {
				segments = append(segments, domain.Segment{Section: labelOr(title), Text: body})
			}
		}
		buffer = nil
		title = ""
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if s.isHeading(line) {
			flush()
			title = line
			buffer = append(buffer, line)
		} else {
			buffer = append(buffer, line)
		}

		// Enforce the size bound as we go, cutting at sentence boundaries.
		for bufferLen(buffer) > s.maxChars {
			soFar := strings.Join(buffer, "\n")
			before, after := s.splitAtSentence(soFar, s.maxChars)
			if before != "" {
				segments = append(segments, domain.Segment{Section: labelOr(title), Text: before})
			}
			if after == "" {
				buffer = nil
				title = ""
				break
			}
			// Continuation stays under the current title.
			buffer = []string{after}
		}
	}
	flush()

	// Post-pass: a segment can still exceed the bound when a single heading's
	// body accumulated without tripping the mid-stream split.
	var out []domain.Segment
	for _, seg := range segments {
		if len(seg.Text) > s.maxChars {
			out = append(out, s.splitOversized(seg)...)
		} else {
			out = append(out, seg)
		}
	}
	return out
}

func (s *SectionSegmenter) isHeading(line string) bool {
	return len(line) <= maxHeadingLen && s.headingRe.MatchString(line)
}

// splitAtSentence splits text at the last sentence boundary within maxLen.
// Without a boundary in the window it cuts at the hard character limit.
func (s *SectionSegmenter) splitAtSentence(text string, maxLen int) (before, after string) {
	if len(text) <= maxLen {
		return text, ""
	}
	window := text[:maxLen+1]
	if locs := s.sentenceRe.FindAllStringIndex(window, -1); locs != nil {
		end := locs[len(locs)-1][1]
		return strings.TrimSpace(text[:end]), strings.TrimSpace(text[end:])
	}
	return strings.TrimSpace(text[:maxLen]), strings.TrimSpace(text[maxLen:])
}

// splitOversized breaks one segment into smaller ones by paragraph, then by
// sentence. Every piece after the first carries a "(cont.)" label suffix.
func (s *SectionSegmenter) splitOversized(seg domain.Segment) []domain.Segment {
	var out []domain.Segment
	label := func() string {
		if len(out) == 0 {
			return seg.Section
		}
		return seg.Section + " (cont.)"
	}
	for _, part := range s.paragraphRe.Split(seg.Text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for len(part) > s.maxChars {
			before, after := s.splitAtSentence(part, s.maxChars)
			if before != "" {
				out = append(out, domain.Segment{Section: label(), Text: before})
			}
			part = after
		}
		if part != "" {
			out = append(out, domain.Segment{Section: label(), Text: part})
		}
	}
	if len(out) == 0 {
		return []domain.Segment{seg}
	}
	return out
}

func labelOr(title string) string {
	if title == "" {
		return UnknownSection
	}
	return title
}

// bufferLen sums line lengths without joining; newlines are not counted,
// matching how the bound is enforced mid-stream.
func bufferLen(lines []string) int {
	total := 0
	for _, ln := range lines {
		total += len(ln)
	}
	return total
}
