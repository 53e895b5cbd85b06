package memory

import (
	"errors"
	"sort"
	"sync"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

type entry struct {
	segment    domain.Segment
	vector     []float64
	contractID string
	vendor     string
}

// Storage is an in-memory vector store using brute-force cosine similarity.
// It supports the same metadata filters as the Qdrant store and is the
// zero-infrastructure default.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = nil
	return nil
}

func (s *Storage) Upsert(contractID, vendor string, segments []domain.Segment, vectors [][]float64) error {
	if len(segments) != len(vectors) {
		return errors.New("segments and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i := range segments {
		s.entries = append(s.entries, entry{
			segment:    segments[i],
			vector:     vectors[i],
			contractID: contractID,
			vendor:     vendor,
		})
	}
	return nil
}

func (s *Storage) Search(vector []float64, topK int, filter domain.Filter) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, e := range s.entries {
		if !matches(e, filter) {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: dot(e.vector, vector)})
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].score > candidates[b].score })
	if topK > len(candidates) {
		topK = len(candidates)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, c := range candidates[:topK] {
		e := s.entries[c.idx]
		results = append(results, domain.SearchResult{
			Segment:    e.segment,
			Score:      c.score,
			ContractID: e.contractID,
			Vendor:     e.vendor,
		})
	}
	return results, nil
}

func (s *Storage) Delete(filter domain.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !matches(e, filter) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func matches(e entry, f domain.Filter) bool {
	if f.ContractID != "" && e.contractID != f.ContractID {
		return false
	}
	if f.Vendor != "" && e.vendor != f.Vendor {
		return false
	}
	return true
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
