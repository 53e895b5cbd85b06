package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

// Storage is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection if missing. Point IDs are deterministic
// UUIDv5 values derived from the contract ID and segment index, so
// re-indexing the same contract overwrites its points.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "contracts"
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK if the collection already exists with the same schema
	return s.putJSON(fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *Storage) Upsert(contractID, vendor string, segments []domain.Segment, vectors [][]float64) error {
	if len(segments) != len(vectors) {
		return errors.New("segments and vectors length mismatch")
	}
	points := make([]map[string]any, len(segments))
	for i := range segments {
		points[i] = map[string]any{
			"id":     pointID(contractID, i),
			"vector": vectors[i],
			"payload": map[string]any{
				"contract_id": contractID,
				"vendor":      vendor,
				"section":     segments[i].Section,
				"text":        segments[i].Text,
				"index":       i,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Storage) Search(vector []float64, topK int, filter domain.Filter) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if f := filterClause(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := domain.SearchResult{Score: r.Score}
		if v, ok := r.Payload["contract_id"].(string); ok {
			res.ContractID = v
		}
		if v, ok := r.Payload["vendor"].(string); ok {
			res.Vendor = v
		}
		if v, ok := r.Payload["section"].(string); ok {
			res.Segment.Section = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			res.Segment.Text = v
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Storage) Delete(filter domain.Filter) error {
	f := filterClause(filter)
	if f == nil {
		return s.Clear()
	}
	body := map[string]any{"filter": f}
	return s.postJSON(fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection), body, nil)
}

func (s *Storage) Clear() error {
	// Best-effort: drop collection
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil)
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	_, _ = s.client.Do(req)
	return nil
}

// filterClause builds a qdrant must-match clause, or nil when the filter is empty.
func filterClause(f domain.Filter) map[string]any {
	var must []map[string]any
	if f.ContractID != "" {
		must = append(must, map[string]any{"key": "contract_id", "match": map[string]any{"value": f.ContractID}})
	}
	if f.Vendor != "" {
		must = append(must, map[string]any{"key": "vendor", "match": map[string]any{"value": f.Vendor}})
	}
	if must == nil {
		return nil
	}
	return map[string]any{"must": must}
}

func pointID(contractID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(contractID+":"+strconv.Itoa(index))).String()
}

func (s *Storage) putJSON(url string, body any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Storage) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
