package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
)

// Load reads plain-text contract files into documents. PDF text/OCR
// extraction happens upstream of this tool; an optional "<name>.ocr"
// sidecar file marks text that was produced by optical recognition.
// Shell-style globs in paths are expanded; only .txt files are loaded.
func Load(paths []string) ([]domain.Document, error) {
	var documents []domain.Document
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if !strings.HasSuffix(strings.ToLower(m), ".txt") {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, err
			}
			documents = append(documents, domain.Document{
				ID:      ContractID(m),
				Path:    m,
				Text:    string(data),
				UsedOCR: hasOCRSidecar(m),
			})
		}
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no .txt contracts found")
	}
	return documents, nil
}

// ContractID derives a stable contract identity from the file name, so
// re-uploading the same contract replaces its segments.
func ContractID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func hasOCRSidecar(path string) bool {
	sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".ocr"
	_, err := os.Stat(sidecar)
	return err == nil
}
