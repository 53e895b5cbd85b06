package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadReadsTxtFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "msa_acme.txt", "1. TERM\nThis agreement lasts one year.")

	docs, err := Load([]string{path})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "msa_acme", docs[0].ID)
	assert.Equal(t, path, docs[0].Path)
	assert.Contains(t, docs[0].Text, "one year")
	assert.False(t, docs[0].UsedOCR)
}

func TestLoadExpandsGlobsAndSkipsNonTxt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "b.txt", "beta")
	writeFile(t, dir, "notes.md", "ignored")

	docs, err := Load([]string{filepath.Join(dir, "*")})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	ids := []string{docs[0].ID, docs[1].ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestLoadDetectsOCRSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scanned.txt", "blurry text")
	writeFile(t, dir, "scanned.ocr", "")

	docs, err := Load([]string{path})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, docs[0].UsedOCR)
}

func TestLoadNoContractsFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "nothing here")

	_, err := Load([]string{filepath.Join(dir, "*")})
	assert.EqualError(t, err, "no .txt contracts found")
}

func TestContractID(t *testing.T) {
	assert.Equal(t, "msa_acme", ContractID("/tmp/uploads/msa_acme.txt"))
	assert.Equal(t, "plain", ContractID("plain"))
}
