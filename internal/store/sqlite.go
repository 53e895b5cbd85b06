package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Outputs holds the persisted analysis artifacts for one contract.
type Outputs struct {
	RiskJSON         string
	Summary          string
	NegotiationEmail string
}

// DB persists contract records and analysis outputs in SQLite.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &DB{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS contracts (
		contract_id TEXT PRIMARY KEY,
		vendor_name TEXT,
		filename TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS outputs (
		contract_id TEXT PRIMARY KEY,
		risk_json TEXT,
		summary TEXT,
		negotiation_email TEXT,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// SaveContract records a contract; re-saving the same ID replaces it.
func (s *DB) SaveContract(contractID, vendorName, filename string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO contracts (contract_id, vendor_name, filename)
		VALUES (?, ?, ?)`, contractID, vendorName, filename)
	return err
}

// SaveOutputs stores the analysis artifacts for a contract.
func (s *DB) SaveOutputs(contractID string, out Outputs) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO outputs (contract_id, risk_json, summary, negotiation_email, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		contractID, out.RiskJSON, out.Summary, out.NegotiationEmail)
	return err
}

// LoadOutputs returns the stored artifacts for a contract, or ok=false when
// the contract has not been analyzed yet.
func (s *DB) LoadOutputs(contractID string) (Outputs, bool, error) {
	row := s.db.QueryRow(`SELECT risk_json, summary, negotiation_email FROM outputs WHERE contract_id = ?`, contractID)
	var out Outputs
	if err := row.Scan(&out.RiskJSON, &out.Summary, &out.NegotiationEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Outputs{}, false, nil
		}
		return Outputs{}, false, err
	}
	return out, true, nil
}

// ListVendors returns distinct vendor names from indexed contracts, sorted.
func (s *DB) ListVendors() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT vendor_name FROM contracts
		WHERE vendor_name IS NOT NULL AND vendor_name != '' ORDER BY vendor_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vendors []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *DB) Close() error { return s.db.Close() }
