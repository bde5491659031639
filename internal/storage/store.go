package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"tradedesk/internal/models"
)

// Store persists completed runs keyed by (symbol, trade_date) and the
// append-only memory banks. It is the only component that touches the
// database file.
type Store struct {
	db *sql.DB
}

// RunRecord is a persisted, completed trading evaluation.
type RunRecord struct {
	Symbol    string
	TradeDate string
	Status    string
	Signal    string
	StateJSON string
	CreatedAt string
}

// MemoryRow is one persisted memory entry, in insertion order.
type MemoryRow struct {
	ID        int64
	Bank      string
	Situation string
	Advice    string
	Outcome   *float64
	Embedding []float64
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    symbol TEXT NOT NULL,
    trade_date TEXT NOT NULL,
    status TEXT NOT NULL,
    signal TEXT,
    state_json TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (symbol, trade_date)
);

CREATE TABLE IF NOT EXISTS memory_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    bank TEXT NOT NULL,
    situation TEXT NOT NULL,
    advice TEXT NOT NULL,
    outcome REAL,
    embedding TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_memory_bank ON memory_entries(bank, id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveRun persists a finished state. Re-running the same (symbol, date)
// replaces the previous record.
func (s *Store) SaveRun(state *models.TradingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs (symbol, trade_date, status, signal, state_json) VALUES (?, ?, ?, ?, ?)`,
		state.CompanyOfInterest, state.TradeDate, string(state.Status), string(state.Signal), string(data),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// LoadRun restores a persisted state by key, or sql.ErrNoRows.
func (s *Store) LoadRun(symbol, tradeDate string) (*models.TradingState, error) {
	var stateJSON string
	err := s.db.QueryRow(
		`SELECT state_json FROM runs WHERE symbol = ? AND trade_date = ?`,
		symbol, tradeDate,
	).Scan(&stateJSON)
	if err != nil {
		return nil, err
	}
	var state models.TradingState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

// ListRuns returns the persisted run summaries, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT symbol, trade_date, status, signal, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.Symbol, &r.TradeDate, &r.Status, &r.Signal, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendMemory appends one entry to a bank and returns its rowid. Entries
// are never updated in place; corrections are new entries.
func (s *Store) AppendMemory(row MemoryRow) (int64, error) {
	emb, err := json.Marshal(row.Embedding)
	if err != nil {
		return 0, fmt.Errorf("marshal embedding: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO memory_entries (bank, situation, advice, outcome, embedding) VALUES (?, ?, ?, ?, ?)`,
		row.Bank, row.Situation, row.Advice, row.Outcome, string(emb),
	)
	if err != nil {
		return 0, fmt.Errorf("append memory: %w", err)
	}
	return res.LastInsertId()
}

// LoadMemories returns a bank's entries in insertion order.
func (s *Store) LoadMemories(bank string) ([]MemoryRow, error) {
	rows, err := s.db.Query(
		`SELECT id, bank, situation, advice, outcome, embedding FROM memory_entries WHERE bank = ? ORDER BY id ASC`,
		bank,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MemoryRow
	for rows.Next() {
		var r MemoryRow
		var emb string
		if err := rows.Scan(&r.ID, &r.Bank, &r.Situation, &r.Advice, &r.Outcome, &emb); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(emb), &r.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
