// Package store is the entitlement collaborator: usage counters,
// single-use activation codes and ratings, keyed by an opaque
// client-local identity. The core pipeline knows nothing about quotas;
// the server consults this store before invoking it.
package store

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"qiankun/internal/types"
)

// ErrInvalidCode is returned when an activation code is unknown or
// already spent.
var ErrInvalidCode = errors.New("invalid activation code")

// CodePrefix is the fixed literal every activation code starts with.
const CodePrefix = "TK-"

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const codeSuffixLen = 6

// Store wraps the SQLite entitlement database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the entitlement database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage (
		client_id    TEXT PRIMARY KEY,
		count        INTEGER NOT NULL DEFAULT 0,
		activated    INTEGER NOT NULL DEFAULT 0,
		extra_trials INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS codes (
		code         TEXT PRIMARY KEY,
		used         INTEGER NOT NULL DEFAULT 0,
		generated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ratings (
		client_id TEXT PRIMARY KEY,
		rating    INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetUsage returns the usage state for a client; unknown clients get
// the zero state.
func (s *Store) GetUsage(clientID string) (types.UsageState, error) {
	var state types.UsageState
	var activated int
	err := s.db.QueryRow(
		`SELECT count, activated, extra_trials FROM usage WHERE client_id = ?`, clientID,
	).Scan(&state.Count, &activated, &state.ExtraTrials)
	if errors.Is(err, sql.ErrNoRows) {
		return types.UsageState{}, nil
	}
	if err != nil {
		return types.UsageState{}, fmt.Errorf("failed to load usage: %w", err)
	}
	state.Activated = activated != 0
	return state, nil
}

// IncrementUsage counts one reading against the client. Activated
// clients are not counted.
func (s *Store) IncrementUsage(clientID string) (types.UsageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.GetUsage(clientID)
	if err != nil {
		return types.UsageState{}, err
	}
	if state.Activated {
		return state, nil
	}

	state.Count++
	if err := s.upsertUsage(clientID, state); err != nil {
		return types.UsageState{}, err
	}
	return state, nil
}

// AddExtraTrial grants one bonus reading (the share reward).
func (s *Store) AddExtraTrial(clientID string) (types.UsageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.GetUsage(clientID)
	if err != nil {
		return types.UsageState{}, err
	}
	state.ExtraTrials++
	if err := s.upsertUsage(clientID, state); err != nil {
		return types.UsageState{}, err
	}
	return state, nil
}

func (s *Store) upsertUsage(clientID string, state types.UsageState) error {
	activated := 0
	if state.Activated {
		activated = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO usage (client_id, count, activated, extra_trials) VALUES (?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET count = excluded.count, activated = excluded.activated, extra_trials = excluded.extra_trials`,
		clientID, state.Count, activated, state.ExtraTrials)
	if err != nil {
		return fmt.Errorf("failed to save usage: %w", err)
	}
	return nil
}

// GenerateCodes mints n fresh activation codes.
func (s *Store) GenerateCodes(n int) ([]types.ActivationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	codes := make([]types.ActivationCode, 0, n)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < n; i++ {
		code, err := randomCode()
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO codes (code, used, generated_at) VALUES (?, 0, ?)`, code, now); err != nil {
			return nil, fmt.Errorf("failed to insert code: %w", err)
		}
		codes = append(codes, types.ActivationCode{Code: code, GeneratedAt: now})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit codes: %w", err)
	}
	return codes, nil
}

// randomCode draws a TK-XXXXXX code from crypto randomness; the code is
// an opaque token, not derived from anything. Bytes at or above the
// largest multiple of the alphabet size are rejected so every symbol is
// drawn uniformly.
func randomCode() (string, error) {
	const limit = byte(len(codeAlphabet) * (256 / len(codeAlphabet)))

	suffix := make([]byte, 0, codeSuffixLen)
	buf := make([]byte, codeSuffixLen)
	for len(suffix) < codeSuffixLen {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to draw code: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			suffix = append(suffix, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(suffix) == codeSuffixLen {
				break
			}
		}
	}
	return CodePrefix + string(suffix), nil
}

// ListCodes returns all codes, newest first.
func (s *Store) ListCodes() ([]types.ActivationCode, error) {
	rows, err := s.db.Query(`SELECT code, used, generated_at FROM codes ORDER BY generated_at DESC, code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	defer rows.Close()

	var codes []types.ActivationCode
	for rows.Next() {
		var c types.ActivationCode
		var used int
		if err := rows.Scan(&c.Code, &used, &c.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		c.Used = used != 0
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// Activate spends a code for a client: the code becomes used and the
// client becomes activated, atomically. Unknown or spent codes return
// ErrInvalidCode.
func (s *Store) Activate(clientID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE codes SET used = 1 WHERE code = ? AND used = 0`, code)
	if err != nil {
		return fmt.Errorf("failed to spend code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check code: %w", err)
	}
	if affected == 0 {
		return ErrInvalidCode
	}

	if _, err := tx.Exec(`
		INSERT INTO usage (client_id, count, activated, extra_trials) VALUES (?, 0, 1, 0)
		ON CONFLICT(client_id) DO UPDATE SET activated = 1`, clientID); err != nil {
		return fmt.Errorf("failed to activate client: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}

// SaveRating stores the client's latest rating, replacing any earlier one.
func (s *Store) SaveRating(clientID string, rating int) error {
	_, err := s.db.Exec(`
		INSERT INTO ratings (client_id, rating) VALUES (?, ?)
		ON CONFLICT(client_id) DO UPDATE SET rating = excluded.rating`, clientID, rating)
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// GetRating returns the client's rating, zero when absent.
func (s *Store) GetRating(clientID string) (int, error) {
	var rating int
	err := s.db.QueryRow(`SELECT rating FROM ratings WHERE client_id = ?`, clientID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load rating: %w", err)
	}
	return rating, nil
}
