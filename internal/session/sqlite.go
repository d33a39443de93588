package session

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyCSRFToken     = "csrf_token"
	keySessionCookie = "session_cookie"
	keyNotice        = "notice"
)

// SQLiteStore is a SQLite implementation of Store. State survives a process
// restart, which is the CLI analogue of a browser session persisting across
// reloads. All values are loaded at open so reads never touch the database.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the session database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &SQLiteStore{db: db, values: make(map[string]string)}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.loadAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS session_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) loadAll() error {
	rows, err := s.db.Query(`SELECT key, value FROM session_state`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		s.values[key] = value
	}
	return rows.Err()
}

func (s *SQLiteStore) get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *SQLiteStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	s.values[key] = value
	return nil
}

func (s *SQLiteStore) delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM session_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	delete(s.values, key)
	return nil
}

func (s *SQLiteStore) CSRFToken() string {
	return s.get(keyCSRFToken)
}

func (s *SQLiteStore) SetCSRFToken(token string) error {
	return s.set(keyCSRFToken, token)
}

func (s *SQLiteStore) SessionCookie() string {
	return s.get(keySessionCookie)
}

func (s *SQLiteStore) SetSessionCookie(value string) error {
	return s.set(keySessionCookie, value)
}

func (s *SQLiteStore) SetNotice(n Notice) error {
	return s.set(keyNotice, string(n))
}

func (s *SQLiteStore) TakeNotice() (Notice, bool) {
	v := s.get(keyNotice)
	if v == "" {
		return "", false
	}
	if err := s.delete(keyNotice); err != nil {
		return "", false
	}
	return Notice(v), true
}

func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM session_state`); err != nil {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	s.values = make(map[string]string)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
