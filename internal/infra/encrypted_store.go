package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

const (
	storeDBName = "appgate.db"

	// busyTimeoutMs lets the foreground and the monitoring context wait for
	// each other's short write transactions instead of failing with SQLITE_BUSY.
	busyTimeoutMs = 5000
)

// EncryptedStore implements domain.Store using a SQLCipher encrypted SQLite database.
// The database file is the only channel between the two execution contexts.
type EncryptedStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedStore opens (or creates) the encrypted store database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedStore(dataDir string, key []byte) (*EncryptedStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, storeDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}
	// One connection per process keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)

	// Verify encryption works by running a query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &EncryptedStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates the schema if it doesn't exist.
func (s *EncryptedStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		log_key TEXT NOT NULL,
		record BLOB NOT NULL,
		appended_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_event_log_key ON event_log (log_key, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *EncryptedStore) Path() string {
	return s.dbPath
}

// --- domain.SharedStore implementation ---

// Get returns the value stored under key.
func (s *EncryptedStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set replaces the value in a single statement.
func (s *EncryptedStore) Set(key string, value []byte) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UnixNano())
	return err
}

// SetIfAbsent inserts the key unless a row already holds it.
func (s *EncryptedStore) SetIfAbsent(key string, value []byte) (bool, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Remove deletes the key.
func (s *EncryptedStore) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// --- domain.EventLog implementation ---

// Append adds one record to the named log.
func (s *EncryptedStore) Append(log string, record []byte) error {
	_, err := s.db.Exec(`INSERT INTO event_log (log_key, record, appended_at) VALUES (?, ?, ?)`,
		log, record, time.Now().UnixNano())
	return err
}

// Entries returns all records of the named log in append order.
func (s *EncryptedStore) Entries(log string) ([][]byte, error) {
	rows, err := s.db.Query(`SELECT record FROM event_log WHERE log_key = ? ORDER BY seq`, log)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (s *EncryptedStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure EncryptedStore implements domain.Store.
var _ domain.Store = (*EncryptedStore)(nil)
