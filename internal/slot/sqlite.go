package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/cinesuite/internal/checksum"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Slot backed by a SQLite database file.
type SQLite struct {
	conn *sql.DB
}

var _ Slot = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("slot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("slot: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("slot: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// DB exposes the connection so other tables can share the file.
func (s *SQLite) DB() *sql.DB { return s.conn }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Load implements Slot. A row whose checksum does not match its value is
// treated as absent.
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		sum   string
	)
	err := s.conn.QueryRowContext(ctx, `SELECT value, checksum FROM kv WHERE key = ?`, key).Scan(&value, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("slot: load %s: %w", key, err)
	}
	if !checksum.Verify(value, sum) {
		return nil, false, nil
	}
	return value, true, nil
}

// Save implements Slot.
func (s *SQLite) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO kv (key, value, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, key, data, checksum.Sum(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("slot: save %s: %w", key, err)
	}
	return nil
}
