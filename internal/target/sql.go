package target

import (
	"database/sql"
	"fmt"
)

// SQLTarget persists the artifact as a row in a relational table,
// identified by a key column, with the byte payload in a data column.
// The table is created on first use. The *sql.DB is shared across
// handles and provides its own synchronization; each operation acquires
// what it needs per call and holds nothing between calls.
type SQLTarget struct {
	db    *sql.DB
	Table string
	Key   string
}

// NewSQLTarget returns a target addressing the row in table with the
// given key.
func NewSQLTarget(db *sql.DB, table, key string) *SQLTarget {
	return &SQLTarget{db: db, Table: table, Key: key}
}

func (t *SQLTarget) ensureTable() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %q (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, t.Table)
	if _, err := t.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure table %s: %w", t.Table, err)
	}
	return nil
}

// Read returns the row's payload. Fails if no row exists for the key.
func (t *SQLTarget) Read() ([]byte, error) {
	if err := t.ensureTable(); err != nil {
		return nil, err
	}
	var data []byte
	query := fmt.Sprintf("SELECT data FROM %q WHERE key = ?", t.Table)
	if err := t.db.QueryRow(query, t.Key).Scan(&data); err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", t.Table, t.Key, err)
	}
	return data, nil
}

// Write upserts the row's payload.
func (t *SQLTarget) Write(data []byte) error {
	if err := t.ensureTable(); err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %q (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)", t.Table)
	if _, err := t.db.Exec(query, t.Key, data); err != nil {
		return fmt.Errorf("write %s/%s: %w", t.Table, t.Key, err)
	}
	return nil
}

// Delete removes the row if present; absence is not an error.
func (t *SQLTarget) Delete() error {
	if err := t.ensureTable(); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %q WHERE key = ?", t.Table)
	if _, err := t.db.Exec(query, t.Key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t.Table, t.Key, err)
	}
	return nil
}

// Exists reports whether a row is present for the key.
func (t *SQLTarget) Exists() (bool, error) {
	if err := t.ensureTable(); err != nil {
		return false, err
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(1) FROM %q WHERE key = ?", t.Table)
	if err := t.db.QueryRow(query, t.Key).Scan(&count); err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", t.Table, t.Key, err)
	}
	return count > 0, nil
}
