package db

import (
	"database/sql"
)

const schemaSQL = `
-- Client settings that outlive a session
CREATE TABLE IF NOT EXISTS tangent_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

-- Unsent input per thread, restored after a failed send or a restart
CREATE TABLE IF NOT EXISTS tangent_drafts (
  thread_key TEXT PRIMARY KEY,         -- thread id, or "pending:<parent>:<message>" for unsaved branches
  content TEXT NOT NULL,
  updated_at INTEGER NOT NULL          -- unix ms
);

-- Last known root threads, shown before the server answers
CREATE TABLE IF NOT EXISTS tangent_root_threads (
  id TEXT PRIMARY KEY,
  title TEXT,
  created_at INTEGER NOT NULL,         -- unix ms from the server
  cached_at INTEGER NOT NULL           -- unix ms
);

CREATE INDEX IF NOT EXISTS idx_tangent_root_threads_created ON tangent_root_threads(created_at);
`

const defaultConfigSQL = `
INSERT OR IGNORE INTO tangent_config (key, value) VALUES ('schema_version', '1');
`

// DBTX represents shared methods across sql.DB and sql.Tx.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InitSchema creates the local tables.
func InitSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := initSchemaWith(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func initSchemaWith(db DBTX) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}
	if _, err := db.Exec(defaultConfigSQL); err != nil {
		return err
	}
	return nil
}

// SchemaExists reports whether the local schema is present.
func SchemaExists(db *sql.DB) (bool, error) {
	row := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='tangent_drafts'
	`)
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
