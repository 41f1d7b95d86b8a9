package db

import (
	"database/sql"
	"time"

	"github.com/adamavenir/tangent/internal/types"
)

// ReplaceRootThreads swaps the cached root list for threads.
func ReplaceRootThreads(db *sql.DB, threads []types.Thread) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM tangent_root_threads"); err != nil {
		_ = tx.Rollback()
		return err
	}
	now := time.Now().UnixMilli()
	for _, thread := range threads {
		if err := upsertRootThread(tx, thread, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// UpsertRootThread caches or updates one root thread.
func UpsertRootThread(db *sql.DB, thread types.Thread) error {
	return upsertRootThread(db, thread, time.Now().UnixMilli())
}

func upsertRootThread(db DBTX, thread types.Thread, now int64) error {
	if !thread.IsRoot() {
		return nil
	}
	var created int64
	if !thread.CreatedAt.IsZero() {
		created = thread.CreatedAt.UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO tangent_root_threads (id, title, created_at, cached_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, cached_at = excluded.cached_at
	`, thread.ID, thread.Title, created, now)
	return err
}

// DeleteRootThread removes a cached root thread.
func DeleteRootThread(db *sql.DB, id string) error {
	_, err := db.Exec("DELETE FROM tangent_root_threads WHERE id = ?", id)
	return err
}

// GetRootThreads returns cached root threads, newest first.
func GetRootThreads(db *sql.DB) ([]types.Thread, error) {
	rows, err := db.Query("SELECT id, title, created_at FROM tangent_root_threads ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []types.Thread
	for rows.Next() {
		var (
			thread  types.Thread
			title   sql.NullString
			created int64
		)
		if err := rows.Scan(&thread.ID, &title, &created); err != nil {
			return nil, err
		}
		thread.RootID = thread.ID
		thread.Type = types.ThreadTypeRoot
		if title.Valid {
			value := title.String
			thread.Title = &value
		}
		if created > 0 {
			thread.CreatedAt = types.NewTimestamp(time.UnixMilli(created).UTC())
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return threads, nil
}
