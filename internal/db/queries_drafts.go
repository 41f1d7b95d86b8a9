package db

import (
	"database/sql"
	"time"

	"github.com/adamavenir/tangent/internal/types"
)

// SaveDraft stores unsent input for a thread. Saving blank content clears it.
func SaveDraft(db *sql.DB, threadKey, content string) error {
	if content == "" {
		return ClearDraft(db, threadKey)
	}
	_, err := db.Exec(`
		INSERT INTO tangent_drafts (thread_key, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(thread_key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, threadKey, content, time.Now().UnixMilli())
	return err
}

// GetDraft returns the draft for a thread, or nil.
func GetDraft(db *sql.DB, threadKey string) (*types.Draft, error) {
	row := db.QueryRow("SELECT thread_key, content, updated_at FROM tangent_drafts WHERE thread_key = ?", threadKey)
	var draft types.Draft
	if err := row.Scan(&draft.ThreadKey, &draft.Content, &draft.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

// ClearDraft removes a thread's draft.
func ClearDraft(db *sql.DB, threadKey string) error {
	_, err := db.Exec("DELETE FROM tangent_drafts WHERE thread_key = ?", threadKey)
	return err
}
