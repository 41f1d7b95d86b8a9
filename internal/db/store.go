package db

import (
	"database/sql"

	"github.com/adamavenir/tangent/internal/types"
)

// Store binds the query helpers to one connection.
type Store struct {
	DB *sql.DB
}

// NewStore wraps an open connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{DB: conn}
}

func (s *Store) SaveDraft(threadKey, content string) error {
	return SaveDraft(s.DB, threadKey, content)
}

func (s *Store) Draft(threadKey string) (string, error) {
	draft, err := GetDraft(s.DB, threadKey)
	if err != nil || draft == nil {
		return "", err
	}
	return draft.Content, nil
}

func (s *Store) ClearDraft(threadKey string) error {
	return ClearDraft(s.DB, threadKey)
}

func (s *Store) CachedRoots() ([]types.Thread, error) {
	return GetRootThreads(s.DB)
}

func (s *Store) CacheRoots(threads []types.Thread) error {
	return ReplaceRootThreads(s.DB, threads)
}

func (s *Store) CacheRoot(thread types.Thread) error {
	return UpsertRootThread(s.DB, thread)
}

func (s *Store) ForgetRoot(id string) error {
	return DeleteRootThread(s.DB, id)
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.DB.Close()
}
