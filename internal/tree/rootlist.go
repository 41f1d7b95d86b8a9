package tree

import (
	"sync"

	"github.com/adamavenir/tangent/internal/types"
)

// RootList is the sidebar's list of root threads, newest first. Updates are
// merged by id so that an in-flight reply never reorders or drops entries.
type RootList struct {
	mu      sync.RWMutex
	threads []types.Thread
}

// NewRootList returns an empty list.
func NewRootList() *RootList {
	return &RootList{}
}

// Replace swaps in a full server listing.
func (r *RootList) Replace(threads []types.Thread) {
	next := make([]types.Thread, 0, len(threads))
	for _, thread := range threads {
		if thread.IsRoot() {
			next = append(next, thread)
		}
	}
	r.mu.Lock()
	r.threads = next
	r.mu.Unlock()
}

// Merge inserts a root thread that is not listed yet, or updates a listed one
// whose title changed. It reports whether the list changed.
func (r *RootList) Merge(thread types.Thread) bool {
	if !thread.IsRoot() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.threads {
		if existing.ID != thread.ID {
			continue
		}
		if titleOf(existing) == titleOf(thread) {
			return false
		}
		r.threads[i] = thread
		return true
	}
	r.threads = append([]types.Thread{thread}, r.threads...)
	return true
}

// Remove drops id from the list.
func (r *RootList) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.threads {
		if existing.ID == id {
			r.threads = append(r.threads[:i], r.threads[i+1:]...)
			return true
		}
	}
	return false
}

// Threads returns a copy of the list.
func (r *RootList) Threads() []types.Thread {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Thread, len(r.threads))
	copy(out, r.threads)
	return out
}

// Contains reports whether id is listed.
func (r *RootList) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, existing := range r.threads {
		if existing.ID == id {
			return true
		}
	}
	return false
}

func titleOf(thread types.Thread) string {
	if thread.Title == nil {
		return ""
	}
	return *thread.Title
}
