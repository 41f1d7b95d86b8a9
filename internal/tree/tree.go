package tree

import (
	"sort"
	"sync"

	"github.com/adamavenir/tangent/internal/types"
)

// Tree is an arena of threads keyed by id. Parent and root links are id
// lookups, so a thread can be known before its ancestors are.
type Tree struct {
	mu      sync.RWMutex
	threads map[string]types.Thread
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{threads: make(map[string]types.Thread)}
}

// Put inserts or replaces a thread.
func (t *Tree) Put(thread types.Thread) {
	if thread.ID == "" {
		return
	}
	t.mu.Lock()
	t.threads[thread.ID] = thread
	t.mu.Unlock()
}

// PutAll inserts or replaces several threads.
func (t *Tree) PutAll(threads []types.Thread) {
	t.mu.Lock()
	for _, thread := range threads {
		if thread.ID != "" {
			t.threads[thread.ID] = thread
		}
	}
	t.mu.Unlock()
}

// Get returns the thread with id.
func (t *Tree) Get(id string) (types.Thread, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	thread, ok := t.threads[id]
	return thread, ok
}

// Len returns the number of known threads.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.threads)
}

// Children returns the known direct children of id, oldest first.
func (t *Tree) Children(id string) []types.Thread {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.childrenLocked(id)
}

func (t *Tree) childrenLocked(id string) []types.Thread {
	var out []types.Thread
	for _, thread := range t.threads {
		if thread.ParentID() == id && id != "" {
			out = append(out, thread)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt.Time)
	})
	return out
}

// Remove deletes id and every known descendant. It returns the removed ids.
func (t *Tree) Remove(id string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.threads[id]; !ok {
		return nil
	}
	removed := []string{id}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range t.childrenLocked(current) {
			removed = append(removed, child.ID)
			queue = append(queue, child.ID)
		}
	}
	for _, rid := range removed {
		delete(t.threads, rid)
	}
	return removed
}

// RootOf returns the root ancestor of id. When the chain is incomplete it
// falls back to the root_id recorded on the thread.
func (t *Tree) RootOf(id string) (types.Thread, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	thread, ok := t.threads[id]
	if !ok {
		return types.Thread{}, false
	}
	if thread.IsRoot() {
		return thread, true
	}
	if root, ok := t.threads[thread.RootID]; ok && thread.RootID != "" {
		return root, true
	}
	current := thread
	for steps := 0; steps <= len(t.threads); steps++ {
		parent, ok := t.threads[current.ParentID()]
		if !ok {
			return types.Thread{}, false
		}
		if parent.IsRoot() {
			return parent, true
		}
		current = parent
	}
	return types.Thread{}, false
}

// IsDescendantOf reports whether a sits strictly below b.
func (t *Tree) IsDescendantOf(a, b string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if a == b {
		return false
	}
	current, ok := t.threads[a]
	if !ok {
		return false
	}
	for steps := 0; steps <= len(t.threads); steps++ {
		parentID := current.ParentID()
		if parentID == "" {
			return false
		}
		if parentID == b {
			return true
		}
		current, ok = t.threads[parentID]
		if !ok {
			return false
		}
	}
	return false
}

// Path returns the chain from the outermost known ancestor down to id.
// Unknown ancestors truncate the chain rather than failing.
func (t *Tree) Path(id string) []types.Thread {
	t.mu.RLock()
	defer t.mu.RUnlock()
	current, ok := t.threads[id]
	if !ok {
		return nil
	}
	path := []types.Thread{current}
	for steps := 0; steps < len(t.threads); steps++ {
		parent, ok := t.threads[current.ParentID()]
		if !ok {
			break
		}
		path = append(path, parent)
		current = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
