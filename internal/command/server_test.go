package command

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adamavenir/tangent/internal/types"
)

// fakeAPI is an in-memory conversation server. Replies are written
// synchronously as "echo: <content>".
type fakeAPI struct {
	mu       sync.Mutex
	next     int
	order    []string
	threads  map[string]types.Thread
	messages map[string][]types.Message
}

// newTestServer starts a fake server and points the CLI at it with a
// throwaway data directory.
func newTestServer(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		threads:  make(map[string]types.Thread),
		messages: make(map[string][]types.Message),
	}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	t.Setenv("TANGENT_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("TANGENT_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("TANGENT_SERVER_URL", server.URL)
	t.Setenv("TANGENT_POLL_INTERVAL", "1ms")
	t.Setenv("TANGENT_POLL_ATTEMPTS", "2000")
	t.Setenv("TANGENT_TOKEN", "")
	return api
}

func (f *fakeAPI) seedRoot(title string) types.Thread {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread := f.newThreadLocked(types.ThreadCreate{})
	thread.Title = &title
	f.threads[thread.ID] = thread
	return thread
}

func (f *fakeAPI) newThreadLocked(req types.ThreadCreate) types.Thread {
	f.next++
	id := fmt.Sprintf("t%d", f.next)
	thread := types.Thread{
		ID:        id,
		RootID:    id,
		Type:      types.ThreadTypeRoot,
		CreatedAt: types.NewTimestamp(time.Now().Add(-time.Hour)),
	}
	if req.ParentThreadID != nil {
		parent := f.threads[*req.ParentThreadID]
		thread.ParentThreadID = req.ParentThreadID
		thread.RootID = parent.RootID
		thread.Depth = parent.Depth + 1
		thread.BranchFromMessageID = req.BranchFromMessageID
		thread.BranchContextText = req.BranchContextText
		thread.BranchTextStartOffset = req.BranchTextStartOffset
		thread.BranchTextEndOffset = req.BranchTextEndOffset
		thread.IsFork = req.IsFork
		thread.Type = types.ThreadTypeBranch
		if req.IsFork {
			thread.Type = types.ThreadTypeFork
		}
	}
	f.threads[id] = thread
	f.order = append(f.order, id)
	return thread
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "threads" && r.Method == http.MethodGet:
		roots := []types.Thread{}
		for _, id := range f.order {
			if thread, ok := f.threads[id]; ok && thread.ParentThreadID == nil {
				roots = append(roots, thread)
			}
		}
		writeJSON(w, roots)
	case len(parts) == 1 && parts[0] == "threads" && r.Method == http.MethodPost:
		var req types.ThreadCreate
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ParentThreadID != nil {
			if _, ok := f.threads[*req.ParentThreadID]; !ok {
				http.Error(w, `{"detail":"parent not found"}`, http.StatusNotFound)
				return
			}
		}
		thread := f.newThreadLocked(req)
		f.attachLocked(thread)
		writeJSON(w, thread)
	case len(parts) >= 2 && parts[0] == "threads":
		id := parts[1]
		thread, ok := f.threads[id]
		if !ok {
			http.Error(w, `{"detail":"thread not found"}`, http.StatusNotFound)
			return
		}
		suffix := strings.Join(parts[2:], "/")
		switch {
		case suffix == "" && r.Method == http.MethodGet:
			writeJSON(w, thread)
		case suffix == "" && r.Method == http.MethodPatch:
			var req types.ThreadUpdate
			_ = json.NewDecoder(r.Body).Decode(&req)
			thread.Title = req.Title
			f.threads[id] = thread
			writeJSON(w, thread)
		case suffix == "" && r.Method == http.MethodDelete:
			f.deleteLocked(id)
			w.WriteHeader(http.StatusNoContent)
		case suffix == "children":
			children := []types.Thread{}
			for _, cid := range f.order {
				if child, ok := f.threads[cid]; ok && child.ParentID() == id {
					children = append(children, child)
				}
			}
			writeJSON(w, children)
		case suffix == "messages" && r.Method == http.MethodGet:
			messages := f.messages[id]
			if messages == nil {
				messages = []types.Message{}
			}
			writeJSON(w, types.ThreadMessages{ThreadInfo: thread, Messages: messages})
		case suffix == "messages" && r.Method == http.MethodPost:
			var req types.MessageCreate
			_ = json.NewDecoder(r.Body).Decode(&req)
			user := f.appendLocked(id, types.RoleUser, req.Content)
			f.appendLocked(id, types.RoleAssistant, "echo: "+req.Content)
			writeJSON(w, user)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (f *fakeAPI) appendLocked(threadID string, role types.Role, content string) types.Message {
	messages := f.messages[threadID]
	msg := types.Message{
		ID:        fmt.Sprintf("%s-m%d", threadID, len(messages)+1),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		Sequence:  len(messages) + 1,
		Timestamp: types.NewTimestamp(time.Now()),
	}
	f.messages[threadID] = append(messages, msg)
	return msg
}

// attachLocked records a new child on the message it came from and copies
// history into forks.
func (f *fakeAPI) attachLocked(thread types.Thread) {
	if thread.ParentThreadID == nil || thread.BranchFromMessageID == nil {
		return
	}
	parent := f.messages[*thread.ParentThreadID]
	for i := range parent {
		if parent[i].ID != *thread.BranchFromMessageID {
			continue
		}
		if thread.IsFork {
			parent[i].HasForks = true
			parent[i].Forks = append(parent[i].Forks, types.ForkInfo{ThreadID: thread.ID})
			for _, msg := range parent[:i+1] {
				f.appendLocked(thread.ID, msg.Role, msg.Content)
			}
			return
		}
		parent[i].HasBranches = true
		parent[i].BranchCount++
		parent[i].Branches = append(parent[i].Branches, types.BranchInfo{
			ThreadID:              thread.ID,
			BranchContextText:     thread.BranchContextText,
			BranchTextStartOffset: thread.BranchTextStartOffset,
			BranchTextEndOffset:   thread.BranchTextEndOffset,
		})
		return
	}
}

func (f *fakeAPI) deleteLocked(id string) {
	for cid, child := range f.threads {
		if child.ParentID() == id {
			f.deleteLocked(cid)
		}
	}
	thread := f.threads[id]
	delete(f.threads, id)
	delete(f.messages, id)
	parent := f.messages[thread.ParentID()]
	for i := range parent {
		var kept []types.BranchInfo
		for _, branch := range parent[i].Branches {
			if branch.ThreadID != id {
				kept = append(kept, branch)
			}
		}
		parent[i].Branches = kept
		parent[i].BranchCount = len(kept)
		parent[i].HasBranches = len(kept) > 0
	}
}

func (f *fakeAPI) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.threads[id]
	return ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
