package types

import (
	"errors"
	"fmt"
	"strings"
)

// ThreadType represents how a thread relates to its parent.
type ThreadType string

const (
	ThreadTypeRoot   ThreadType = "root"
	ThreadTypeBranch ThreadType = "branch"
	ThreadTypeFork   ThreadType = "fork"
)

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TempIDPrefix marks client-only ids that the server never sees.
const TempIDPrefix = "temp-"

// IsTempID reports whether id was minted locally for an optimistic message.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Thread represents a conversation thread and its position in the tree.
type Thread struct {
	ID                    string     `json:"id"`
	ParentThreadID        *string    `json:"parent_thread_id,omitempty"`
	RootID                string     `json:"root_id"`
	Depth                 int        `json:"depth"`
	Type                  ThreadType `json:"thread_type,omitempty"`
	IsFork                bool       `json:"is_fork,omitempty"`
	BranchFromMessageID   *string    `json:"branch_from_message_id,omitempty"`
	BranchContextText     *string    `json:"branch_context_text,omitempty"`
	BranchTextStartOffset *int       `json:"branch_text_start_offset,omitempty"`
	BranchTextEndOffset   *int       `json:"branch_text_end_offset,omitempty"`
	Title                 *string    `json:"title,omitempty"`
	CreatedAt             Timestamp  `json:"created_at"`
}

// Kind returns the thread type, deriving it for servers that omit thread_type.
func (t Thread) Kind() ThreadType {
	if t.Type != "" {
		return t.Type
	}
	switch {
	case t.Depth == 0 && t.ParentThreadID == nil:
		return ThreadTypeRoot
	case t.IsFork:
		return ThreadTypeFork
	default:
		return ThreadTypeBranch
	}
}

// IsRoot reports whether the thread sits at the top of its tree.
func (t Thread) IsRoot() bool {
	return t.Kind() == ThreadTypeRoot
}

// ParentID returns the parent id or "" for roots.
func (t Thread) ParentID() string {
	if t.ParentThreadID == nil {
		return ""
	}
	return *t.ParentThreadID
}

// TitleOr returns the thread title or fallback when it has none yet.
func (t Thread) TitleOr(fallback string) string {
	if t.Title == nil || strings.TrimSpace(*t.Title) == "" {
		return fallback
	}
	return *t.Title
}

// Span returns the substring offsets of a branch anchor.
func (t Thread) Span() (start, end int, ok bool) {
	if t.BranchTextStartOffset == nil || t.BranchTextEndOffset == nil {
		return 0, 0, false
	}
	return *t.BranchTextStartOffset, *t.BranchTextEndOffset, true
}

var (
	ErrRootShape   = errors.New("root thread must have depth 0 and no parent")
	ErrChildShape  = errors.New("child thread must have a parent and depth > 0")
	ErrBranchPoint = errors.New("branch and fork threads need branch_from_message_id")
	ErrBadSpan     = errors.New("branch offsets must satisfy 0 <= start < end")
)

// Validate checks the invariants that can be verified from the thread alone.
func (t Thread) Validate() error {
	kind := t.Kind()
	if kind == ThreadTypeRoot {
		if t.Depth != 0 || t.ParentThreadID != nil {
			return fmt.Errorf("thread %s: %w", t.ID, ErrRootShape)
		}
		if t.RootID != "" && t.RootID != t.ID {
			return fmt.Errorf("thread %s: root_id %s: %w", t.ID, t.RootID, ErrRootShape)
		}
		return nil
	}
	if t.ParentThreadID == nil || t.Depth < 1 {
		return fmt.Errorf("thread %s: %w", t.ID, ErrChildShape)
	}
	if t.BranchFromMessageID == nil {
		return fmt.Errorf("thread %s: %w", t.ID, ErrBranchPoint)
	}
	if start, end, ok := t.Span(); ok && (start < 0 || start >= end) {
		return fmt.Errorf("thread %s: [%d,%d): %w", t.ID, start, end, ErrBadSpan)
	}
	return nil
}

// BranchInfo summarizes a branch hanging off a message.
type BranchInfo struct {
	ThreadID              string  `json:"thread_id"`
	Title                 *string `json:"title,omitempty"`
	BranchContextText     *string `json:"branch_context_text,omitempty"`
	BranchTextStartOffset *int    `json:"branch_text_start_offset,omitempty"`
	BranchTextEndOffset   *int    `json:"branch_text_end_offset,omitempty"`
}

// Span returns the substring offsets; ok is false for message-level branches.
func (b BranchInfo) Span() (start, end int, ok bool) {
	if b.BranchTextStartOffset == nil || b.BranchTextEndOffset == nil {
		return 0, 0, false
	}
	return *b.BranchTextStartOffset, *b.BranchTextEndOffset, true
}

// Kind reports whether the branch is anchored to a substring or to the whole message.
func (b BranchInfo) Kind() AnchorKind {
	if _, _, ok := b.Span(); ok {
		return AnchorSubstring
	}
	return AnchorMessage
}

// ForkInfo summarizes a fork taken from a message.
type ForkInfo struct {
	ThreadID string  `json:"thread_id"`
	Title    *string `json:"title,omitempty"`
}

// AnchorKind distinguishes highlighted substring branches from whole-message branches.
type AnchorKind int

const (
	AnchorMessage AnchorKind = iota
	AnchorSubstring
)

func (k AnchorKind) String() string {
	if k == AnchorSubstring {
		return "substring"
	}
	return "message"
}

// Message represents a single turn in a thread.
type Message struct {
	ID          string       `json:"id"`
	ThreadID    string       `json:"thread_id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Sequence    int          `json:"sequence"`
	Timestamp   Timestamp    `json:"timestamp"`
	Model       *string      `json:"model,omitempty"`
	Provider    *string      `json:"provider,omitempty"`
	TokensUsed  *int         `json:"tokens_used,omitempty"`
	HasBranches bool         `json:"has_branches"`
	BranchCount int          `json:"branch_count"`
	Branches    []BranchInfo `json:"branches,omitempty"`
	HasForks    bool         `json:"has_forks,omitempty"`
	Forks       []ForkInfo   `json:"forks,omitempty"`

	// IsLoading marks the optimistic assistant placeholder.
	IsLoading bool `json:"-"`
}

// IsTemp reports whether the message only exists locally.
func (m Message) IsTemp() bool {
	return IsTempID(m.ID)
}

// ErrSequenceGap is returned when a message list is not numbered 1..n.
var ErrSequenceGap = errors.New("message sequence gap")

// CheckSequence verifies that messages are numbered 1, 2, ... n in order.
func CheckSequence(messages []Message) error {
	for i, msg := range messages {
		if msg.Sequence != i+1 {
			return fmt.Errorf("%w: position %d has sequence %d", ErrSequenceGap, i, msg.Sequence)
		}
	}
	return nil
}

// HasUserMessage reports whether any message was authored by the user.
// Local-only messages count when includeTemp is set.
func HasUserMessage(messages []Message, includeTemp bool) bool {
	for _, msg := range messages {
		if msg.Role == RoleUser && (includeTemp || !msg.IsTemp()) {
			return true
		}
	}
	return false
}

// FindMessage returns the index of the message with id, or -1.
func FindMessage(messages []Message, id string) int {
	for i, msg := range messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}
