package types

// ThreadCreate is the body of POST /threads.
type ThreadCreate struct {
	ParentThreadID        *string `json:"parent_thread_id,omitempty"`
	BranchFromMessageID   *string `json:"branch_from_message_id,omitempty"`
	BranchContextText     *string `json:"branch_context_text,omitempty"`
	BranchTextStartOffset *int    `json:"branch_text_start_offset,omitempty"`
	BranchTextEndOffset   *int    `json:"branch_text_end_offset,omitempty"`
	IsFork                bool    `json:"is_fork,omitempty"`
	Title                 *string `json:"title,omitempty"`
}

// ThreadUpdate is the body of PATCH /threads/{id}.
type ThreadUpdate struct {
	Title *string `json:"title,omitempty"`
}

// MessageCreate is the body of POST /threads/{id}/messages.
type MessageCreate struct {
	Content    string  `json:"content"`
	Background bool    `json:"background"`
	Provider   *string `json:"provider,omitempty"`
	Model      *string `json:"model,omitempty"`
}

// ThreadMessages is the response of GET /threads/{id}/messages.
type ThreadMessages struct {
	ThreadInfo Thread    `json:"thread_info"`
	Messages   []Message `json:"messages"`
}

// PendingBranch describes a branch the user started but has not sent into yet.
type PendingBranch struct {
	ParentThreadID string
	MessageID      string
	ContextText    *string
	StartOffset    *int
	EndOffset      *int
}

// Create converts the pending branch into a creation request.
func (p PendingBranch) Create() ThreadCreate {
	parent := p.ParentThreadID
	message := p.MessageID
	return ThreadCreate{
		ParentThreadID:        &parent,
		BranchFromMessageID:   &message,
		BranchContextText:     p.ContextText,
		BranchTextStartOffset: p.StartOffset,
		BranchTextEndOffset:   p.EndOffset,
	}
}

// ConfigEntry represents a key/value config row.
type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Draft is unsent input kept for a thread.
type Draft struct {
	ThreadKey string `json:"thread_key"`
	Content   string `json:"content"`
	UpdatedAt int64  `json:"updated_at"`
}
