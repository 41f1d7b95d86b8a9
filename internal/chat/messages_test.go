package chat

import (
	"testing"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/charmbracelet/bubbles/spinner"
	zone "github.com/lrstanley/bubblezone"
)

func newRenderModel() *Model {
	return &Model{
		spinner:     spinner.New(),
		zoneManager: zone.New(),
		segments:    make(map[string]anchor.Segment),
		forkPoints:  make(map[string]int),
	}
}

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func TestRenderMessagesRegistersAnchorsAndIndicators(t *testing.T) {
	m := newRenderModel()
	messages := []types.Message{
		{ID: "m1", Role: types.RoleUser, Content: "Why is the sky blue?", Sequence: 1},
		{
			ID: "m2", Role: types.RoleAssistant, Content: "The sky is blue.", Sequence: 2,
			Branches: []types.BranchInfo{
				{ThreadID: "b1", Title: strp("Sky"), BranchTextStartOffset: intp(4), BranchTextEndOffset: intp(7)},
				{ThreadID: "b2", BranchTextStartOffset: intp(4), BranchTextEndOffset: intp(15)},
				{ThreadID: "b3", Title: strp("Whole")},
			},
			Forks: []types.ForkInfo{{ThreadID: "f1"}},
		},
	}

	m.renderMessages("t1", messages, 80)

	if len(m.segments) != 2 {
		t.Fatalf("segments: got %d want 2", len(m.segments))
	}
	overlapping := 0
	for _, seg := range m.segments {
		if len(seg.Anchors) == 2 {
			overlapping++
			if seg.Text != "sky" {
				t.Fatalf("overlap text: got %q want sky", seg.Text)
			}
		}
	}
	if overlapping != 1 {
		t.Fatalf("overlapping segments: got %d want 1", overlapping)
	}

	if len(m.indicators) != 4 {
		t.Fatalf("indicators: got %d want 4", len(m.indicators))
	}
	if m.indicators[1].Title != "Branch" {
		t.Fatalf("untitled branch label: got %q", m.indicators[1].Title)
	}
	if !m.indicators[3].Fork || m.indicators[3].Title != "Fork" {
		t.Fatalf("fork indicator: %+v", m.indicators[3])
	}
	for _, ind := range m.indicators {
		if ind.ParentID != "t1" {
			t.Fatalf("indicator parent: got %q want t1", ind.ParentID)
		}
	}
}

func TestRenderMessagesResetsZonesPerRender(t *testing.T) {
	m := newRenderModel()
	withAnchor := []types.Message{{
		ID: "m1", Role: types.RoleAssistant, Content: "blue",
		Branches: []types.BranchInfo{{ThreadID: "b1", BranchTextStartOffset: intp(0), BranchTextEndOffset: intp(4)}},
	}}
	m.renderMessages("t1", withAnchor, 40)
	if len(m.segments) != 1 {
		t.Fatalf("segments: got %d want 1", len(m.segments))
	}
	m.renderMessages("t2", []types.Message{{ID: "m9", Role: types.RoleUser, Content: "hi"}}, 40)
	if len(m.segments) != 0 || len(m.indicators) != 0 {
		t.Fatalf("stale zones kept: %d segments, %d indicators", len(m.segments), len(m.indicators))
	}
}

func TestLastReplySkipsPlaceholders(t *testing.T) {
	messages := []types.Message{
		{ID: "a1", Role: types.RoleAssistant, Content: "first"},
		{ID: "u1", Role: types.RoleUser, Content: "again"},
		{ID: types.TempIDPrefix + "x", Role: types.RoleAssistant, IsLoading: true},
	}
	reply, ok := lastReply(messages)
	if !ok || reply.ID != "a1" {
		t.Fatalf("lastReply: got %+v %v want a1", reply, ok)
	}
	if _, err := messageAt(messages, 4); err == nil {
		t.Fatalf("expected error for out of range message")
	}
}
