package command

import (
	"bytes"
	"strings"
	"testing"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/types"
)

func TestResolveMessage(t *testing.T) {
	messages := []types.Message{
		{ID: "msg-aaa1", Sequence: 1},
		{ID: "msg-bbb2", Sequence: 2},
		{ID: "msg-bbb3", Sequence: 3},
	}
	cases := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "#2", want: "msg-bbb2"},
		{ref: "3", want: "msg-bbb3"},
		{ref: "msg-aaa1", want: "msg-aaa1"},
		{ref: "msg-a", want: "msg-aaa1"},
		{ref: "msg-b", wantErr: true},
		{ref: "#0", wantErr: true},
		{ref: "#4", wantErr: true},
		{ref: "", wantErr: true},
		{ref: "nope", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			msg, err := resolveMessage(messages, tc.ref)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", msg.ID)
				}
				return
			}
			if err != nil || msg.ID != tc.want {
				t.Fatalf("got %s, %v want %s", msg.ID, err, tc.want)
			}
		})
	}
}

func TestMarkAnchors(t *testing.T) {
	content := "The sky is blue."
	anchors := []anchor.Anchor{
		{ID: "b1", Start: 4, End: 7},
		{ID: "b2", Start: 4, End: 15},
	}
	got := markAnchors(content, anchors)
	want := "The [sky]^1,2[ is blue]^2."
	if got != want {
		t.Fatalf("markAnchors: got %q want %q", got, want)
	}
	if got := markAnchors(content, nil); got != content {
		t.Fatalf("markAnchors without anchors: got %q", got)
	}
}

func TestFilterThreads(t *testing.T) {
	title := func(s string) *string { return &s }
	threads := []types.Thread{
		{ID: "a", Title: title("Sky colors")},
		{ID: "b", Title: title("Deep ocean")},
		{ID: "c"},
	}
	cases := []struct {
		pattern string
		want    []string
	}{
		{pattern: "", want: []string{"a", "b", "c"}},
		{pattern: "sky*", want: []string{"a"}},
		{pattern: "*OCEAN", want: []string{"b"}},
		{pattern: "untitled*", want: []string{"c"}},
		{pattern: "zzz", want: nil},
	}
	for _, tc := range cases {
		got, err := filterThreads(threads, tc.pattern)
		if err != nil {
			t.Fatalf("%q: %v", tc.pattern, err)
		}
		var ids []string
		for _, thread := range got {
			ids = append(ids, thread.ID)
		}
		if strings.Join(ids, ",") != strings.Join(tc.want, ",") {
			t.Fatalf("%q: got %v want %v", tc.pattern, ids, tc.want)
		}
	}
}

func TestPromptYesNo(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got, err := promptYesNo(strings.NewReader(tc.input), &out, "Delete?")
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %v, %v want %v", tc.input, got, err, tc.want)
		}
		if !strings.Contains(out.String(), "Delete? [y/N]") {
			t.Fatalf("prompt not written: %q", out.String())
		}
	}
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	newTestServer(t)
	cmd := NewRootCmd("test")
	if err := cmd.ParseFlags([]string{"--server", "http://example.test:9000", "--debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ServerURL != "http://example.test:9000" || !cfg.Debug {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.PollInterval.String() != "1ms" {
		t.Fatalf("environment not applied: poll interval %s", cfg.PollInterval)
	}
}
