package anchor

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/adamavenir/tangent/internal/types"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func anchorIDs(anchors []Anchor) string {
	ids := make([]string, len(anchors))
	for i, a := range anchors {
		ids[i] = a.ID
	}
	return strings.Join(ids, ",")
}

func TestSegmentsOverlappingAnchors(t *testing.T) {
	content := "The sky is blue"
	anchors := []Anchor{
		{ID: "A1", Start: 4, End: 7},
		{ID: "A2", Start: 4, End: 15},
	}

	segs := Collect(content, anchors)
	want := []struct {
		text    string
		anchors string
	}{
		{"The ", ""},
		{"sky", "A1,A2"},
		{" is blue", "A2"},
	}
	if len(segs) != len(want) {
		t.Fatalf("segments: got %d want %d (%+v)", len(segs), len(want), segs)
	}
	for i, w := range want {
		if segs[i].Text != w.text {
			t.Fatalf("segment %d text: got %q want %q", i, segs[i].Text, w.text)
		}
		if got := anchorIDs(segs[i].Anchors); got != w.anchors {
			t.Fatalf("segment %d anchors: got %q want %q", i, got, w.anchors)
		}
	}

	if click := Resolve(segs[1]); click.Action != ActionMenu || anchorIDs(click.Choices) != "A1,A2" {
		t.Fatalf("click on sky: got %+v", click)
	}
	if click := Resolve(segs[2]); click.Action != ActionNavigate || click.ThreadID != "A2" {
		t.Fatalf("click on is blue: got %+v", click)
	}
	if click := Resolve(segs[0]); click.Action != ActionNone {
		t.Fatalf("click on plain text: got %+v", click)
	}
}

func TestSegmentsKeepsOriginalAnchorOrder(t *testing.T) {
	anchors := []Anchor{
		{ID: "wide", Start: 0, End: 10},
		{ID: "narrow", Start: 2, End: 4},
	}
	for seg := range Segments("0123456789", anchors) {
		if seg.Start == 2 && anchorIDs(seg.Anchors) != "wide,narrow" {
			t.Fatalf("order: got %q", anchorIDs(seg.Anchors))
		}
	}
}

func TestSegmentsNoAnchors(t *testing.T) {
	segs := Collect("hello", nil)
	if len(segs) != 1 || segs[0].Text != "hello" || segs[0].Highlighted() {
		t.Fatalf("unexpected segments: %+v", segs)
	}
	if segs := Collect("", []Anchor{{ID: "a", Start: 0, End: 1}}); len(segs) != 0 {
		t.Fatalf("empty content: got %d segments", len(segs))
	}

	degenerate := []struct {
		name    string
		anchors []Anchor
	}{
		{"zero length", []Anchor{{ID: "z", Start: 4, End: 4}}},
		{"reversed", []Anchor{{ID: "r", Start: 7, End: 4}}},
	}
	for _, tc := range degenerate {
		segs := Collect("The sky is blue.", tc.anchors)
		if len(segs) != 1 || segs[0].Text != "The sky is blue." || segs[0].Highlighted() {
			t.Fatalf("%s: got %+v want one plain segment", tc.name, segs)
		}
	}
}

func TestSegmentsRestartableAndStoppable(t *testing.T) {
	seq := Segments("The sky is blue", []Anchor{{ID: "a", Start: 4, End: 7}})
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 3 || second != 3 {
		t.Fatalf("restart: got %d then %d", first, second)
	}
	seen := 0
	for range seq {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("early stop: got %d", seen)
	}
}

func TestSegmentsRuneOffsets(t *testing.T) {
	content := "héllo wörld"
	a, err := New("b", 6, 11, "world", "", utf8.RuneCountInString(content))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	segs := Collect(content, []Anchor{a})
	if len(segs) != 2 || segs[1].Text != "wörld" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestSegmentsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(40)
		content := strings.Repeat("ab", n)[:n]
		var anchors []Anchor
		for i := 0; i < rng.Intn(6); i++ {
			start := rng.Intn(n)
			end := start + 1 + rng.Intn(n-start)
			anchors = append(anchors, Anchor{ID: string(rune('A' + i)), Start: start, End: end})
		}

		segs := Collect(content, anchors)
		var joined strings.Builder
		pos := 0
		for _, seg := range segs {
			if seg.Start != pos || seg.End <= seg.Start {
				t.Fatalf("iter %d: segment [%d,%d) does not continue at %d", iter, seg.Start, seg.End, pos)
			}
			pos = seg.End
			joined.WriteString(seg.Text)

			for i := seg.Start; i < seg.End; i++ {
				var want []Anchor
				for _, a := range anchors {
					if a.Start <= i && i < a.End {
						want = append(want, a)
					}
				}
				if anchorIDs(want) != anchorIDs(seg.Anchors) {
					t.Fatalf("iter %d offset %d: got %q want %q", iter, i, anchorIDs(seg.Anchors), anchorIDs(want))
				}
			}
		}
		if joined.String() != content {
			t.Fatalf("iter %d: round trip got %q want %q", iter, joined.String(), content)
		}
	}
}

func TestNewRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
		want       error
	}{
		{"empty", 3, 3, ErrEmptyRange},
		{"reversed", 5, 2, ErrReversedRange},
		{"negative", -1, 2, ErrOutOfBounds},
		{"past end", 2, 20, ErrOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("b", tc.start, tc.end, "", "", 10)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error: got %v want %v", err, tc.want)
			}
		})
	}
	if _, err := New("b", 0, 10, "", "", 10); err != nil {
		t.Fatalf("full range: %v", err)
	}
}

func TestFromBranches(t *testing.T) {
	content := "The sky is blue"
	branches := []types.BranchInfo{
		{ThreadID: "whole"},
		{ThreadID: "sky", Title: strPtr("Sky"), BranchTextStartOffset: intPtr(4), BranchTextEndOffset: intPtr(7)},
		{ThreadID: "broken", BranchTextStartOffset: intPtr(10), BranchTextEndOffset: intPtr(99)},
		{ThreadID: "untitled", BranchTextStartOffset: intPtr(0), BranchTextEndOffset: intPtr(3)},
	}
	anchors := FromBranches(branches, content)
	if anchorIDs(anchors) != "sky,untitled" {
		t.Fatalf("anchors: got %q", anchorIDs(anchors))
	}
	if anchors[0].Label != "Sky" || anchors[1].Label != "Branch" {
		t.Fatalf("labels: got %q, %q", anchors[0].Label, anchors[1].Label)
	}
	if level := MessageLevel(branches); len(level) != 1 || level[0].ThreadID != "whole" {
		t.Fatalf("message level: got %+v", level)
	}
}

func TestLocate(t *testing.T) {
	content := "blue sky, blue sea, ünïcode blue"
	start, end, err := Locate(content, "blue", 1)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if Slice(content, start, end) != "blue" || start != 10 {
		t.Fatalf("second occurrence: got [%d,%d)", start, end)
	}
	start, end, err = Locate(content, "blue", 2)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if start != 28 || end != 32 {
		t.Fatalf("rune offsets: got [%d,%d) want [28,32)", start, end)
	}
	if _, _, err := Locate(content, "green", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v", err)
	}
}
