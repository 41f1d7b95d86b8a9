package anchor

import (
	"iter"
	"slices"
)

// Segment is a maximal run of content covered by the same set of anchors.
type Segment struct {
	Start   int
	End     int
	Text    string
	Anchors []Anchor
}

// Highlighted reports whether any anchor covers the segment.
func (s Segment) Highlighted() bool {
	return len(s.Anchors) > 0
}

// Segments splits content at every anchor boundary. Each call to the
// returned sequence recomputes from scratch, so it can be ranged over
// more than once. Offsets are rune offsets.
func Segments(content string, anchors []Anchor) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		runes := []rune(content)
		n := len(runes)
		if n == 0 {
			return
		}

		bounds := []int{0, n}
		for _, a := range anchors {
			if a.Start >= a.End {
				continue
			}
			bounds = append(bounds, clamp(a.Start, n), clamp(a.End, n))
		}
		slices.Sort(bounds)
		bounds = slices.Compact(bounds)

		for i := 0; i+1 < len(bounds); i++ {
			start, end := bounds[i], bounds[i+1]
			seg := Segment{Start: start, End: end, Text: string(runes[start:end])}
			for _, a := range anchors {
				if a.Start < a.End && a.Start <= start && a.End >= end {
					seg.Anchors = append(seg.Anchors, a)
				}
			}
			if !yield(seg) {
				return
			}
		}
	}
}

// Collect materializes Segments.
func Collect(content string, anchors []Anchor) []Segment {
	return slices.Collect(Segments(content, anchors))
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
