package anchor

// Action is what a click on a segment should do.
type Action int

const (
	ActionNone Action = iota
	ActionNavigate
	ActionMenu
)

func (a Action) String() string {
	switch a {
	case ActionNavigate:
		return "navigate"
	case ActionMenu:
		return "menu"
	default:
		return "none"
	}
}

// Click is the resolved outcome of clicking a segment.
type Click struct {
	Action   Action
	ThreadID string
	Choices  []Anchor
}

// Resolve applies the click policy: plain text does nothing, a single
// covering anchor navigates, overlapping anchors ask the user to choose.
func Resolve(seg Segment) Click {
	switch len(seg.Anchors) {
	case 0:
		return Click{Action: ActionNone}
	case 1:
		return Click{Action: ActionNavigate, ThreadID: seg.Anchors[0].ID}
	default:
		choices := make([]Anchor, len(seg.Anchors))
		copy(choices, seg.Anchors)
		return Click{Action: ActionMenu, Choices: choices}
	}
}
