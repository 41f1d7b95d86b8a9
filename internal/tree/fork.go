package tree

import "github.com/adamavenir/tangent/internal/types"

// ForkPointIndex returns the index in forkMessages of the last message copied
// from the parent, i.e. the one whose sequence matches the message the fork
// was taken from. It returns -1 when the thread is not a fork or when the
// anchor message cannot be found.
func ForkPointIndex(fork types.Thread, forkMessages, parentMessages []types.Message) int {
	if fork.Kind() != types.ThreadTypeFork || fork.BranchFromMessageID == nil {
		return -1
	}
	idx := types.FindMessage(parentMessages, *fork.BranchFromMessageID)
	if idx < 0 {
		return -1
	}
	seq := parentMessages[idx].Sequence
	found := -1
	for i, msg := range forkMessages {
		if msg.Sequence == seq {
			found = i
		}
	}
	return found
}
