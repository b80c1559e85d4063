package rollback

import (
	"github.com/rewindnet/rewind/src/frame"
)

// EnableAfter gates the physics simulation during the session warm-up window.
// While peers are still connecting and settling on a confirmed frame, input
// driven physics would immediately desync anyone who joined a few frames
// late, so the simulation is held inactive between Start and End.
type EnableAfter struct {
	Start frame.Frame
	End   frame.Frame
}

// NewEnableAfter returns a gate spanning [start, start+warmupFrames].
func NewEnableAfter(start frame.Frame, warmupFrames int) EnableAfter {
	return EnableAfter{
		Start: start,
		End:   start + frame.Frame(warmupFrames),
	}
}

// IsEnabled returns true when physics should run at frame f. The bounds are
// exclusive on both ends: the start frame itself counts as enabled, because a
// rollback to the start frame carries the gate created at the end of that
// frame and must not retroactively disable it.
func (e EnableAfter) IsEnabled(f frame.Frame) bool {
	return !(e.Start < f && f < e.End)
}
