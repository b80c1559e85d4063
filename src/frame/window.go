package frame

// Window determines which frames are safe to disclose to other players. A
// fingerprint may only be reported for a frame that is already final on every
// peer; otherwise a later rollback could recompute the frame locally and
// contradict a report we already shipped.
type Window struct {
	// Confirmed is the last frame whose remote inputs will not change.
	Confirmed Frame

	// MaxPrediction is the size of the prediction/rollback horizon. No peer
	// can roll back further than this many frames.
	MaxPrediction int
}

// NewWindow returns a Window for the given confirmed frame and prediction
// horizon.
func NewWindow(confirmed Frame, maxPrediction int) Window {
	return Window{
		Confirmed:     confirmed,
		MaxPrediction: maxPrediction,
	}
}

// IsConfirmed returns true if f's inputs are final according to the
// synchronization layer.
func (w Window) IsConfirmed(f Frame) bool {
	return f <= w.Confirmed
}

// IsReportable returns true if f is old enough to be outside the active
// prediction window of every peer, making its fingerprint safe to disclose.
func (w Window) IsReportable(f Frame) bool {
	return f < w.Confirmed-Frame(w.MaxPrediction)
}
