package frame

// Frame identifies one simulation step. Frames increase monotonically from 0
// as the session advances. Negative values are reserved; Null is used on the
// wire to mean "no frame".
type Frame = int32

// Null is the reserved sentinel meaning "no frame". It is carried in input
// packets that have no fingerprint report attached.
const Null Frame = -1

// Cursor carries the frame counters supplied by the synchronization layer at
// every step: the frame currently being simulated, and the last frame whose
// remote inputs are final.
type Cursor struct {
	Current   Frame
	Confirmed Frame
}

// RollbackStatus is the per-step signal from the synchronization layer
// indicating whether the current step is a rollback replay, and if so, the
// frame being replayed from.
type RollbackStatus struct {
	InProgress bool
	Target     Frame
}
