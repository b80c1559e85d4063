// Package engine defines the boundary with the deterministic physics engine.
//
// The engine itself is external: rewind never steps bodies or resolves
// contacts. It only requires the engine to expose a deterministic,
// serializable view of the simulation state, so that the state can be
// snapshotted every frame and restored during rollback replays. The
// serialized subset must cover everything that participates in simulation
// (bodies, colliders, joints, islands, phase caches, integration parameters,
// query structures) and exclude transient execution machinery that the engine
// rebuilds on demand.
package engine

// World is the surface rewind requires from a deterministic physics engine.
//
// Implementations must guarantee that Snapshot/Restore round-trip the
// simulation-relevant state byte for byte: stepping a restored world must
// produce exactly the same states as stepping the original. Restore must be
// all-or-nothing: either every serializable field is overwritten from a fully
// decoded snapshot, or the world is left untouched and an error is returned.
type World interface {
	// Step advances the simulation by one fixed timestep.
	Step()

	// Snapshot serializes the simulation-relevant state.
	Snapshot() ([]byte, error)

	// Restore overwrites the simulation-relevant state from a buffer
	// previously produced by Snapshot. Engine-internal bookkeeping that is not
	// part of the snapshot must be preserved, not reset.
	Restore(snapshot []byte) error

	// SetActive toggles the simulation gate. While inactive, Step is a no-op
	// and input-driven mutation is suppressed.
	SetActive(active bool)

	// Active reports the simulation gate.
	Active() bool

	// Nudge applies an input-driven velocity change to the body controlled by
	// the given player handle. It must only mutate state when the requested
	// velocity actually differs, and only while the world is active.
	Nudge(handle int, dvx, dvy int32)

	// Aim records the cursor position reported by the given player handle.
	Aim(handle int, x, y int32, click bool)
}
