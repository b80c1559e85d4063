// Package dummy implements a reference deterministic physics world.
//
// It stands in for a real physics engine in tests and demos. The simulation
// is pure integer math, so it is bit-exact on every platform, and the
// serialized state covers exactly the fields that participate in simulation.
// Solver scratch data is derived, never serialized, and rebuilt on demand,
// mirroring how a real engine's execution pipeline is excluded from
// snapshots.
package dummy

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// Body is a point mass on an integer lattice.
type Body struct {
	X  int32
	Y  int32
	VX int32
	VY int32
}

// worldState is the serializable subset of the world: everything that
// participates in simulation, nothing that doesn't.
type worldState struct {
	Bodies  []Body
	Gravity int32
	MinX    int32
	MaxX    int32
	MinY    int32
	MaxY    int32
}

type cursor struct {
	x, y  int32
	click bool
}

// World is a deterministic toy physics world implementing engine.World. One
// body is allocated per player handle.
type World struct {
	state  worldState
	active bool

	// contacts is solver scratch: recomputed every step, excluded from
	// snapshots, and preserved across restores.
	contacts [][2]int

	// cursors holds the last aim reported per handle. Presentation data, not
	// simulation state.
	cursors map[int]cursor

	logger *logrus.Entry
}

// NewWorld returns a world with one body per player, laid out
// deterministically.
func NewWorld(players int, logger *logrus.Entry) *World {
	state := worldState{
		Gravity: -1,
		MinX:    -1000,
		MaxX:    1000,
		MinY:    -1000,
		MaxY:    1000,
	}

	for i := 0; i < players; i++ {
		state.Bodies = append(state.Bodies, Body{
			X: int32(-200 + 400*i),
			Y: 500,
		})
	}

	logger.WithField("players", players).Info("Init dummy world")

	return &World{
		state:   state,
		cursors: make(map[int]cursor),
		logger:  logger,
	}
}

// Step advances every body by one fixed timestep: apply gravity, integrate,
// bounce off the bounds, then rebuild the contact scratch.
func (w *World) Step() {
	if !w.active {
		return
	}

	s := &w.state

	for i := range s.Bodies {
		b := &s.Bodies[i]

		b.VY += s.Gravity
		b.X += b.VX
		b.Y += b.VY

		if b.X < s.MinX {
			b.X = s.MinX
			b.VX = -b.VX
		} else if b.X > s.MaxX {
			b.X = s.MaxX
			b.VX = -b.VX
		}
		if b.Y < s.MinY {
			b.Y = s.MinY
			b.VY = -b.VY
		} else if b.Y > s.MaxY {
			b.Y = s.MaxY
			b.VY = -b.VY
		}
	}

	w.rebuildContacts()
}

// rebuildContacts recomputes the derived overlap pairs. The result never
// feeds back into the simulation; it exists to model engine scratch state.
func (w *World) rebuildContacts() {
	w.contacts = w.contacts[:0]
	bodies := w.state.Bodies
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			dx := bodies[i].X - bodies[j].X
			dy := bodies[i].Y - bodies[j].Y
			if dx > -50 && dx < 50 && dy > -50 && dy < 50 {
				w.contacts = append(w.contacts, [2]int{i, j})
			}
		}
	}
}

// Snapshot serializes the simulation state with a canonical JSON encoding, so
// identical states always produce identical bytes.
func (w *World) Snapshot() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(w.state); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Restore overwrites the simulation state from a snapshot. The buffer is
// decoded completely before any field is touched, then each serializable
// field is copied over individually; the contact scratch and cursors are
// engine-internal and survive untouched.
func (w *World) Restore(snapshot []byte) error {
	var decoded worldState

	b := bytes.NewBuffer(snapshot)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	if err := dec.Decode(&decoded); err != nil {
		return err
	}

	w.state.Bodies = decoded.Bodies
	w.state.Gravity = decoded.Gravity
	w.state.MinX = decoded.MinX
	w.state.MaxX = decoded.MaxX
	w.state.MinY = decoded.MinY
	w.state.MaxY = decoded.MaxY

	return nil
}

// SetActive toggles the simulation gate.
func (w *World) SetActive(active bool) {
	if w.active != active {
		w.logger.WithField("active", active).Info("Toggling physics")
	}
	w.active = active
}

// Active reports the simulation gate.
func (w *World) Active() bool {
	return w.active
}

// Nudge applies an input-driven velocity change to a player's body. Velocity
// is only written when it actually changes, so idle inputs cannot perturb the
// state.
func (w *World) Nudge(handle int, dvx, dvy int32) {
	if !w.active {
		return
	}
	if handle < 0 || handle >= len(w.state.Bodies) {
		return
	}

	b := &w.state.Bodies[handle]

	newVX := b.VX + dvx
	newVY := b.VY + dvy

	if newVX != b.VX || newVY != b.VY {
		b.VX = newVX
		b.VY = newVY
	}
}

// Aim records a player's cursor. It never touches simulation state.
func (w *World) Aim(handle int, x, y int32, click bool) {
	w.cursors[handle] = cursor{x: x, y: y, click: click}
	if click {
		w.logger.WithField("handle", handle).Debug("Click")
	}
}

// Body returns a copy of the body controlled by handle.
func (w *World) Body(handle int) (Body, error) {
	if handle < 0 || handle >= len(w.state.Bodies) {
		return Body{}, fmt.Errorf("no body for handle %d", handle)
	}
	return w.state.Bodies[handle], nil
}
