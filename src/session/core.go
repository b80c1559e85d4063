package session

import (
	"fmt"
	"sort"

	"github.com/rewindnet/rewind/src/engine"
	"github.com/rewindnet/rewind/src/frame"
	"github.com/rewindnet/rewind/src/input"
	"github.com/rewindnet/rewind/src/ledger"
	"github.com/rewindnet/rewind/src/peers"
	"github.com/rewindnet/rewind/src/rollback"
	"github.com/sirupsen/logrus"
)

// nudgeVelocity is the velocity change applied per frame per held direction
// button.
const nudgeVelocity = 2

// Core is the deterministic heart of a session. It owns the world, the
// snapshot manager, the outbound fingerprint ledger, and one inbound ledger
// per remote player. It is not thread-safe; the Node serializes access.
type Core struct {
	validator *Validator
	players   *peers.PlayerSet
	handle    int

	world   engine.World
	manager *rollback.Manager
	gate    rollback.EnableAfter

	outbound *ledger.Ledger
	inbound  map[uint32]*ledger.Ledger

	cursor        frame.Cursor
	maxPrediction int

	// pending holds the latest input packet per player handle, local included.
	// Reports embedded in these packets are reconciled when the frame runs,
	// not when the packet arrives.
	pending map[int]input.Packet

	logger *logrus.Entry
}

// NewCore instantiates a Core. The validator must be a member of the player
// set.
func NewCore(
	validator *Validator,
	players *peers.PlayerSet,
	world engine.World,
	conf *Config,
	logger *logrus.Logger,
) (*Core, error) {

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	handle, ok := players.Handle(validator.ID())
	if !ok {
		return nil, fmt.Errorf("validator %d does not belong to the player set", validator.ID())
	}

	inbound := make(map[uint32]*ledger.Ledger)
	for _, p := range players.Others(validator.ID()) {
		inbound[p.ID()] = ledger.New(fmt.Sprintf("inbound-%s", p.Moniker), conf.LedgerCapacity)
	}

	core := &Core{
		validator:     validator,
		players:       players,
		handle:        handle,
		world:         world,
		manager:       rollback.NewManager(world, logger.WithField("component", "rollback")),
		gate:          rollback.NewEnableAfter(0, conf.WarmupFrames),
		outbound:      ledger.New("outbound", conf.LedgerCapacity),
		inbound:       inbound,
		cursor:        frame.Cursor{Current: 1, Confirmed: 0},
		maxPrediction: conf.MaxPrediction,
		pending:       make(map[int]input.Packet),
		logger:        logger.WithField("component", "core"),
	}

	return core, nil
}

// Handle returns the local player handle.
func (c *Core) Handle() int {
	return c.handle
}

// Cursor returns the frame cursor.
func (c *Core) Cursor() frame.Cursor {
	return c.cursor
}

// CanAdvance reports whether the next frame is still inside the prediction
// window. When it is not, the session must stall until remote input catches
// up.
func (c *Core) CanAdvance() bool {
	return c.cursor.Current <= c.cursor.Confirmed+frame.Frame(c.maxPrediction)+1
}

func (c *Core) window() frame.Window {
	return frame.NewWindow(c.cursor.Confirmed, c.maxPrediction)
}

// SetConfirmed advances the confirmed horizon and upgrades the outbound
// entries it sweeps over. The horizon never moves backwards.
func (c *Core) SetConfirmed(f frame.Frame) {
	if f <= c.cursor.Confirmed {
		return
	}
	for g := c.cursor.Confirmed + 1; g <= f; g++ {
		c.outbound.Confirm(g)
	}
	c.cursor.Confirmed = f
}

// ApplyRemote stages a packet received from the player at the given handle.
// The packet supersedes any staged one for the same handle; reconciliation of
// the embedded report happens when the next frame runs, so duplicates and
// reordering collapse harmlessly.
func (c *Core) ApplyRemote(handle int, p input.Packet) error {
	if handle == c.handle {
		return fmt.Errorf("received remote input for the local handle %d", handle)
	}
	if _, ok := c.players.ByHandle(handle); !ok {
		return fmt.Errorf("unknown player handle %d", handle)
	}
	c.pending[handle] = p
	return nil
}

// BuildInput assembles the outgoing packet for this frame from the local
// controls: it embeds the next unsent confirmed fingerprint, or the null
// frame when none is due, and stages the controls for the local handle. The
// embedded entry is marked sent immediately.
func (c *Core) BuildInput(controls input.Packet) input.Packet {
	controls.ConfirmedFrame = frame.Null
	controls.ConfirmedChecksum = 0

	if e, ok := c.outbound.NextReport(c.window()); ok {
		controls.ConfirmedFrame = e.Frame
		controls.ConfirmedChecksum = e.Checksum
		c.outbound.MarkSent(e.Frame)
	}

	c.pending[c.handle] = controls

	return controls
}

// RunFrame executes one simulation frame: restore when rolling back, toggle
// the physics gate, apply inputs, step, then fingerprint and record the new
// state. It returns the recorded frame and checksum, or the null frame when
// the fingerprint was skipped because serialization failed.
//
// Any IntegrityError surfacing from the ledgers is fatal and must move the
// session to the Desynced state.
func (c *Core) RunFrame(status frame.RollbackStatus) (frame.Frame, uint16, error) {
	c.manager.Restore(status)

	c.world.SetActive(c.gate.IsEnabled(c.cursor.Current))

	if err := c.applyInputs(); err != nil {
		return frame.Null, 0, err
	}

	c.world.Step()

	current := c.cursor.Current
	c.cursor.Current++

	sum, err := c.manager.Save(current)
	if err != nil {
		// Recoverable: no fingerprint this frame, ledger untouched.
		c.logger.WithError(err).WithField("frame", current).
			Warning("Skipping fingerprint")
		return frame.Null, 0, nil
	}

	if err := c.outbound.Record(current, sum, c.window().IsConfirmed(current)); err != nil {
		return frame.Null, 0, err
	}

	return current, sum, nil
}

// applyInputs drains the staged packets in handle order: reports are
// reconciled into the sender's inbound ledger and cross-checked against our
// own fingerprints, then the movement inputs are forwarded to the world.
func (c *Core) applyInputs() error {
	handles := make([]int, 0, len(c.pending))
	for h := range c.pending {
		handles = append(handles, h)
	}
	sort.Ints(handles)

	for _, h := range handles {
		p := c.pending[h]

		if h != c.handle && p.HasReport() {
			if err := c.reconcileReport(h, p); err != nil {
				return err
			}
		}

		dvx, dvy := buttonVelocities(p.Buttons)
		c.world.Nudge(h, dvx, dvy)

		if p.MouseVisible != 0 {
			c.world.Aim(h, p.MouseX, p.MouseY, p.MouseClicked != 0)
		}
	}

	return nil
}

// reconcileReport merges a remote fingerprint report and validates it against
// the locally computed fingerprint for the same frame, when we have one.
func (c *Core) reconcileReport(handle int, p input.Packet) error {
	player, _ := c.players.ByHandle(handle)

	inb := c.inbound[player.ID()]

	if err := inb.Reconcile(p.ConfirmedFrame, p.ConfirmedChecksum); err != nil {
		return err
	}

	if local, ok := c.outbound.Get(p.ConfirmedFrame); ok {
		if err := inb.Validate(p.ConfirmedFrame, local.Checksum); err != nil {
			return err
		}
		c.logger.WithFields(logrus.Fields{
			"frame":    p.ConfirmedFrame,
			"checksum": local.Checksum,
			"player":   player.Moniker,
		}).Debug("Fingerprint validated")
	}

	return nil
}

// LedgerEntries returns a copy of the outbound ledger slots, for diagnostics.
func (c *Core) LedgerEntries() []ledger.Entry {
	return c.outbound.Entries()
}

// InboundEntries returns a copy of the inbound ledger slots for the given
// player ID, for diagnostics.
func (c *Core) InboundEntries(id uint32) []ledger.Entry {
	inb, ok := c.inbound[id]
	if !ok {
		return nil
	}
	return inb.Entries()
}

// buttonVelocities maps held direction buttons to a velocity change.
func buttonVelocities(buttons uint16) (dvx, dvy int32) {
	if buttons&input.ButtonLeft != 0 {
		dvx -= nudgeVelocity
	}
	if buttons&input.ButtonRight != 0 {
		dvx += nudgeVelocity
	}
	if buttons&input.ButtonUp != 0 {
		dvy -= nudgeVelocity
	}
	if buttons&input.ButtonDown != 0 {
		dvy += nudgeVelocity
	}
	return dvx, dvy
}
