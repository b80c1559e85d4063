package rollback

import (
	"github.com/sirupsen/logrus"

	"github.com/rewindnet/rewind/src/common"
	"github.com/rewindnet/rewind/src/engine"
	"github.com/rewindnet/rewind/src/frame"
)

// Manager owns the per-peer rollback State and performs the two snapshot
// operations of the frame loop: restoring the world at the start of a
// rollback replay, and capturing the world at the end of every frame.
//
// Ordering within a frame is strict: Restore (if any) runs before the world
// is stepped, and Save runs after, so the fingerprint recorded for a frame
// always describes the post-step state of that frame.
type Manager struct {
	world  engine.World
	state  State
	logger *logrus.Entry
}

// NewManager returns a Manager wrapping the given world.
func NewManager(world engine.World, logger *logrus.Entry) *Manager {
	return &Manager{
		world:  world,
		logger: logger,
	}
}

// State returns the current rollback container, read-only.
func (m *Manager) State() State {
	return m.state
}

// Save serializes the world, fingerprints the buffer, and overwrites the
// rollback container. It returns the fingerprint for the ledger.
//
// A serialization fault is recoverable: the container keeps the previous
// frame's snapshot, the caller skips the ledger update, and the session
// continues with one frame of degraded snapshot freshness.
func (m *Manager) Save(current frame.Frame) (uint16, error) {
	bytes, err := m.world.Snapshot()
	if err != nil {
		m.logger.WithField("frame", current).WithError(err).Warn("State capture failed")
		return 0, err
	}

	sum := common.Fletcher16(bytes)

	m.logger.WithFields(logrus.Fields{
		"frame":    current,
		"checksum": sum,
		"size":     len(bytes),
	}).Debug("State captured")

	m.state.Bytes = bytes
	m.state.Checksum = sum

	return sum, nil
}

// Restore overwrites the world's serializable state from the last captured
// snapshot, but only when the frame loop signals a rollback replay targeting
// a frame beyond the first. Rolling back to frame 1 or earlier is skipped:
// the physics state is defined to still be in its canonical initial
// condition there, and restoring would only risk diverging peers that joined
// late or lagged through the warm-up.
//
// A deserialization fault is survivable at the same granularity as a capture
// fault: the engine guarantees all-or-nothing restores, so the world keeps
// its pre-rollback state and the condition is logged rather than hidden.
func (m *Manager) Restore(status frame.RollbackStatus) {
	if !status.InProgress || status.Target <= 1 {
		return
	}

	if m.state.Bytes == nil {
		return
	}

	if err := m.world.Restore(m.state.Bytes); err != nil {
		m.logger.WithFields(logrus.Fields{
			"target_frame": status.Target,
			"checksum":     m.state.Checksum,
		}).WithError(err).Warn("State restore failed, proceeding with pre-rollback state")
		return
	}

	m.logger.WithFields(logrus.Fields{
		"target_frame": status.Target,
		"checksum":     m.state.Checksum,
	}).Debug("State restored")
}
