package rollback

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rewindnet/rewind/src/common"
	"github.com/rewindnet/rewind/src/frame"
)

// fakeWorld is a minimal World implementation whose serialized state is a
// single counter value.
type fakeWorld struct {
	counter  byte
	active   bool
	failSnap bool
	failRest bool
}

func (w *fakeWorld) Step()                            { w.counter++ }
func (w *fakeWorld) SetActive(active bool)            { w.active = active }
func (w *fakeWorld) Active() bool                     { return w.active }
func (w *fakeWorld) Nudge(handle int, dvx, dvy int32) {}
func (w *fakeWorld) Aim(handle int, x, y int32, click bool) {
}

func (w *fakeWorld) Snapshot() ([]byte, error) {
	if w.failSnap {
		return nil, fmt.Errorf("serialization fault")
	}
	return []byte{w.counter}, nil
}

func (w *fakeWorld) Restore(snapshot []byte) error {
	if w.failRest {
		return fmt.Errorf("deserialization fault")
	}
	w.counter = snapshot[0]
	return nil
}

func TestSaveOverwritesState(t *testing.T) {
	world := &fakeWorld{counter: 42}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	sum, err := m.Save(1)
	if err != nil {
		t.Fatal(err)
	}
	if expected := common.Fletcher16([]byte{42}); sum != expected {
		t.Fatalf("checksum should be 0x%04X, not 0x%04X", expected, sum)
	}
	if m.State().Checksum != sum {
		t.Fatal("container checksum should match returned checksum")
	}

	world.Step()
	sum2, err := m.Save(2)
	if err != nil {
		t.Fatal(err)
	}
	if sum2 == sum {
		t.Fatal("stepping should change the fingerprint")
	}
}

func TestSaveFaultLeavesState(t *testing.T) {
	world := &fakeWorld{counter: 7}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	if _, err := m.Save(1); err != nil {
		t.Fatal(err)
	}
	before := m.State()

	world.failSnap = true
	if _, err := m.Save(2); err == nil {
		t.Fatal("expected serialization fault")
	}

	after := m.State()
	if after.Checksum != before.Checksum || len(after.Bytes) != len(before.Bytes) {
		t.Fatal("a failed capture must not touch the container")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	world := &fakeWorld{counter: 5}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	if _, err := m.Save(5); err != nil {
		t.Fatal(err)
	}

	// Simulate three predicted frames, then roll back.
	world.Step()
	world.Step()
	world.Step()

	m.Restore(frame.RollbackStatus{InProgress: true, Target: 5})

	if world.counter != 5 {
		t.Fatalf("world should be restored to counter 5, not %d", world.counter)
	}

	// The post-restore capture must reproduce the stored fingerprint.
	sum, err := m.Save(5)
	if err != nil {
		t.Fatal(err)
	}
	if sum != m.State().Checksum {
		t.Fatal("restored state should fingerprint identically")
	}
}

func TestRestoreSkippedOutsideRollback(t *testing.T) {
	world := &fakeWorld{counter: 5}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	if _, err := m.Save(5); err != nil {
		t.Fatal(err)
	}
	world.Step()

	m.Restore(frame.RollbackStatus{InProgress: false, Target: 5})

	if world.counter != 6 {
		t.Fatal("restore must not run outside a rollback")
	}
}

func TestRestoreSkippedAtFirstFrame(t *testing.T) {
	world := &fakeWorld{counter: 5}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	if _, err := m.Save(1); err != nil {
		t.Fatal(err)
	}
	world.Step()

	// Rolling back to frame 1 is explicitly skipped; the state there is
	// defined to already be canonical.
	m.Restore(frame.RollbackStatus{InProgress: true, Target: 1})

	if world.counter != 6 {
		t.Fatal("restore must not run for a rollback targeting frame 1")
	}
}

func TestRestoreBeforeFirstCapture(t *testing.T) {
	world := &fakeWorld{counter: 5}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	// No snapshot captured yet: nothing to restore from, no panic.
	m.Restore(frame.RollbackStatus{InProgress: true, Target: 10})

	if world.counter != 5 {
		t.Fatal("restore with no snapshot must be a no-op")
	}
}

func TestRestoreFaultKeepsPreRollbackState(t *testing.T) {
	world := &fakeWorld{counter: 5}
	m := NewManager(world, common.NewTestEntry(t, logrus.DebugLevel))

	if _, err := m.Save(5); err != nil {
		t.Fatal(err)
	}
	world.Step()
	world.failRest = true

	m.Restore(frame.RollbackStatus{InProgress: true, Target: 5})

	if world.counter != 6 {
		t.Fatal("a failed restore must leave the pre-rollback state intact")
	}
}
