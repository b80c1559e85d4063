package dummy

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rewindnet/rewind/src/common"
)

func TestWorldDeterministic(t *testing.T) {
	a := NewWorld(2, common.NewTestEntry(t, logrus.InfoLevel))
	b := NewWorld(2, common.NewTestEntry(t, logrus.InfoLevel))

	a.SetActive(true)
	b.SetActive(true)

	for i := 0; i < 100; i++ {
		a.Nudge(0, 1, 0)
		b.Nudge(0, 1, 0)
		a.Step()
		b.Step()
	}

	sa, err := a.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	sb, err := b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(sa, sb) {
		t.Fatal("identical input sequences should produce identical snapshots")
	}
}

func TestWorldRoundTrip(t *testing.T) {
	w := NewWorld(2, common.NewTestEntry(t, logrus.InfoLevel))
	w.SetActive(true)

	for i := 0; i < 50; i++ {
		w.Nudge(1, 0, 2)
		w.Step()
	}

	snap, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	sum := common.Fletcher16(snap)

	// Keep simulating, then restore: the fingerprint must come back exactly.
	for i := 0; i < 20; i++ {
		w.Step()
	}

	if err := w.Restore(snap); err != nil {
		t.Fatal(err)
	}

	snap2, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if common.Fletcher16(snap2) != sum {
		t.Fatal("restored state should fingerprint identically")
	}
}

func TestWorldRestoreRejectsGarbage(t *testing.T) {
	w := NewWorld(1, common.NewTestEntry(t, logrus.InfoLevel))
	w.SetActive(true)
	w.Nudge(0, 3, 3)
	w.Step()

	before, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Restore([]byte("{not json")); err == nil {
		t.Fatal("garbage snapshot should fail to decode")
	}

	after, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("a failed restore must not leave a partially applied state")
	}
}

func TestWorldInactiveGate(t *testing.T) {
	w := NewWorld(1, common.NewTestEntry(t, logrus.InfoLevel))

	before, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	// While the gate is closed, neither stepping nor inputs mutate state.
	w.Nudge(0, 5, 5)
	w.Step()

	after, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("an inactive world must not change state")
	}
}

func TestWorldAimIsNotState(t *testing.T) {
	w := NewWorld(1, common.NewTestEntry(t, logrus.InfoLevel))
	w.SetActive(true)

	before, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	w.Aim(0, 123, 456, true)

	after, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("cursor data must not leak into the serialized state")
	}
}
