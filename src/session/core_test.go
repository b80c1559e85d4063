package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rewindnet/rewind/src/common"
	"github.com/rewindnet/rewind/src/crypto/keys"
	"github.com/rewindnet/rewind/src/dummy"
	"github.com/rewindnet/rewind/src/frame"
	"github.com/rewindnet/rewind/src/input"
	"github.com/rewindnet/rewind/src/ledger"
	"github.com/rewindnet/rewind/src/peers"
)

func initPlayers(t *testing.T, n int) ([]*Validator, *peers.PlayerSet) {
	validators := []*Validator{}
	players := []*peers.Player{}

	for i := 0; i < n; i++ {
		key, err := keys.GenerateECDSAKey()
		if err != nil {
			t.Fatal(err)
		}

		v := NewValidator(key, fmt.Sprintf("player%d", i))
		validators = append(validators, v)

		players = append(players,
			peers.NewPlayer(
				v.PublicKeyHex(),
				fmt.Sprintf("127.0.0.1:%d", 9000+i),
				v.Moniker))
	}

	return validators, peers.NewPlayerSet(players)
}

func coreConfig(t *testing.T) *Config {
	conf := TestConfig(t)
	conf.MaxPrediction = 2
	conf.LedgerCapacity = 16
	conf.WarmupFrames = 0
	return conf
}

func newTestCore(t *testing.T, v *Validator, ps *peers.PlayerSet, conf *Config) *Core {
	world := dummy.NewWorld(ps.Len(), common.NewTestEntry(t, common.TestLogLevel))
	core, err := NewCore(v, ps, world, conf, conf.Logger)
	if err != nil {
		t.Fatal(err)
	}
	return core
}

func TestCoreSoloReports(t *testing.T) {
	validators, ps := initPlayers(t, 1)
	conf := coreConfig(t)

	core := newTestCore(t, validators[0], ps, conf)

	reported := map[frame.Frame]uint16{}
	recorded := map[frame.Frame]uint16{}

	for i := 0; i < 10; i++ {
		core.SetConfirmed(core.Cursor().Current - 1)

		pkt := core.BuildInput(input.NewPacket())
		if pkt.HasReport() {
			reported[pkt.ConfirmedFrame] = pkt.ConfirmedChecksum
		}

		f, sum, err := core.RunFrame(frame.RollbackStatus{})
		if err != nil {
			t.Fatal(err)
		}
		if f == frame.Null {
			t.Fatalf("fingerprint should not be skipped at iteration %d", i)
		}
		recorded[f] = sum
	}

	// With MaxPrediction 2, frames 1 through 6 have left every prediction
	// window by the time frame 10 runs; one report ships per frame.
	if len(reported) < 4 {
		t.Fatalf("at least 4 frames should have been reported, not %d", len(reported))
	}

	for f, sum := range reported {
		if recorded[f] != sum {
			t.Fatalf("reported checksum for frame %d should be %#X, not %#X",
				f, recorded[f], sum)
		}
	}
}

func TestCoreLockstepValidation(t *testing.T) {
	validators, ps := initPlayers(t, 2)
	conf := coreConfig(t)

	c0 := newTestCore(t, validators[0], ps, conf)
	c1 := newTestCore(t, validators[1], ps, conf)

	h0 := c0.Handle()
	h1 := c1.Handle()

	for i := 0; i < 15; i++ {
		c0.SetConfirmed(c0.Cursor().Current - 1)
		c1.SetConfirmed(c1.Cursor().Current - 1)

		p0 := c0.BuildInput(input.NewPacket())
		p1 := c1.BuildInput(input.NewPacket())

		if err := c0.ApplyRemote(h1, p1); err != nil {
			t.Fatal(err)
		}
		if err := c1.ApplyRemote(h0, p0); err != nil {
			t.Fatal(err)
		}

		f0, s0, err := c0.RunFrame(frame.RollbackStatus{})
		if err != nil {
			t.Fatal(err)
		}
		f1, s1, err := c1.RunFrame(frame.RollbackStatus{})
		if err != nil {
			t.Fatal(err)
		}

		if f0 != f1 || s0 != s1 {
			t.Fatalf("iteration %d: fingerprints should agree: (%d %#X) vs (%d %#X)",
				i, f0, s0, f1, s1)
		}
	}

	// Reports from c1 must have been validated against c0's own fingerprints.
	validated := 0
	for _, e := range c0.InboundEntries(validators[1].ID()) {
		if e.Frame != frame.Null && e.Validated {
			validated++
		}
	}
	if validated == 0 {
		t.Fatal("at least one inbound report should have been validated")
	}
}

func TestCoreDesyncDetection(t *testing.T) {
	validators, ps := initPlayers(t, 2)
	conf := coreConfig(t)

	w0 := dummy.NewWorld(ps.Len(), common.NewTestEntry(t, common.TestLogLevel))
	w1 := dummy.NewWorld(ps.Len(), common.NewTestEntry(t, common.TestLogLevel))

	c0, err := NewCore(validators[0], ps, w0, conf, conf.Logger)
	if err != nil {
		t.Fatal(err)
	}
	c1, err := NewCore(validators[1], ps, w1, conf, conf.Logger)
	if err != nil {
		t.Fatal(err)
	}

	h0 := c0.Handle()
	h1 := c1.Handle()

	var integrityErr error

	for i := 0; i < 20; i++ {
		if i == 4 {
			// Corrupt one simulation behind the session's back.
			w1.SetActive(true)
			w1.Nudge(0, 7, 7)
		}

		c0.SetConfirmed(c0.Cursor().Current - 1)
		c1.SetConfirmed(c1.Cursor().Current - 1)

		p0 := c0.BuildInput(input.NewPacket())
		p1 := c1.BuildInput(input.NewPacket())

		if err := c0.ApplyRemote(h1, p1); err != nil {
			t.Fatal(err)
		}
		if err := c1.ApplyRemote(h0, p0); err != nil {
			t.Fatal(err)
		}

		if _, _, err := c0.RunFrame(frame.RollbackStatus{}); err != nil {
			integrityErr = err
			break
		}
		if _, _, err := c1.RunFrame(frame.RollbackStatus{}); err != nil {
			integrityErr = err
			break
		}
	}

	if integrityErr == nil {
		t.Fatal("the diverged simulations should have been detected")
	}
	if !ledger.IsIntegrity(integrityErr) {
		t.Fatalf("error should be an IntegrityError, not %v", integrityErr)
	}

	var ierr *ledger.IntegrityError
	if !errors.As(integrityErr, &ierr) {
		t.Fatalf("error should unwrap to *IntegrityError")
	}
	if ierr.Have == ierr.Got {
		t.Fatal("a desync report should carry two different checksums")
	}
}

func TestCorePredictionLimit(t *testing.T) {
	validators, ps := initPlayers(t, 2)
	conf := coreConfig(t)

	core := newTestCore(t, validators[0], ps, conf)

	// The remote never delivers input, so the confirmed horizon stays at 0
	// and the core may only predict MaxPrediction+1 frames.
	steps := 0
	for core.CanAdvance() {
		if _, _, err := core.RunFrame(frame.RollbackStatus{}); err != nil {
			t.Fatal(err)
		}
		steps++
		if steps > conf.LedgerCapacity {
			t.Fatal("core should have stalled at the prediction limit")
		}
	}

	if steps != conf.MaxPrediction+1 {
		t.Fatalf("core should stall after %d frames, not %d", conf.MaxPrediction+1, steps)
	}
}

func TestCoreRollbackDeterminism(t *testing.T) {
	validators, ps := initPlayers(t, 1)
	conf := coreConfig(t)

	core := newTestCore(t, validators[0], ps, conf)

	sums := map[frame.Frame]uint16{}

	for i := 0; i < 5; i++ {
		core.SetConfirmed(core.Cursor().Current - 1)
		core.BuildInput(input.NewPacket())

		status := frame.RollbackStatus{}
		if i == 3 {
			// Replay through the snapshot restore path; with unchanged inputs
			// the fingerprints must come out identical.
			status = frame.RollbackStatus{InProgress: true, Target: core.Cursor().Current - 1}
		}

		f, sum, err := core.RunFrame(status)
		if err != nil {
			t.Fatal(err)
		}
		sums[f] = sum
	}

	if len(sums) != 5 {
		t.Fatalf("5 frames should have been fingerprinted, not %d", len(sums))
	}
}
