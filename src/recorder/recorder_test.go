package recorder

import (
	"io/ioutil"
	"os"
	"testing"
	"time"
)

func TestInmemRecorder(t *testing.T) {
	r := NewInmemRecorder()
	defer r.Close()

	if err := r.RecordFrame(12, 0xBEEF); err != nil {
		t.Fatal(err)
	}

	sum, ok := r.Frame(12)
	if !ok {
		t.Fatal("frame 12 should be recorded")
	}
	if sum != 0xBEEF {
		t.Fatalf("checksum should be 0xBEEF, not %#X", sum)
	}

	if _, ok := r.Frame(13); ok {
		t.Fatal("frame 13 should not be recorded")
	}

	d := Desync{
		Frame:      12,
		Ledger:     "inbound-bob",
		Have:       0xBEEF,
		Got:        0xDEAD,
		OccurredAt: time.Now(),
	}
	if err := r.RecordDesync(d); err != nil {
		t.Fatal(err)
	}

	desyncs := r.Desyncs()
	if len(desyncs) != 1 {
		t.Fatalf("should have 1 desync report, not %d", len(desyncs))
	}
	if desyncs[0].Got != 0xDEAD {
		t.Fatalf("desync Got should be 0xDEAD, not %#X", desyncs[0].Got)
	}
}

func TestBadgerRecorder(t *testing.T) {
	dir, err := ioutil.TempDir("", "badger_recorder")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	r, err := NewBadgerRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := r.RecordFrame(7, 0x1234); err != nil {
		t.Fatal(err)
	}
	// overwrite after a rollback re-simulation
	if err := r.RecordFrame(7, 0x1235); err != nil {
		t.Fatal(err)
	}

	sum, ok := r.Frame(7)
	if !ok {
		t.Fatal("frame 7 should be recorded")
	}
	if sum != 0x1235 {
		t.Fatalf("checksum should be 0x1235, not %#X", sum)
	}

	d := Desync{
		Frame:      7,
		Ledger:     "outbound",
		Have:       0x1235,
		Got:        0x4321,
		OccurredAt: time.Now(),
	}
	if err := r.RecordDesync(d); err != nil {
		t.Fatal(err)
	}

	desyncs, err := r.Desyncs()
	if err != nil {
		t.Fatal(err)
	}
	if len(desyncs) != 1 {
		t.Fatalf("should have 1 desync report, not %d", len(desyncs))
	}
	if desyncs[0].Frame != 7 {
		t.Fatalf("desync frame should be 7, not %d", desyncs[0].Frame)
	}
}
