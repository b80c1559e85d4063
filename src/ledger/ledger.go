package ledger

import (
	"github.com/rewindnet/rewind/src/frame"
)

// Entry records the fingerprint computed for one frame, along with its
// lifecycle flags. An entry is only meaningful while its Frame field matches
// the frame being asked about; older occupants of the same slot are stale and
// get overwritten.
type Entry struct {
	// Frame is the simulation step this entry describes.
	Frame frame.Frame

	// Checksum is the Fletcher-16 fingerprint of the serialized state at
	// Frame.
	Checksum uint16

	// Confirmed means the synchronization layer has finalized this frame's
	// inputs, so the fingerprint is safe to disclose once it also leaves the
	// prediction window.
	Confirmed bool

	// Sent means the fingerprint has been embedded in an outgoing input
	// packet. Once sent, the fingerprint for this frame is frozen: recomputing
	// a different value for the same frame is an integrity fault.
	Sent bool

	// Validated means the fingerprint has been cross-checked against the
	// other lineage (a remote report against our own computation, or vice
	// versa).
	Validated bool
}

// Ledger is a fixed-capacity ring of fingerprint entries, one slot per frame
// modulo capacity. Two ledgers exist per peer with disjoint roles: an
// outbound ledger of locally computed fingerprints waiting to be reported,
// and one inbound ledger per remote player holding the fingerprints they
// reported to us.
//
// The capacity must exceed the maximum prediction window by a comfortable
// margin so that no in-flight frame's slot can be recycled before the entry
// is consumed. The session configuration enforces this.
type Ledger struct {
	name    string
	entries []Entry
}

// New returns an empty Ledger with the given capacity. The name is only used
// in error messages. Slots are tagged with the null frame so that an empty
// slot can never be mistaken for frame 0.
func New(name string, capacity int) *Ledger {
	l := &Ledger{
		name:    name,
		entries: make([]Entry, capacity),
	}
	for i := range l.entries {
		l.entries[i].Frame = frame.Null
	}
	return l
}

// Capacity returns the fixed number of slots.
func (l *Ledger) Capacity() int {
	return len(l.entries)
}

func (l *Ledger) slot(f frame.Frame) *Entry {
	return &l.entries[int(f)%len(l.entries)]
}

// Get returns the entry for frame f, if the slot currently holds that frame.
func (l *Ledger) Get(f frame.Frame) (Entry, bool) {
	if f < 0 {
		return Entry{}, false
	}
	e := l.slot(f)
	if e.Frame != f {
		return Entry{}, false
	}
	return *e, true
}

// Record writes the fingerprint computed for frame f, replacing whatever
// occupies its slot. This is the outbound save path, exercised once per
// simulated frame.
//
// If the slot already holds frame f and that fingerprint has been sent, the
// new value must match the old one: a frame whose fingerprint was disclosed
// can never legitimately hash to something else, even across rollback
// re-simulation. A mismatch is returned as an IntegrityError.
func (l *Ledger) Record(f frame.Frame, sum uint16, confirmed bool) error {
	if f < 0 {
		return nil
	}

	e := l.slot(f)

	if e.Frame == f && e.Sent && e.Checksum != sum {
		return &IntegrityError{Ledger: l.name, Frame: f, Have: e.Checksum, Got: sum}
	}

	e.Frame = f
	e.Checksum = sum
	e.Sent = false
	e.Validated = false
	e.Confirmed = confirmed

	return nil
}

// Confirm marks the entry for frame f as confirmed. The session layer calls
// this as the confirmed horizon advances over frames that were recorded while
// still speculative.
func (l *Ledger) Confirm(f frame.Frame) {
	if f < 0 {
		return
	}
	e := l.slot(f)
	if e.Frame == f {
		e.Confirmed = true
	}
}

// NextReport scans the ring in slot order and returns the first entry that is
// confirmed, not yet sent, and reportable under w. Slot order is not
// chronological once the ring has wrapped, so reports may ship out of order;
// every eligible entry is still picked up eventually because the scan repeats
// each frame and unsent entries persist until consumed.
//
// The caller must call MarkSent once the pair has been embedded in an
// outgoing packet.
func (l *Ledger) NextReport(w frame.Window) (Entry, bool) {
	for i := range l.entries {
		e := &l.entries[i]
		if e.Confirmed && !e.Sent && w.IsReportable(e.Frame) {
			return *e, true
		}
	}
	return Entry{}, false
}

// MarkSent freezes the fingerprint for frame f after it has been embedded in
// an outgoing packet.
func (l *Ledger) MarkSent(f frame.Frame) {
	if f < 0 {
		return
	}
	e := l.slot(f)
	if e.Frame == f {
		e.Sent = true
	}
}

// Reconcile merges a remotely reported (frame, fingerprint) pair into an
// inbound ledger.
//
// If the slot already holds frame f, the reported fingerprint must equal the
// stored one; a conflict is an IntegrityError and re-applying an identical
// report is a no-op. If the slot holds a different frame, the new pair
// supersedes the stale occupant and the Validated flag is cleared.
func (l *Ledger) Reconcile(f frame.Frame, sum uint16) error {
	if f < 0 {
		return nil
	}

	e := l.slot(f)

	if e.Frame == f {
		if e.Checksum != sum {
			return &IntegrityError{Ledger: l.name, Frame: f, Have: e.Checksum, Got: sum}
		}
		return nil
	}

	e.Frame = f
	e.Checksum = sum
	e.Validated = false

	return nil
}

// Validate cross-checks our own confirmed fingerprint for frame f against the
// remote report stored in this inbound ledger, if any. On a match the entry
// is marked validated; on a mismatch an IntegrityError is returned. Frames
// with no stored report validate trivially.
func (l *Ledger) Validate(f frame.Frame, sum uint16) error {
	if f < 0 {
		return nil
	}

	e := l.slot(f)
	if e.Frame != f {
		return nil
	}

	if e.Checksum != sum {
		return &IntegrityError{Ledger: l.name, Frame: f, Have: e.Checksum, Got: sum}
	}

	e.Validated = true

	return nil
}

// Entries returns a copy of the underlying slots, in slot order. It is used
// by the diagnostics service.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
