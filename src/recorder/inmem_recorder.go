package recorder

import (
	"sync"

	"github.com/rewindnet/rewind/src/frame"
)

// InmemRecorder keeps fingerprints and desync reports in memory. It is used
// in tests and when no store is configured.
type InmemRecorder struct {
	sync.Mutex
	frames  map[frame.Frame]uint16
	desyncs []Desync
}

// NewInmemRecorder returns an empty InmemRecorder.
func NewInmemRecorder() *InmemRecorder {
	return &InmemRecorder{
		frames: make(map[frame.Frame]uint16),
	}
}

// RecordFrame implements the Recorder interface.
func (r *InmemRecorder) RecordFrame(f frame.Frame, checksum uint16) error {
	r.Lock()
	defer r.Unlock()
	r.frames[f] = checksum
	return nil
}

// RecordDesync implements the Recorder interface.
func (r *InmemRecorder) RecordDesync(d Desync) error {
	r.Lock()
	defer r.Unlock()
	r.desyncs = append(r.desyncs, d)
	return nil
}

// Frame returns the stored fingerprint for a frame.
func (r *InmemRecorder) Frame(f frame.Frame) (uint16, bool) {
	r.Lock()
	defer r.Unlock()
	sum, ok := r.frames[f]
	return sum, ok
}

// Desyncs returns the stored desync reports.
func (r *InmemRecorder) Desyncs() []Desync {
	r.Lock()
	defer r.Unlock()
	out := make([]Desync, len(r.desyncs))
	copy(out, r.desyncs)
	return out
}

// Close implements the Recorder interface.
func (r *InmemRecorder) Close() error {
	return nil
}
