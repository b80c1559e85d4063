// Package recorder implements the optional flight recorder: a post-mortem
// store of frame fingerprints and desync reports. It sits entirely outside
// the frame core, which itself persists nothing.
package recorder

import (
	"time"

	"github.com/rewindnet/rewind/src/frame"
)

// Desync describes a fatal integrity fault for post-mortem analysis.
type Desync struct {
	Frame      frame.Frame `json:"frame"`
	Ledger     string      `json:"ledger"`
	Have       uint16      `json:"have"`
	Got        uint16      `json:"got"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Recorder receives frame fingerprints and desync reports as they happen.
// Implementations must tolerate being called from the session loop and should
// never block it for long.
type Recorder interface {
	// RecordFrame stores the fingerprint computed for a frame.
	RecordFrame(f frame.Frame, checksum uint16) error

	// RecordDesync stores a fatal desync report.
	RecordDesync(d Desync) error

	// Close releases the underlying resources.
	Close() error
}
