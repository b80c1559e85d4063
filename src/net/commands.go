package net

import (
	"github.com/rewindnet/rewind/src/frame"
)

// HelloRequest identifies a player to another peer before input exchange
// starts. The public key lets the receiver derive and verify the sender's ID
// and handle.
type HelloRequest struct {
	FromID    uint32
	PubKeyHex string
	Moniker   string
}

// HelloResponse accepts or refuses a HelloRequest. A refusal carries a
// human-readable reason.
type HelloResponse struct {
	FromID   uint32
	Accepted bool
	Reason   string
}

// InputRequest carries one player's input for one frame. Payload is the
// packed input record defined in the input package, which embeds the
// piggy-backed fingerprint report; no separate confirmation command exists.
type InputRequest struct {
	FromID  uint32
	Frame   frame.Frame
	Payload []byte
}

// InputResponse acknowledges received input. Ack echoes the frame of the
// accepted input record; the sender folds it into its confirmed-frame
// horizon.
type InputResponse struct {
	FromID uint32
	Ack    frame.Frame
}
