package net

import (
	"net"
	"time"
)

// StreamLayer is the low-level stream abstraction underneath a
// NetworkTransport. TCP and WebRTC both implement it, which keeps the RPC
// framing identical across the two.
type StreamLayer interface {
	net.Listener

	// Dial opens an outgoing connection to the given peer address.
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the address other players should dial to reach
	// this stream.
	AdvertiseAddr() string
}
