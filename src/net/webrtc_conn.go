package net

import (
	"net"
	"time"

	"github.com/pion/datachannel"
)

// WebRTCConn adapts a detached webrtc datachannel to net.Conn, so that the
// NetworkTransport can frame RPCs over it exactly as it does over TCP.
// Addresses and deadlines have no datachannel equivalent and are stubbed.
type WebRTCConn struct {
	dc datachannel.ReadWriteCloser
}

// NewWebRTCConn wraps a detached datachannel.
func NewWebRTCConn(dc datachannel.ReadWriteCloser) *WebRTCConn {
	return &WebRTCConn{dc: dc}
}

func (c *WebRTCConn) Read(p []byte) (int, error) {
	return c.dc.Read(p)
}

func (c *WebRTCConn) Write(p []byte) (int, error) {
	return c.dc.Write(p)
}

func (c *WebRTCConn) Close() error {
	return c.dc.Close()
}

// LocalAddr is a stub.
func (c *WebRTCConn) LocalAddr() net.Addr {
	return nil
}

// RemoteAddr is a stub.
func (c *WebRTCConn) RemoteAddr() net.Addr {
	return nil
}

// SetDeadline is a stub.
func (c *WebRTCConn) SetDeadline(t time.Time) error {
	return nil
}

// SetReadDeadline is a stub.
func (c *WebRTCConn) SetReadDeadline(t time.Time) error {
	return nil
}

// SetWriteDeadline is a stub.
func (c *WebRTCConn) SetWriteDeadline(t time.Time) error {
	return nil
}
