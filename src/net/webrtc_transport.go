package net

import (
	"time"

	webrtc "github.com/pion/webrtc/v2"
	"github.com/rewindnet/rewind/src/net/signal"
	"github.com/sirupsen/logrus"
)

// NewWebRTCTransport returns a NetworkTransport that is built on top of a
// WebRTC StreamLayer. The signal is a mechanism for peers to exchange
// connection information prior to establishing a direct p2p link.
func NewWebRTCTransport(
	sig signal.Signal,
	iceServers []webrtc.ICEServer,
	maxPool int,
	timeout time.Duration,
	helloTimeout time.Duration,
	logger *logrus.Entry,
) (*NetworkTransport, error) {

	// Create stream
	stream := newWebRTCStreamLayer(sig, iceServers, logger)

	go stream.listen()

	// Create the network transport
	trans := NewNetworkTransport(stream, maxPool, timeout, helloTimeout, logger)

	return trans, nil
}
