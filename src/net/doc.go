// Package net implements the transports over which peers exchange per-frame
// input packets.
//
// The communication protocol is deliberately small: a Hello command to
// identify both ends of a connection, and an Input command carrying one
// player's packed input record for one frame, with the piggy-backed
// fingerprint report inside the record itself. Transports only move bytes;
// frame reconciliation and desync detection happen in the session layer, so
// lossy, reordered, or duplicated delivery is acceptable here.
//
// Two stream-based transports are provided: plain TCP, and WebRTC data
// channels for peers separated by NATs. WebRTC connection establishment
// requires a signaling mechanism to exchange SDP offers and answers, defined
// in the signal sub-package and implemented over WAMP in the wamp
// sub-package. An in-memory transport supports tests.
package net
