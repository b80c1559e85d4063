// Package session implements the synchronization layer of a rewind peer.
//
// It is split in two, in the manner of a consensus node:
//
//   - Core is the deterministic heart. It owns the world, the snapshot
//     manager, the outbound fingerprint ledger and one inbound ledger per
//     remote player. Its RunFrame method executes the fixed per-frame
//     sequence: restore (when rolling back), toggle the physics gate, apply
//     inputs, step, save and record the fingerprint.
//
//   - Node wraps Core with the non-deterministic machinery: a fixed-tick
//     control timer, the transport consumer, input broadcasting, and a small
//     state machine (Running, Suspended, Desynced, Shutdown).
//
// A desync is detected when a remote player's reported fingerprint for a
// confirmed frame conflicts with the locally computed one. It is fatal: the
// node moves to the Desynced state, records the fault, and stops stepping.
package session
