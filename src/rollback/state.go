package rollback

// State holds the most recent serialized snapshot of the physics world and
// its fingerprint. There is exactly one State per peer; it is overwritten
// every frame by Save and read back during rollback replays.
type State struct {
	// Bytes is the serialized world state. It is nil until the first
	// successful capture.
	Bytes []byte

	// Checksum is the Fletcher-16 fingerprint of Bytes.
	Checksum uint16
}
