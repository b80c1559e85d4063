package common

// Fletcher16 computes a 16-bit position-dependent checksum of data. It is the
// checksum used to fingerprint serialized simulation state: cheap enough to
// run on every frame, and sensitive enough that two diverged states are
// astronomically unlikely to collide for the lifetime of a session. It makes
// no cryptographic claims.
//
// The empty input is valid and hashes to 0.
func Fletcher16(data []byte) uint16 {
	var sum1, sum2 uint16

	for _, b := range data {
		sum1 = (sum1 + uint16(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}

	return sum2<<8 | sum1
}
