package common

import "hash/fnv"

// Hash32 collapses a byte slice into a uint32 with FNV-1a. Player IDs are
// derived from public keys this way.
func Hash32(data []byte) uint32 {
	h := fnv.New32a()
	h.Write(data)
	return h.Sum32()
}
