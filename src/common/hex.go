package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EncodeToString returns the uppercase hex representation of b, prefixed with
// 0X. Player public keys are rendered in this form everywhere: players.json,
// the signaling realm, and log fields.
func EncodeToString(b []byte) string {
	return fmt.Sprintf("0X%X", b)
}

// DecodeFromString converts a hex string produced by EncodeToString back to a
// byte slice. The 0X prefix is accepted in either case, or may be absent.
func DecodeFromString(s string) ([]byte, error) {
	if len(s) >= 2 && (s[:2] == "0X" || s[:2] == "0x") {
		s = s[2:]
	}
	return hex.DecodeString(strings.ToLower(s))
}
