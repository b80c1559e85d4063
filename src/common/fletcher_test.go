package common

import "testing"

func TestFletcher16(t *testing.T) {
	// Reference values from the Fletcher-16 definition.
	testCases := []struct {
		input    string
		expected uint16
	}{
		{"abcde", 0xC8F0},
		{"abcdef", 0x2057},
		{"abcdefgh", 0x0627},
	}

	for _, tc := range testCases {
		if got := Fletcher16([]byte(tc.input)); got != tc.expected {
			t.Fatalf("Fletcher16(%q) should be 0x%04X, not 0x%04X", tc.input, tc.expected, got)
		}
	}
}

func TestFletcher16Empty(t *testing.T) {
	if got := Fletcher16(nil); got != 0 {
		t.Fatalf("Fletcher16(nil) should be 0, not 0x%04X", got)
	}
	if got := Fletcher16([]byte{}); got != 0 {
		t.Fatalf("Fletcher16(empty) should be 0, not 0x%04X", got)
	}
}

func TestFletcher16Deterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	first := Fletcher16(data)
	for i := 0; i < 100; i++ {
		if got := Fletcher16(data); got != first {
			t.Fatalf("Fletcher16 not deterministic: 0x%04X != 0x%04X", got, first)
		}
	}
}

func TestFletcher16OrderSensitive(t *testing.T) {
	a := Fletcher16([]byte{1, 2, 3, 4})
	b := Fletcher16([]byte{4, 3, 2, 1})
	if a == b {
		t.Fatal("Fletcher16 should be sensitive to byte order")
	}
}
