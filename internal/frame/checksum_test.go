package frame

import "testing"

func TestLRC(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{name: "empty data", data: []byte{}, want: 0},
		{name: "single byte", data: []byte{0x42}, want: 0x42},
		{name: "two bytes xor to zero", data: []byte{0x10, 0x10}, want: 0x00},
		{name: "two distinct bytes", data: []byte{0x10, 0x20}, want: 0x30},
		{name: "multiple bytes", data: []byte{0x01, 0x02, 0x03, 0x04}, want: 0x04},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := LRC(tt.data); got != tt.want {
				t.Errorf("LRC() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

// TestLRCSelfConsistency mirrors the property that flipping any single byte
// of the checksummed range changes the computed LRC.
func TestLRCSelfConsistency(t *testing.T) {
	t.Parallel()
	data := []byte{0x30, 0x31, 0x30, 0x39, 0x36, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, ETX}
	base := LRC(data)

	for i := range data {
		mutated := append([]byte(nil), data...)
		mutated[i] ^= 0xFF
		if LRC(mutated) == base {
			t.Errorf("flipping byte %d did not change LRC (%#x)", i, base)
		}
	}
}
