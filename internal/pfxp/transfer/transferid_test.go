package transfer

import "testing"

func TestNewTransferIDNonZero(t *testing.T) {
	id := NewTransferID()
	if id == 0 {
		t.Fatalf("NewTransferID returned 0, exceedingly unlikely for a random id")
	}
}

func TestNewTransferIDVaries(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 32; i++ {
		id := NewTransferID()
		if seen[id] {
			t.Fatalf("NewTransferID produced a repeat across %d draws: %d", i+1, id)
		}
		seen[id] = true
	}
}
