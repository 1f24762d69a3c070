package wire

import (
	"bytes"
	"testing"
)

func TestDataPayloadRoundTrip(t *testing.T) {
	chunk := []byte("payload bytes for this chunk")
	payload := BuildDataPayload(3, 1024, chunk)

	offset, got, err := ParseDataPayload(payload)
	if err != nil {
		t.Fatalf("ParseDataPayload: %v", err)
	}
	if offset != 3*1024 {
		t.Fatalf("offset_low32 = %d, want %d", offset, 3*1024)
	}
	if !bytes.Equal(got, chunk) {
		t.Fatalf("chunk mismatch: got %q, want %q", got, chunk)
	}
}

func TestDataPayloadOffsetWraps(t *testing.T) {
	// seq * chunk_size overflows u32; offset_low32 wraps modulo 2^32 but the
	// chunk bytes still round-trip since offset is informational only.
	payload := BuildDataPayload(5_000_000, 65535, []byte("x"))
	offset, chunk, err := ParseDataPayload(payload)
	if err != nil {
		t.Fatalf("ParseDataPayload: %v", err)
	}
	want := uint32((uint64(5_000_000) * uint64(65535)) & 0xFFFFFFFF)
	if offset != want {
		t.Fatalf("offset_low32 = %d, want %d", offset, want)
	}
	if string(chunk) != "x" {
		t.Fatalf("chunk mismatch: got %q", chunk)
	}
}

func TestParseDataPayloadRejectsShortPayload(t *testing.T) {
	if _, _, err := ParseDataPayload([]byte{0x00, 0x01}); err == nil {
		t.Fatalf("expected error for payload shorter than offset field")
	}
}

func TestDataPayloadEmptyChunk(t *testing.T) {
	payload := BuildDataPayload(0, 1024, nil)
	_, chunk, err := ParseDataPayload(payload)
	if err != nil {
		t.Fatalf("ParseDataPayload: %v", err)
	}
	if len(chunk) != 0 {
		t.Fatalf("expected empty chunk, got %q", chunk)
	}
}
