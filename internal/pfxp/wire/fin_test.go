package wire

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestFinRoundTrip(t *testing.T) {
	digest := sha256.Sum256([]byte("final contents"))
	f := Fin{LastSeq: 41, Digest: digest[:]}

	payload, err := BuildFinPayload(f)
	if err != nil {
		t.Fatalf("BuildFinPayload: %v", err)
	}
	got, err := ParseFinPayload(payload)
	if err != nil {
		t.Fatalf("ParseFinPayload: %v", err)
	}
	if got.LastSeq != f.LastSeq || !bytes.Equal(got.Digest, f.Digest) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestFinZeroLengthFile(t *testing.T) {
	digest := sha256.Sum256(nil)
	f := Fin{LastSeq: 0, Digest: digest[:]}

	payload, err := BuildFinPayload(f)
	if err != nil {
		t.Fatalf("BuildFinPayload: %v", err)
	}
	got, err := ParseFinPayload(payload)
	if err != nil {
		t.Fatalf("ParseFinPayload: %v", err)
	}
	if got.LastSeq != 0 {
		t.Fatalf("expected last_seq 0, got %d", got.LastSeq)
	}
}

func TestParseFinPayloadRequiresAllTags(t *testing.T) {
	payload, err := EncodeTLVs([]TLV{{Tag: tagFinLastSeq, Value: []byte{0, 0, 0, 0}}})
	if err != nil {
		t.Fatalf("EncodeTLVs: %v", err)
	}
	if _, err := ParseFinPayload(payload); err == nil {
		t.Fatalf("expected error for missing digest tag")
	}
}
