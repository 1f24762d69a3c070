package wire

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestFinAckRoundTrip(t *testing.T) {
	digest := sha256.Sum256([]byte("reassembled file"))
	cases := []FinAck{
		{Verified: true, ReceiverDigest: digest[:]},
		{Verified: false, ReceiverDigest: digest[:]},
	}
	for _, fa := range cases {
		payload, err := BuildFinAckPayload(fa)
		if err != nil {
			t.Fatalf("BuildFinAckPayload: %v", err)
		}
		got, err := ParseFinAckPayload(payload)
		if err != nil {
			t.Fatalf("ParseFinAckPayload: %v", err)
		}
		if got.Verified != fa.Verified || !bytes.Equal(got.ReceiverDigest, fa.ReceiverDigest) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, fa)
		}
	}
}

func TestParseFinAckPayloadRequiresAllTags(t *testing.T) {
	payload, err := EncodeTLVs([]TLV{{Tag: tagFinAckVerified, Value: []byte{0x01}}})
	if err != nil {
		t.Fatalf("EncodeTLVs: %v", err)
	}
	if _, err := ParseFinAckPayload(payload); err == nil {
		t.Fatalf("expected error for missing digest tag")
	}
}
