package wire

import "testing"

func TestHelloRoundTrip(t *testing.T) {
	h := Hello{
		Product:       "pfxp",
		ProductVer:    "1.0",
		MaxDatagram:   1200,
		HashAlgorithm: "sha256",
	}

	payload, err := BuildHelloPayload(h)
	if err != nil {
		t.Fatalf("BuildHelloPayload: %v", err)
	}

	got, err := ParseHelloPayload(payload)
	if err != nil {
		t.Fatalf("ParseHelloPayload: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestParseHelloPayloadRequiresAllTags(t *testing.T) {
	payload, err := EncodeTLVs([]TLV{{Tag: tagHelloProduct, Value: []byte("pfxp")}})
	if err != nil {
		t.Fatalf("EncodeTLVs: %v", err)
	}
	if _, err := ParseHelloPayload(payload); err == nil {
		t.Fatalf("expected error for missing required tags")
	}
}
