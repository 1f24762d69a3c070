package wire

import (
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

const (
	tagFinAckVerified uint8 = 1
	tagFinAckDigest   uint8 = 2
)

// FinAck is the receiver's reply to FIN, carrying the verification result
// and the digest it computed from the reassembled file.
type FinAck struct {
	Verified       bool
	ReceiverDigest []byte
}

// BuildFinAckPayload serializes a FinAck into its TLV payload.
func BuildFinAckPayload(f FinAck) ([]byte, error) {
	verified := byte(0x00)
	if f.Verified {
		verified = 0x01
	}
	return EncodeTLVs([]TLV{
		{Tag: tagFinAckVerified, Value: []byte{verified}},
		{Tag: tagFinAckDigest, Value: f.ReceiverDigest},
	})
}

// ParseFinAckPayload reconstructs a FinAck from a decoded TLV payload.
func ParseFinAckPayload(payload []byte) (FinAck, error) {
	fields, err := DecodeTLVs(payload)
	if err != nil {
		return FinAck{}, err
	}

	verifiedRaw, err := requireTag(fields, tagFinAckVerified, "decode.finack.verified")
	if err != nil {
		return FinAck{}, err
	}
	if len(verifiedRaw) != 1 {
		return FinAck{}, pfxperrors.NewPayloadError("decode.finack.verified", fmt.Errorf("expected 1 byte, got %d", len(verifiedRaw)))
	}

	digestRaw, err := requireTag(fields, tagFinAckDigest, "decode.finack.digest")
	if err != nil {
		return FinAck{}, err
	}

	return FinAck{
		Verified:       verifiedRaw[0] == 0x01,
		ReceiverDigest: append([]byte(nil), digestRaw...),
	}, nil
}
