package wire

import (
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

const (
	tagAcceptFlag   uint8 = 1
	tagAcceptReason uint8 = 2
)

// Accept is the receiver's reply to an OFFER.
type Accept struct {
	Accepted bool
	Reason   string
}

// BuildAcceptPayload serializes an Accept into its TLV payload. Reason is
// omitted from the wire when empty.
func BuildAcceptPayload(a Accept) ([]byte, error) {
	flag := byte(0x00)
	if a.Accepted {
		flag = 0x01
	}
	items := []TLV{{Tag: tagAcceptFlag, Value: []byte{flag}}}
	if a.Reason != "" {
		items = append(items, TLV{Tag: tagAcceptReason, Value: []byte(a.Reason)})
	}
	return EncodeTLVs(items)
}

// ParseAcceptPayload reconstructs an Accept from a decoded TLV payload.
func ParseAcceptPayload(payload []byte) (Accept, error) {
	fields, err := DecodeTLVs(payload)
	if err != nil {
		return Accept{}, err
	}

	flag, err := requireTag(fields, tagAcceptFlag, "decode.accept.flag")
	if err != nil {
		return Accept{}, err
	}
	if len(flag) != 1 {
		return Accept{}, pfxperrors.NewPayloadError("decode.accept.flag", fmt.Errorf("expected 1 byte, got %d", len(flag)))
	}

	a := Accept{Accepted: flag[0] == 0x01}
	if reason, ok := fields[tagAcceptReason]; ok {
		a.Reason = string(reason)
	}
	return a, nil
}
