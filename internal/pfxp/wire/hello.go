package wire

import (
	"encoding/binary"
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

const (
	tagHelloProduct       uint8 = 1
	tagHelloVersion       uint8 = 2
	tagHelloMaxDatagram   uint8 = 3
	tagHelloHashAlgorithm uint8 = 4
)

// Hello describes the peer identity and wire preferences exchanged at the
// start of a transfer. No field is cross-checked against the peer's reply
// in this implementation; HELLO is an identity echo, not a negotiation.
type Hello struct {
	Product       string
	ProductVer    string
	MaxDatagram   uint16
	HashAlgorithm string
}

// BuildHelloPayload serializes a Hello into its TLV payload.
func BuildHelloPayload(h Hello) ([]byte, error) {
	var maxDatagram [2]byte
	binary.BigEndian.PutUint16(maxDatagram[:], h.MaxDatagram)

	return EncodeTLVs([]TLV{
		{Tag: tagHelloProduct, Value: []byte(h.Product)},
		{Tag: tagHelloVersion, Value: []byte(h.ProductVer)},
		{Tag: tagHelloMaxDatagram, Value: maxDatagram[:]},
		{Tag: tagHelloHashAlgorithm, Value: []byte(h.HashAlgorithm)},
	})
}

// ParseHelloPayload reconstructs a Hello from a decoded TLV payload.
func ParseHelloPayload(payload []byte) (Hello, error) {
	fields, err := DecodeTLVs(payload)
	if err != nil {
		return Hello{}, err
	}

	product, err := requireTag(fields, tagHelloProduct, "decode.hello.product")
	if err != nil {
		return Hello{}, err
	}
	version, err := requireTag(fields, tagHelloVersion, "decode.hello.version")
	if err != nil {
		return Hello{}, err
	}
	maxDatagram, err := requireTag(fields, tagHelloMaxDatagram, "decode.hello.max_datagram")
	if err != nil {
		return Hello{}, err
	}
	if len(maxDatagram) != 2 {
		return Hello{}, pfxperrors.NewPayloadError("decode.hello.max_datagram", fmt.Errorf("expected 2 bytes, got %d", len(maxDatagram)))
	}
	hashAlgorithm, err := requireTag(fields, tagHelloHashAlgorithm, "decode.hello.hash_algorithm")
	if err != nil {
		return Hello{}, err
	}

	return Hello{
		Product:       string(product),
		ProductVer:    string(version),
		MaxDatagram:   binary.BigEndian.Uint16(maxDatagram),
		HashAlgorithm: string(hashAlgorithm),
	}, nil
}
