package wire

import (
	"encoding/binary"
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

const (
	tagFinLastSeq uint8 = 1
	tagFinDigest  uint8 = 2
)

// Fin carries the sender's final sequence number and locally computed
// digest, sent once all chunks have been acknowledged.
type Fin struct {
	LastSeq uint32
	Digest  []byte
}

// BuildFinPayload serializes a Fin into its TLV payload.
func BuildFinPayload(f Fin) ([]byte, error) {
	var lastSeq [4]byte
	binary.BigEndian.PutUint32(lastSeq[:], f.LastSeq)
	return EncodeTLVs([]TLV{
		{Tag: tagFinLastSeq, Value: lastSeq[:]},
		{Tag: tagFinDigest, Value: f.Digest},
	})
}

// ParseFinPayload reconstructs a Fin from a decoded TLV payload.
func ParseFinPayload(payload []byte) (Fin, error) {
	fields, err := DecodeTLVs(payload)
	if err != nil {
		return Fin{}, err
	}

	lastSeqRaw, err := requireTag(fields, tagFinLastSeq, "decode.fin.last_seq")
	if err != nil {
		return Fin{}, err
	}
	if len(lastSeqRaw) != 4 {
		return Fin{}, pfxperrors.NewPayloadError("decode.fin.last_seq", fmt.Errorf("expected 4 bytes, got %d", len(lastSeqRaw)))
	}

	digestRaw, err := requireTag(fields, tagFinDigest, "decode.fin.digest")
	if err != nil {
		return Fin{}, err
	}

	return Fin{
		LastSeq: binary.BigEndian.Uint32(lastSeqRaw),
		Digest:  append([]byte(nil), digestRaw...),
	}, nil
}
