package wire

import (
	"encoding/binary"
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

// dataOffsetFieldLen is the width of the informational offset_low32 field
// that opens every DATA payload. DATA is the one payload kind that is not
// TLV-encoded.
const dataOffsetFieldLen = 4

// BuildDataPayload serializes seq and chunk into a DATA payload: a 4-byte
// big-endian offset_low32 = (seq * chunk_size) mod 2^32, followed by the
// chunk bytes. offset_low32 is informational only; the authoritative chunk
// position is the frame header's seq field.
func BuildDataPayload(seq uint32, chunkSize uint16, chunk []byte) []byte {
	offsetLow32 := uint32((uint64(seq) * uint64(chunkSize)) & 0xFFFFFFFF)

	buf := make([]byte, dataOffsetFieldLen+len(chunk))
	binary.BigEndian.PutUint32(buf[:dataOffsetFieldLen], offsetLow32)
	copy(buf[dataOffsetFieldLen:], chunk)
	return buf
}

// ParseDataPayload splits a DATA payload into its offset_low32 field (not
// re-validated) and the chunk bytes.
func ParseDataPayload(payload []byte) (offsetLow32 uint32, chunk []byte, err error) {
	if len(payload) < dataOffsetFieldLen {
		return 0, nil, pfxperrors.NewPayloadError("decode.data.offset", fmt.Errorf("payload of %d bytes shorter than offset field", len(payload)))
	}
	offsetLow32 = binary.BigEndian.Uint32(payload[:dataOffsetFieldLen])
	chunk = payload[dataOffsetFieldLen:]
	return offsetLow32, chunk, nil
}
