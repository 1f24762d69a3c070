package wire

import (
	"encoding/binary"
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

// Range is a closed interval [Start, End] of acknowledged sequence numbers.
type Range struct {
	Start uint32
	End   uint32
}

// Contains reports whether seq falls within the closed interval.
func (r Range) Contains(seq uint32) bool {
	return seq >= r.Start && seq <= r.End
}

// BuildRangesPayload serializes an ACK payload: u16_be count, then that
// many (start:u32_be, end:u32_be) records.
func BuildRangesPayload(ranges []Range) ([]byte, error) {
	if len(ranges) > 0xFFFF {
		return nil, pfxperrors.NewPayloadError("encode.ack.count", fmt.Errorf("%d ranges exceeds 65535", len(ranges)))
	}

	buf := make([]byte, 2+8*len(ranges))
	binary.BigEndian.PutUint16(buf[:2], uint16(len(ranges)))
	pos := 2
	for _, r := range ranges {
		binary.BigEndian.PutUint32(buf[pos:pos+4], r.Start)
		binary.BigEndian.PutUint32(buf[pos+4:pos+8], r.End)
		pos += 8
	}
	return buf, nil
}

// ParseRangesPayload reconstructs the range list from an ACK payload.
func ParseRangesPayload(payload []byte) ([]Range, error) {
	if len(payload) < 2 {
		return nil, pfxperrors.NewPayloadError("decode.ack.count", fmt.Errorf("payload of %d bytes shorter than count field", len(payload)))
	}
	count := int(binary.BigEndian.Uint16(payload[:2]))
	want := 2 + 8*count
	if len(payload) != want {
		return nil, pfxperrors.NewPayloadError("decode.ack.records", fmt.Errorf("count %d requires %d bytes, got %d", count, want, len(payload)))
	}

	ranges := make([]Range, count)
	pos := 2
	for i := 0; i < count; i++ {
		ranges[i] = Range{
			Start: binary.BigEndian.Uint32(payload[pos : pos+4]),
			End:   binary.BigEndian.Uint32(payload[pos+4 : pos+8]),
		}
		pos += 8
	}
	return ranges, nil
}

// ContainsSeq reports whether any range in the list covers seq.
func ContainsSeq(ranges []Range, seq uint32) bool {
	for _, r := range ranges {
		if r.Contains(seq) {
			return true
		}
	}
	return false
}
