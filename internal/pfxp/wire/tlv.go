package wire

import (
	"encoding/binary"
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

// TLV is a single tag-length-value record carried inside a payload.
type TLV struct {
	Tag   uint8
	Value []byte
}

// EncodeTLVs serializes items in order as tag:u8 || length:u16_be || value.
func EncodeTLVs(items []TLV) ([]byte, error) {
	var size int
	for _, item := range items {
		if len(item.Value) > 0xFFFF {
			return nil, pfxperrors.NewPayloadError("encode.tlv.value_length", fmt.Errorf("tag %d value of %d bytes exceeds 65535", item.Tag, len(item.Value)))
		}
		size += 1 + 2 + len(item.Value)
	}

	buf := make([]byte, 0, size)
	for _, item := range items {
		buf = append(buf, item.Tag)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(item.Value)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, item.Value...)
	}
	return buf, nil
}

// DecodeTLVs parses a concatenation of TLV records into a tag→value map.
// Duplicate tags: the last occurrence wins.
func DecodeTLVs(payload []byte) (map[uint8][]byte, error) {
	out := make(map[uint8][]byte)
	pos := 0
	for pos < len(payload) {
		if len(payload)-pos < 3 {
			return nil, pfxperrors.NewPayloadError("decode.tlv.truncated_header", fmt.Errorf("%d bytes remaining, need at least 3", len(payload)-pos))
		}
		tag := payload[pos]
		length := int(binary.BigEndian.Uint16(payload[pos+1 : pos+3]))
		pos += 3
		if length > len(payload)-pos {
			return nil, pfxperrors.NewPayloadError("decode.tlv.truncated_value", fmt.Errorf("tag %d declares length %d, only %d bytes remain", tag, length, len(payload)-pos))
		}
		out[tag] = payload[pos : pos+length]
		pos += length
	}
	return out, nil
}

// requireTag fetches a required tag from a decoded TLV map, failing with a
// named operation if it is absent.
func requireTag(fields map[uint8][]byte, tag uint8, op string) ([]byte, error) {
	v, ok := fields[tag]
	if !ok {
		return nil, pfxperrors.NewPayloadError(op, fmt.Errorf("missing required tag %d", tag))
	}
	return v, nil
}
