// Package wire implements the PFXP datagram framing: the fixed 24-byte
// frame header, the TLV codec carried inside payloads, and the typed
// builders/parsers for each message kind exchanged between sender and
// receiver.
package wire

import (
	"encoding/binary"
	"fmt"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

// Magic is the 4-byte ASCII value that opens every PFXP datagram.
const Magic = "PFXP"

// Version is the only protocol version this implementation speaks.
const Version = 1

// HeaderLen is the fixed length of the outer frame envelope.
const HeaderLen = 24

// DefaultMaxDatagramSize is the advertised ceiling on one PFXP datagram
// (header + payload): the default chunk size of 1024 plus the DATA
// offset field and header fits comfortably under it. It is not enforced
// on the wire (spec: sends are merely "assumed non-blocking" at or below
// it) but both the transfer defaults and internal/bufpool's receive
// buffers size themselves off this one constant rather than repeating
// the literal.
const DefaultMaxDatagramSize = 1200

// FrameType enumerates the one-byte frame_type tag.
type FrameType uint8

const (
	FrameHello  FrameType = 0x01
	FrameOffer  FrameType = 0x02
	FrameAccept FrameType = 0x03
	FrameData   FrameType = 0x04
	FrameAck    FrameType = 0x05
	FrameNack   FrameType = 0x06
	FrameFin    FrameType = 0x07
	FrameFinAck FrameType = 0x08
	FrameAbort  FrameType = 0x09
	FramePing   FrameType = 0x0A
	FramePong   FrameType = 0x0B
)

func (t FrameType) String() string {
	switch t {
	case FrameHello:
		return "HELLO"
	case FrameOffer:
		return "OFFER"
	case FrameAccept:
		return "ACCEPT"
	case FrameData:
		return "DATA"
	case FrameAck:
		return "ACK"
	case FrameNack:
		return "NACK"
	case FrameFin:
		return "FIN"
	case FrameFinAck:
		return "FIN_ACK"
	case FrameAbort:
		return "ABORT"
	case FramePing:
		return "PING"
	case FramePong:
		return "PONG"
	default:
		return fmt.Sprintf("FRAME(0x%02x)", uint8(t))
	}
}

// knownFrameType reports whether t is one of the enumerated values above.
func knownFrameType(t FrameType) bool {
	switch t {
	case FrameHello, FrameOffer, FrameAccept, FrameData, FrameAck,
		FrameNack, FrameFin, FrameFinAck, FrameAbort, FramePing, FramePong:
		return true
	default:
		return false
	}
}

// FrameHeader is the 24-byte big-endian fixed envelope preceding every
// payload on the wire.
type FrameHeader struct {
	Version    uint8
	FrameType  FrameType
	Flags      uint8
	HeaderLen  uint8
	TransferID uint64
	Seq        uint32
	PayloadLen uint32
}

// EncodeFrame serializes header and payload into one datagram. It rejects
// any header that does not describe the payload it is paired with.
func EncodeFrame(header FrameHeader, payload []byte) ([]byte, error) {
	if header.Version != Version {
		return nil, pfxperrors.NewFrameError("encode.version", fmt.Errorf("unsupported version %d", header.Version))
	}
	if header.HeaderLen != HeaderLen {
		return nil, pfxperrors.NewFrameError("encode.header_len", fmt.Errorf("header_len must be %d, got %d", HeaderLen, header.HeaderLen))
	}
	if int(header.PayloadLen) != len(payload) {
		return nil, pfxperrors.NewFrameError("encode.payload_len", fmt.Errorf("payload_len %d does not match payload of %d bytes", header.PayloadLen, len(payload)))
	}

	buf := make([]byte, HeaderLen+len(payload))
	copy(buf[0:4], Magic)
	buf[4] = header.Version
	buf[5] = uint8(header.FrameType)
	buf[6] = header.Flags
	buf[7] = header.HeaderLen
	binary.BigEndian.PutUint64(buf[8:16], header.TransferID)
	binary.BigEndian.PutUint32(buf[16:20], header.Seq)
	binary.BigEndian.PutUint32(buf[20:24], header.PayloadLen)
	copy(buf[HeaderLen:], payload)
	return buf, nil
}

// DecodeFrame parses a raw datagram into its header and payload, validating
// in the order the wire format requires: overall length, magic, version,
// header_len, then the payload-length match and frame_type enumeration.
func DecodeFrame(datagram []byte) (FrameHeader, []byte, error) {
	var h FrameHeader

	if len(datagram) < HeaderLen {
		return h, nil, pfxperrors.NewFrameError("decode.length", fmt.Errorf("datagram of %d bytes shorter than header", len(datagram)))
	}
	if string(datagram[0:4]) != Magic {
		return h, nil, pfxperrors.NewFrameError("decode.magic", fmt.Errorf("bad magic %q", datagram[0:4]))
	}
	version := datagram[4]
	if version != Version {
		return h, nil, pfxperrors.NewFrameError("decode.version", fmt.Errorf("unsupported version %d", version))
	}
	headerLen := datagram[7]
	if headerLen < HeaderLen {
		return h, nil, pfxperrors.NewFrameError("decode.header_len", fmt.Errorf("header_len %d smaller than minimum %d", headerLen, HeaderLen))
	}
	if len(datagram) < int(headerLen) {
		return h, nil, pfxperrors.NewFrameError("decode.length", fmt.Errorf("datagram of %d bytes shorter than header_len %d", len(datagram), headerLen))
	}

	payload := datagram[headerLen:]
	payloadLen := binary.BigEndian.Uint32(datagram[20:24])
	if int(payloadLen) != len(payload) {
		return h, nil, pfxperrors.NewFrameError("decode.payload_len", fmt.Errorf("payload_len %d does not match trailing %d bytes", payloadLen, len(payload)))
	}

	frameType := FrameType(datagram[5])
	if !knownFrameType(frameType) {
		return h, nil, pfxperrors.NewFrameError("decode.frame_type", fmt.Errorf("unknown frame_type 0x%02x", datagram[5]))
	}

	h = FrameHeader{
		Version:    version,
		FrameType:  frameType,
		Flags:      datagram[6],
		HeaderLen:  headerLen,
		TransferID: binary.BigEndian.Uint64(datagram[8:16]),
		Seq:        binary.BigEndian.Uint32(datagram[16:20]),
		PayloadLen: payloadLen,
	}
	return h, payload, nil
}
