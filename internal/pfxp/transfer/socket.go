package transfer

import (
	"net"
	"time"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
	"github.com/alxayo/pfxp/internal/pfxp/wire"
)

// sendFrame encodes header+payload and writes it in one datagram to addr.
// A socket already connected to addr (the sender's dialed socket) is written
// with Write, since WriteToUDP is refused on a connected socket.
func sendFrame(conn *net.UDPConn, addr *net.UDPAddr, header wire.FrameHeader, payload []byte) error {
	datagram, err := wire.EncodeFrame(header, payload)
	if err != nil {
		return err
	}
	if conn.RemoteAddr() != nil {
		_, err = conn.Write(datagram)
	} else {
		_, err = conn.WriteToUDP(datagram, addr)
	}
	if err != nil {
		return pfxperrors.NewFrameError("send", err)
	}
	return nil
}

// recvFrame blocks for up to timeout waiting for one datagram, decoding it
// into a header and payload. A read that exceeds timeout is reported via
// errors.IsTimeout, not as an ordinary decode failure.
func recvFrame(conn *net.UDPConn, timeout time.Duration, buf []byte) (wire.FrameHeader, []byte, *net.UDPAddr, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return wire.FrameHeader{}, nil, nil, pfxperrors.NewSessionError("recv.set_deadline", err)
	}

	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return wire.FrameHeader{}, nil, nil, pfxperrors.NewTimeoutError("recv", timeout, err)
		}
		return wire.FrameHeader{}, nil, nil, pfxperrors.NewSessionError("recv.read", err)
	}

	header, payload, err := wire.DecodeFrame(buf[:n])
	if err != nil {
		return wire.FrameHeader{}, nil, addr, err
	}
	return header, payload, addr, nil
}
