package transfer

import (
	"crypto/sha256"
	"fmt"
	"net"
	"os"
	"path/filepath"

	digest "github.com/opencontainers/go-digest"

	"github.com/alxayo/pfxp/internal/bufpool"
	pfxperrors "github.com/alxayo/pfxp/internal/errors"
	"github.com/alxayo/pfxp/internal/logger"
	"github.com/alxayo/pfxp/internal/pfxp/wire"
)

// ReceiveResult summarizes one completed inbound transfer.
type ReceiveResult struct {
	TransferID uint64
	OutputPath string
	FileSize   uint64
	Verified   bool
	Digest     []byte
}

// receiverSession is transient state local to one ReceiveOne call.
type receiverSession struct {
	conn       *net.UDPConn
	peer       *net.UDPAddr
	cfg        ReceiverConfig
	transferID uint64
	log        *logger.Entry
	buf        []byte
}

// ReceiveOne binds a socket on cfg.BindHost:cfg.Port and serves exactly one
// transfer end to end: LISTENING -> HELLO_RECEIVED -> OFFER_RECEIVED ->
// RECEIVING -> FIN_RECEIVED -> DONE. The output file handle is opened once
// and held for the whole receive loop.
func ReceiveOne(cfg ReceiverConfig) (ReceiveResult, error) {
	cfg.applyDefaults()

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return ReceiveResult{}, pfxperrors.NewSessionError("receive.mkdir", err)
	}

	bindAddr := &net.UDPAddr{IP: net.ParseIP(cfg.BindHost), Port: cfg.Port}
	conn, err := net.ListenUDP("udp", bindAddr)
	if err != nil {
		return ReceiveResult{}, pfxperrors.NewSessionError("receive.listen", err)
	}
	defer conn.Close()

	sess := &receiverSession{
		conn: conn,
		cfg:  cfg,
		log:  logger.Logger(),
		// Unlike the sender, the receiver must accept DATA frames up to a
		// full datagram, so it stays on bufpool's larger size class for
		// its whole lifetime rather than bufpool.SmallReplySize.
		buf: bufpool.Get(wire.DefaultMaxDatagramSize),
	}
	defer bufpool.Put(sess.buf)

	sess.log.Info("receiver listening", "bind", bindAddr.String())

	if err := sess.awaitHello(); err != nil {
		return ReceiveResult{}, err
	}

	offer, outputPath, file, err := sess.awaitOffer()
	if err != nil {
		return ReceiveResult{}, err
	}
	defer file.Close()

	if err := sess.receiveChunks(offer, file); err != nil {
		return ReceiveResult{}, err
	}

	verified, localDigest, err := sess.awaitFin(offer, outputPath)
	if err != nil {
		return ReceiveResult{}, err
	}

	sess.log.Info("receiver done", "output_path", outputPath, "verified", verified)
	return ReceiveResult{
		TransferID: sess.transferID,
		OutputPath: outputPath,
		FileSize:   offer.FileSize,
		Verified:   verified,
		Digest:     localDigest,
	}, nil
}

func (s *receiverSession) awaitHello() error {
	var header wire.FrameHeader
	var addr *net.UDPAddr
	for {
		var err error
		header, _, addr, err = recvFrame(s.conn, s.cfg.Timeout, s.buf)
		if err != nil {
			if pfxperrors.IsProtocolError(err) {
				continue // malformed datagram, not from a known peer yet; drop and keep listening
			}
			return err
		}
		break
	}
	if header.FrameType != wire.FrameHello {
		return pfxperrors.NewSessionError("receive.expect_hello", fmt.Errorf("expected HELLO, got %s", header.FrameType))
	}

	s.peer = addr
	s.transferID = header.TransferID
	s.log = logger.WithTransfer(logger.WithPeer(logger.Logger(), addr.String()), s.transferID, "")

	helloPayload, err := wire.BuildHelloPayload(wire.Hello{
		Product:       defaultProduct,
		ProductVer:    defaultProductVersion,
		MaxDatagram:   defaultMaxDatagramSize,
		HashAlgorithm: defaultHashAlgorithm,
	})
	if err != nil {
		return err
	}
	return sendFrame(s.conn, s.peer, s.replyHeader(wire.FrameHello, 0, len(helloPayload)), helloPayload)
}

func (s *receiverSession) awaitOffer() (wire.Offer, string, *os.File, error) {
	var offer wire.Offer
	for {
		header, payload, addr, err := recvFrame(s.conn, s.cfg.Timeout, s.buf)
		if err != nil {
			if pfxperrors.IsProtocolError(err) {
				continue // malformed or stray datagram, drop and keep waiting for the OFFER
			}
			return wire.Offer{}, "", nil, err
		}
		if !s.isFromPeer(addr) || header.TransferID != s.transferID {
			continue
		}
		if header.FrameType != wire.FrameOffer {
			return wire.Offer{}, "", nil, pfxperrors.NewSessionError("receive.expect_offer", fmt.Errorf("expected OFFER, got %s", header.FrameType))
		}
		offer, err = wire.ParseOfferPayload(payload)
		if err != nil {
			return wire.Offer{}, "", nil, err
		}
		break
	}

	outputPath := filepath.Join(s.cfg.OutDir, offer.Filename)
	file, err := os.OpenFile(outputPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return wire.Offer{}, "", nil, pfxperrors.NewSessionError("receive.open_output", err)
	}
	if err := file.Truncate(int64(offer.FileSize)); err != nil {
		file.Close()
		return wire.Offer{}, "", nil, pfxperrors.NewSessionError("receive.truncate_output", err)
	}

	acceptPayload, err := wire.BuildAcceptPayload(wire.Accept{Accepted: true})
	if err != nil {
		file.Close()
		return wire.Offer{}, "", nil, err
	}
	if err := sendFrame(s.conn, s.peer, s.replyHeader(wire.FrameAccept, 0, len(acceptPayload)), acceptPayload); err != nil {
		file.Close()
		return wire.Offer{}, "", nil, err
	}

	return offer, outputPath, file, nil
}

func (s *receiverSession) receiveChunks(offer wire.Offer, file *os.File) error {
	received := make(map[uint32]bool, offer.TotalChunks)
	for uint32(len(received)) < offer.TotalChunks {
		header, payload, addr, err := recvFrame(s.conn, s.cfg.Timeout, s.buf)
		if err != nil {
			if pfxperrors.IsProtocolError(err) {
				continue // malformed or stray datagram mid-transfer, drop it
			}
			return err
		}
		if !s.isFromPeer(addr) || header.TransferID != s.transferID || header.FrameType != wire.FrameData {
			continue
		}

		seq := header.Seq
		_, chunk, err := wire.ParseDataPayload(payload)
		if err != nil {
			return err
		}
		if !received[seq] {
			if _, err := file.WriteAt(chunk, int64(seq)*int64(offer.ChunkSize)); err != nil {
				return pfxperrors.NewSessionError("receive.write_chunk", err)
			}
			received[seq] = true
		}

		ackPayload, err := wire.BuildRangesPayload([]wire.Range{{Start: seq, End: seq}})
		if err != nil {
			return err
		}
		if err := sendFrame(s.conn, s.peer, s.replyHeader(wire.FrameAck, seq, len(ackPayload)), ackPayload); err != nil {
			return err
		}
	}
	return nil
}

func (s *receiverSession) awaitFin(offer wire.Offer, outputPath string) (bool, []byte, error) {
	var fin wire.Fin
	for {
		header, payload, addr, err := recvFrame(s.conn, s.cfg.Timeout, s.buf)
		if err != nil {
			if pfxperrors.IsProtocolError(err) {
				continue // malformed or stray datagram, drop and keep waiting for FIN
			}
			return false, nil, err
		}
		if !s.isFromPeer(addr) || header.TransferID != s.transferID {
			continue
		}
		if header.FrameType == wire.FrameData {
			// A retransmitted chunk whose ACK was lost: acknowledge it again
			// so the sender can move on to FIN.
			ackPayload, err := wire.BuildRangesPayload([]wire.Range{{Start: header.Seq, End: header.Seq}})
			if err != nil {
				return false, nil, err
			}
			if err := sendFrame(s.conn, s.peer, s.replyHeader(wire.FrameAck, header.Seq, len(ackPayload)), ackPayload); err != nil {
				return false, nil, err
			}
			continue
		}
		if header.FrameType != wire.FrameFin {
			return false, nil, pfxperrors.NewSessionError("receive.expect_fin", fmt.Errorf("expected FIN, got %s", header.FrameType))
		}
		fin, err = wire.ParseFinPayload(payload)
		if err != nil {
			return false, nil, err
		}
		break
	}

	contents, err := os.ReadFile(outputPath)
	if err != nil {
		return false, nil, pfxperrors.NewSessionError("receive.reread_output", err)
	}
	rawDigest := sha256.Sum256(contents)

	offerDigest, err := offer.Digest()
	if err != nil {
		return false, nil, pfxperrors.NewSessionError("receive.offer_digest", err)
	}
	localDigest := digest.NewDigestFromBytes(digest.SHA256, rawDigest[:])
	finDigest := digest.NewDigestFromBytes(digest.SHA256, fin.Digest)

	// Three-way equality: the locally recomputed digest, the offer's
	// announced digest, and the digest the sender carried in FIN must all
	// agree.
	verified := localDigest == offerDigest && offerDigest == finDigest

	s.log.Info("verifying digest", "local_digest", localDigest, "offer_digest", offerDigest, "fin_digest", finDigest, "verified", verified)

	finAckPayload, err := wire.BuildFinAckPayload(wire.FinAck{Verified: verified, ReceiverDigest: rawDigest[:]})
	if err != nil {
		return false, nil, err
	}
	if err := sendFrame(s.conn, s.peer, s.replyHeader(wire.FrameFinAck, 0, len(finAckPayload)), finAckPayload); err != nil {
		return false, nil, err
	}

	if !verified {
		return false, rawDigest[:], pfxperrors.NewSessionError("receive.verify", fmt.Errorf("digest mismatch: local=%s offer=%s fin=%s", localDigest, offerDigest, finDigest))
	}
	return true, rawDigest[:], nil
}

func (s *receiverSession) replyHeader(frameType wire.FrameType, seq uint32, payloadLen int) wire.FrameHeader {
	return wire.FrameHeader{
		Version:    wire.Version,
		FrameType:  frameType,
		HeaderLen:  wire.HeaderLen,
		TransferID: s.transferID,
		Seq:        seq,
		PayloadLen: uint32(payloadLen),
	}
}

func (s *receiverSession) isFromPeer(addr *net.UDPAddr) bool {
	return addr != nil && s.peer != nil && addr.IP.Equal(s.peer.IP) && addr.Port == s.peer.Port
}
