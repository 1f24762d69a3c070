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

// SendResult summarizes a completed outbound transfer.
type SendResult struct {
	TransferID  uint64
	Filename    string
	FileSize    uint64
	TotalChunks uint32
	Digest      []byte
}

// senderSession is transient state local to one SendFile call; it holds no
// process-wide state and does not outlive the call.
type senderSession struct {
	conn       *net.UDPConn
	peer       *net.UDPAddr
	cfg        SenderConfig
	transferID uint64
	log        *logger.Entry
	buf        []byte
}

// SendFile reads filePath, opens a datagram socket to cfg.Host:cfg.Port, and
// drives the OPEN -> HELLO_SENT -> OFFER_SENT -> TRANSFERRING -> FIN_SENT ->
// DONE state machine to deliver it, retrying each chunk up to
// cfg.MaxRetries times before failing with a timeout error.
func SendFile(cfg SenderConfig, filePath string) (SendResult, error) {
	cfg.applyDefaults()

	data, err := readSourceFile(filePath)
	if err != nil {
		return SendResult{}, pfxperrors.NewSessionError("send.read_file", err)
	}
	fileDigest := sha256.Sum256(data)
	fileDigestValue := digest.NewDigestFromBytes(digest.SHA256, fileDigest[:])
	totalChunks := wire.TotalChunksFor(uint64(len(data)), cfg.ChunkSize)
	transferID := NewTransferID()

	peer, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return SendResult{}, pfxperrors.NewSessionError("send.resolve_peer", err)
	}
	conn, err := net.DialUDP("udp", nil, peer)
	if err != nil {
		return SendResult{}, pfxperrors.NewSessionError("send.dial", err)
	}
	defer conn.Close()

	sess := &senderSession{
		conn:       conn,
		peer:       peer,
		cfg:        cfg,
		transferID: transferID,
		log:        logger.WithTransfer(logger.WithPeer(logger.Logger(), peer.String()), transferID, ""),
		buf:        bufpool.Get(bufpool.SmallReplySize),
	}
	defer bufpool.Put(sess.buf)

	sess.log.Info("sender starting", "file", filePath, "file_size", len(data), "total_chunks", totalChunks, "digest", fileDigestValue)

	if err := sess.handshake(); err != nil {
		return SendResult{}, err
	}

	// The local source path is trusted input from the CLI caller, not wire
	// data; only its trailing component is sent, same trust boundary as the
	// receiver applies in reverse (see wire.NormalizeFilename).
	filename := filepath.Base(filePath)

	offer := wire.Offer{
		Filename:      filename,
		FileSize:      uint64(len(data)),
		ChunkSize:     cfg.ChunkSize,
		TotalChunks:   totalChunks,
		HashAlgorithm: cfg.HashAlgorithm,
		HashDigest:    fileDigest[:],
	}
	if err := sess.offer(offer); err != nil {
		return SendResult{}, err
	}

	if err := sess.transferChunks(data, totalChunks); err != nil {
		return SendResult{}, err
	}

	if err := sess.finalize(totalChunks, fileDigest[:]); err != nil {
		return SendResult{}, err
	}

	sess.log.Info("sender done", "file_size", len(data), "digest", fileDigestValue)
	return SendResult{
		TransferID:  transferID,
		Filename:    filename,
		FileSize:    uint64(len(data)),
		TotalChunks: totalChunks,
		Digest:      fileDigest[:],
	}, nil
}

// readSourceFile isolates the in-memory buffering behind one seam; a
// streaming rewrite only needs to replace this function.
func readSourceFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *senderSession) handshake() error {
	helloPayload, err := wire.BuildHelloPayload(wire.Hello{
		Product:       defaultProduct,
		ProductVer:    defaultProductVersion,
		MaxDatagram:   s.cfg.MaxDatagramSize,
		HashAlgorithm: s.cfg.HashAlgorithm,
	})
	if err != nil {
		return err
	}
	if err := sendFrame(s.conn, s.peer, s.header(wire.FrameHello, 0, len(helloPayload)), helloPayload); err != nil {
		return err
	}

	header, _, addr, err := s.awaitReply()
	if err != nil {
		return err
	}
	if err := s.checkReply(header, addr, wire.FrameHello); err != nil {
		return err
	}
	return nil
}

func (s *senderSession) offer(offer wire.Offer) error {
	payload, err := wire.BuildOfferPayload(offer)
	if err != nil {
		return err
	}
	if err := sendFrame(s.conn, s.peer, s.header(wire.FrameOffer, 0, len(payload)), payload); err != nil {
		return err
	}

	header, acceptPayload, addr, err := s.awaitReply()
	if err != nil {
		return err
	}
	if err := s.checkReply(header, addr, wire.FrameAccept); err != nil {
		return err
	}
	accept, err := wire.ParseAcceptPayload(acceptPayload)
	if err != nil {
		return err
	}
	if !accept.Accepted {
		return pfxperrors.NewSessionError("send.offer_rejected", fmt.Errorf("peer rejected offer: %s", accept.Reason))
	}
	return nil
}

func (s *senderSession) transferChunks(data []byte, totalChunks uint32) error {
	for seq := uint32(0); seq < totalChunks; seq++ {
		start := uint64(seq) * uint64(s.cfg.ChunkSize)
		end := start + uint64(s.cfg.ChunkSize)
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}
		chunk := data[start:end]
		payload := wire.BuildDataPayload(seq, s.cfg.ChunkSize, chunk)
		header := s.header(wire.FrameData, seq, len(payload))

		acked := false
		for attempt := 0; attempt < s.cfg.MaxRetries && !acked; attempt++ {
			if err := sendFrame(s.conn, s.peer, header, payload); err != nil {
				return err
			}

			for {
				replyHeader, replyPayload, addr, err := recvFrame(s.conn, s.cfg.Timeout, s.buf)
				if err != nil {
					if pfxperrors.IsTimeout(err) {
						break // consume this attempt, resend
					}
					if pfxperrors.IsProtocolError(err) {
						continue // malformed or stray datagram, discard within this attempt
					}
					return err
				}
				if !s.isFromPeer(addr) || replyHeader.TransferID != s.transferID || replyHeader.FrameType != wire.FrameAck {
					continue // stray frame, discard and keep reading within this attempt
				}
				ranges, err := wire.ParseRangesPayload(replyPayload)
				if err != nil {
					return err
				}
				if wire.ContainsSeq(ranges, seq) {
					acked = true
					break
				}
				// ACK for a different chunk; keep waiting within this attempt.
			}
		}
		if !acked {
			return pfxperrors.NewTimeoutError(fmt.Sprintf("send.chunk[%d]", seq), s.cfg.Timeout, nil)
		}
	}
	return nil
}

func (s *senderSession) finalize(totalChunks uint32, localDigest []byte) error {
	lastSeq := uint32(0)
	if totalChunks > 0 {
		lastSeq = totalChunks - 1
	}
	finPayload, err := wire.BuildFinPayload(wire.Fin{LastSeq: lastSeq, Digest: localDigest})
	if err != nil {
		return err
	}
	if err := sendFrame(s.conn, s.peer, s.header(wire.FrameFin, 0, len(finPayload)), finPayload); err != nil {
		return err
	}

	header, payload, addr, err := s.awaitReply()
	if err != nil {
		return err
	}
	if err := s.checkReply(header, addr, wire.FrameFinAck); err != nil {
		return err
	}
	finAck, err := wire.ParseFinAckPayload(payload)
	if err != nil {
		return err
	}

	localDigestValue := digest.NewDigestFromBytes(digest.SHA256, localDigest)
	receiverDigestValue := digest.NewDigestFromBytes(digest.SHA256, finAck.ReceiverDigest)
	if !finAck.Verified || receiverDigestValue != localDigestValue {
		return pfxperrors.NewSessionError("send.verify", fmt.Errorf("receiver reported verified=%v digest=%s (want %s)", finAck.Verified, receiverDigestValue, localDigestValue))
	}
	s.log.Info("digest verified", "local_digest", localDigestValue, "receiver_digest", receiverDigestValue)
	return nil
}

func (s *senderSession) header(frameType wire.FrameType, seq uint32, payloadLen int) wire.FrameHeader {
	return wire.FrameHeader{
		Version:    wire.Version,
		FrameType:  frameType,
		HeaderLen:  wire.HeaderLen,
		TransferID: s.transferID,
		Seq:        seq,
		PayloadLen: uint32(payloadLen),
	}
}

func (s *senderSession) isFromPeer(addr *net.UDPAddr) bool {
	return addr != nil && addr.IP.Equal(s.peer.IP) && addr.Port == s.peer.Port
}

// awaitReply blocks for a single well-formed reply, silently discarding any
// datagram that fails to decode (bad magic, truncated header, unknown frame
// type) rather than aborting the handshake step over it.
func (s *senderSession) awaitReply() (wire.FrameHeader, []byte, *net.UDPAddr, error) {
	for {
		header, payload, addr, err := recvFrame(s.conn, s.cfg.Timeout, s.buf)
		if err != nil {
			if pfxperrors.IsProtocolError(err) {
				continue
			}
			return wire.FrameHeader{}, nil, nil, err
		}
		return header, payload, addr, nil
	}
}

// checkReply enforces that an awaited single reply came from the configured
// peer, carries the session's transfer_id, and is of the expected type.
func (s *senderSession) checkReply(header wire.FrameHeader, addr *net.UDPAddr, want wire.FrameType) error {
	if !s.isFromPeer(addr) {
		return pfxperrors.NewSessionError("send.peer_mismatch", fmt.Errorf("reply from unexpected address %v", addr))
	}
	if header.TransferID != s.transferID {
		return pfxperrors.NewSessionError("send.transfer_mismatch", fmt.Errorf("reply transfer_id %d does not match %d", header.TransferID, s.transferID))
	}
	if header.FrameType != want {
		return pfxperrors.NewSessionError("send.unexpected_frame_type", fmt.Errorf("expected %s, got %s", want, header.FrameType))
	}
	return nil
}
