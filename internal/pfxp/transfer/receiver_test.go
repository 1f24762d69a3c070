package transfer

import (
	"crypto/sha256"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alxayo/pfxp/internal/pfxp/wire"
)

// manualSender drives the wire protocol directly (bypassing SendFile) so
// tests can inject duplicate and malformed frames that a well-behaved
// sender would never produce.
type manualSender struct {
	t          *testing.T
	conn       *net.UDPConn
	peer       *net.UDPAddr
	transferID uint64
}

func newManualSender(t *testing.T, port int) *manualSender {
	t.Helper()
	peer, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	peer.Port = port
	conn, err := net.DialUDP("udp", nil, peer)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return &manualSender{t: t, conn: conn, peer: peer, transferID: NewTransferID()}
}

func (m *manualSender) send(frameType wire.FrameType, seq uint32, payload []byte) {
	m.t.Helper()
	header := wire.FrameHeader{
		Version: wire.Version, FrameType: frameType, HeaderLen: wire.HeaderLen,
		TransferID: m.transferID, Seq: seq, PayloadLen: uint32(len(payload)),
	}
	datagram, err := wire.EncodeFrame(header, payload)
	if err != nil {
		m.t.Fatalf("EncodeFrame: %v", err)
	}
	if _, err := m.conn.Write(datagram); err != nil {
		m.t.Fatalf("write: %v", err)
	}
}

func (m *manualSender) sendRaw(datagram []byte) {
	m.t.Helper()
	if _, err := m.conn.Write(datagram); err != nil {
		m.t.Fatalf("write raw: %v", err)
	}
}

func (m *manualSender) recv() (wire.FrameHeader, []byte) {
	m.t.Helper()
	buf := make([]byte, 65535)
	if err := m.conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		m.t.Fatalf("set deadline: %v", err)
	}
	n, err := m.conn.Read(buf)
	if err != nil {
		m.t.Fatalf("read: %v", err)
	}
	header, payload, err := wire.DecodeFrame(buf[:n])
	if err != nil {
		m.t.Fatalf("DecodeFrame: %v", err)
	}
	return header, payload
}

// TestReceiverIgnoresDuplicateDataAndStrayMagic drives a full handshake by
// hand, retransmits chunk 0 after it is already acknowledged, and injects a
// bad-magic datagram mid-loop, then confirms the transfer still converges.
func TestReceiverIgnoresDuplicateDataAndStrayMagic(t *testing.T) {
	port := freePort(t)
	outDir := t.TempDir()

	recvCh := make(chan transferOutcome, 1)
	go func() {
		res, err := ReceiveOne(ReceiverConfig{BindHost: "127.0.0.1", Port: port, OutDir: outDir, Timeout: 2 * time.Second})
		recvCh <- transferOutcome{res, err}
	}()
	time.Sleep(50 * time.Millisecond)

	sender := newManualSender(t, port)

	helloPayload, err := wire.BuildHelloPayload(wire.Hello{Product: "test", ProductVer: "1", MaxDatagram: 1200, HashAlgorithm: "sha256"})
	if err != nil {
		t.Fatalf("BuildHelloPayload: %v", err)
	}
	sender.send(wire.FrameHello, 0, helloPayload)
	if h, _ := sender.recv(); h.FrameType != wire.FrameHello {
		t.Fatalf("expected HELLO reply, got %s", h.FrameType)
	}

	data := []byte("duplicate and stray test payload")
	digest := sha256.Sum256(data)
	offer := wire.Offer{Filename: "dup.bin", FileSize: uint64(len(data)), ChunkSize: 1024, TotalChunks: 1, HashAlgorithm: "sha256", HashDigest: digest[:]}
	offerPayload, err := wire.BuildOfferPayload(offer)
	if err != nil {
		t.Fatalf("BuildOfferPayload: %v", err)
	}
	sender.send(wire.FrameOffer, 0, offerPayload)
	if h, p := sender.recv(); h.FrameType != wire.FrameAccept {
		t.Fatalf("expected ACCEPT, got %s", h.FrameType)
	} else if accept, err := wire.ParseAcceptPayload(p); err != nil || !accept.Accepted {
		t.Fatalf("expected accepted offer, err=%v accept=%+v", err, accept)
	}

	dataPayload := wire.BuildDataPayload(0, offer.ChunkSize, data)
	sender.send(wire.FrameData, 0, dataPayload)
	if h, p := sender.recv(); h.FrameType != wire.FrameAck {
		t.Fatalf("expected ACK, got %s", h.FrameType)
	} else if ranges, err := wire.ParseRangesPayload(p); err != nil || !wire.ContainsSeq(ranges, 0) {
		t.Fatalf("expected ACK covering seq 0, err=%v ranges=%+v", err, ranges)
	}

	// Duplicate DATA injection: retransmit the already-acked chunk.
	sender.send(wire.FrameData, 0, dataPayload)
	if h, _ := sender.recv(); h.FrameType != wire.FrameAck {
		t.Fatalf("expected ACK for duplicate DATA, got %s", h.FrameType)
	}

	// Wrong-magic stray injection: must be dropped silently, no reply.
	stray := []byte("XXXX0123456789012345678901234567890")
	sender.sendRaw(stray)

	finPayload, err := wire.BuildFinPayload(wire.Fin{LastSeq: 0, Digest: digest[:]})
	if err != nil {
		t.Fatalf("BuildFinPayload: %v", err)
	}
	sender.send(wire.FrameFin, 0, finPayload)
	h, p := sender.recv()
	if h.FrameType != wire.FrameFinAck {
		t.Fatalf("expected FIN_ACK, got %s", h.FrameType)
	}
	finAck, err := wire.ParseFinAckPayload(p)
	if err != nil {
		t.Fatalf("ParseFinAckPayload: %v", err)
	}
	if !finAck.Verified {
		t.Fatalf("expected verified transfer despite duplicate/stray injection")
	}

	select {
	case out := <-recvCh:
		if out.err != nil {
			t.Fatalf("ReceiveOne: %v", out.err)
		}
		contents, err := os.ReadFile(filepath.Join(outDir, "dup.bin"))
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if string(contents) != string(data) {
			t.Fatalf("output mismatch: got %q want %q", contents, data)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("receiver did not complete in time")
	}
}
