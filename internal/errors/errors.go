package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"
)

// protocolMarker is implemented by all protocol-layer error types so we can classify them.
type protocolMarker interface {
	error
	isProtocol()
}

// FrameError indicates a violation of the fixed 24-byte outer frame: bad
// magic, unsupported version, header/payload length mismatch, or an unknown
// frame type.
type FrameError struct {
	Op  string // high-level operation (e.g. "decode.magic", "encode.payload_len")
	Err error  // underlying cause (may be nil)
}

func (e *FrameError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("frame error: %s", e.Op)
	}
	return fmt.Sprintf("frame error: %s: %v", e.Op, e.Err)
}
func (e *FrameError) Unwrap() error { return e.Err }
func (e *FrameError) isProtocol()   {}

// PayloadError indicates a malformed TLV stream or a payload schema
// violation (missing required tag, truncated value, wrong field width).
type PayloadError struct {
	Op  string
	Err error
}

func (e *PayloadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("payload error: %s", e.Op)
	}
	return fmt.Sprintf("payload error: %s: %v", e.Op, e.Err)
}
func (e *PayloadError) Unwrap() error { return e.Err }
func (e *PayloadError) isProtocol()   {}

// SessionError indicates a violation of the handshake/transfer state
// machine: a mismatched peer/transfer-id on an expected reply, an offer
// rejection, or a digest mismatch at finalization.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("session error: %s", e.Op)
	}
	return fmt.Sprintf("session error: %s: %v", e.Op, e.Err)
}
func (e *SessionError) Unwrap() error { return e.Err }
func (e *SessionError) isProtocol()   {}

// TimeoutError indicates a per-chunk retry budget was exhausted or an
// expected reply never arrived within the configured read timeout.
type TimeoutError struct {
	Op       string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (after %s)", e.Op, e.Duration)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout returns true if err is (or wraps) a TimeoutError, a context
// deadline exceeded, or any error type that exposes Timeout() bool and
// returns true.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stdErrors.As(err, &te) {
		return true
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toErr interface{ Timeout() bool }
	if stdErrors.As(err, &toErr) && toErr.Timeout() {
		return true
	}
	return false
}

// IsProtocolError returns true if the error chain contains any protocol-layer
// error (FrameError, PayloadError, SessionError).
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var pm protocolMarker
	return stdErrors.As(err, &pm)
}

// Constructors (encourage contextual wrapping with %w when used by callers).
func NewFrameError(op string, cause error) error   { return &FrameError{Op: op, Err: cause} }
func NewPayloadError(op string, cause error) error { return &PayloadError{Op: op, Err: cause} }
func NewSessionError(op string, cause error) error { return &SessionError{Op: op, Err: cause} }
func NewTimeoutError(op string, d time.Duration, cause error) error {
	return &TimeoutError{Op: op, Duration: d, Err: cause}
}

// Usage pattern example:
//  if _, err := conn.Read(buf); err != nil {
//      return NewTimeoutError("recv.ack", readTimeout, err)
//  }
// Keep layering context with fmt.Errorf("...: %w", err).
