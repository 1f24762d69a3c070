package transfer

import "github.com/pion/randutil"

// NewTransferID draws a fresh random 64-bit session identifier, the sole
// demultiplexer for stray traffic arriving on the socket. Composed from two
// independent draws the same way the retrieved pion stack mints an RTP
// SSRC (randutil.NewMathRandomGenerator().Uint32()), since go-randutil has
// no 64-bit generator of its own.
func NewTransferID() uint64 {
	gen := randutil.NewMathRandomGenerator()
	high := uint64(gen.Uint32())
	low := uint64(gen.Uint32())
	return high<<32 | low
}
