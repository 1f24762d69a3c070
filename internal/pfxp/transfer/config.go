// Package transfer drives the two state machines that move a single file
// from a sender to a receiver over PFXP: SendFile on the sender side and
// ReceiveOne on the receiver side. Each owns exactly one UDP socket (and,
// on the receiver, one output file handle) for the duration of the call.
package transfer

import (
	"time"

	"github.com/alxayo/pfxp/internal/pfxp/wire"
)

const (
	defaultPort            = 40404
	defaultTimeout         = 2 * time.Second
	defaultChunkSize       = 1024
	defaultMaxRetries      = 8
	defaultMaxDatagramSize = wire.DefaultMaxDatagramSize
	defaultHashAlgorithm   = "sha256"
	defaultProduct         = "pfxp"
	defaultProductVersion  = "1.0"
)

// SenderConfig configures SendFile.
type SenderConfig struct {
	Host            string
	Port            int
	Timeout         time.Duration
	ChunkSize       uint16
	MaxRetries      int
	MaxDatagramSize uint16
	HashAlgorithm   string
}

func (c *SenderConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.MaxDatagramSize == 0 {
		c.MaxDatagramSize = defaultMaxDatagramSize
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = defaultHashAlgorithm
	}
}

// ReceiverConfig configures ReceiveOne.
type ReceiverConfig struct {
	BindHost string
	Port     int
	OutDir   string
	Timeout  time.Duration
}

func (c *ReceiverConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.OutDir == "" {
		c.OutDir = "."
	}
}
