package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alxayo/pfxp/internal/logger"
	"github.com/alxayo/pfxp/internal/pfxp/transfer"
)

func sendCmd() *cobra.Command {
	var (
		host      string
		port      int
		timeout   time.Duration
		chunkSize uint16
	)

	cmd := &cobra.Command{
		Use:   "send <file>",
		Short: "Send a single file to a waiting receiver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.SetLevel(logLevel); err != nil {
				return err
			}
			filePath := args[0]

			cfg := transfer.SenderConfig{
				Host:      host,
				Port:      port,
				Timeout:   timeout,
				ChunkSize: chunkSize,
			}

			result, err := transfer.SendFile(cfg, filePath)
			if err != nil {
				return fmt.Errorf("send %s: %w", filePath, err)
			}

			fmt.Printf("sent %s (%d bytes, %d chunks) to %s:%d, digest %x\n",
				result.Filename, result.FileSize, result.TotalChunks, host, port, result.Digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "receiver host")
	cmd.Flags().IntVar(&port, "port", 40404, "receiver port")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "per-read socket timeout")
	cmd.Flags().Uint16Var(&chunkSize, "chunk-size", 1024, "bytes per DATA chunk")
	return cmd
}
