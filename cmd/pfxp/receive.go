package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alxayo/pfxp/internal/logger"
	"github.com/alxayo/pfxp/internal/pfxp/transfer"
)

func receiveCmd() *cobra.Command {
	var (
		bindHost string
		port     int
		outDir   string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Serve exactly one incoming file transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.SetLevel(logLevel); err != nil {
				return err
			}

			cfg := transfer.ReceiverConfig{
				BindHost: bindHost,
				Port:     port,
				OutDir:   outDir,
				Timeout:  timeout,
			}

			result, err := transfer.ReceiveOne(cfg)
			if err != nil {
				return fmt.Errorf("receive: %w", err)
			}

			fmt.Println(result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&bindHost, "bind", "0.0.0.0", "bind host")
	cmd.Flags().IntVar(&port, "port", 40404, "bind port")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "per-read socket timeout")
	return cmd
}
