package main

import (
	"github.com/spf13/cobra"
)

var logLevel string

// rootCmd is the main command for the 'pfxp' binary.
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pfxp",
		Short: "pfxp transfers a single file to a peer over a reliable UDP protocol",
		Long: "pfxp sends or receives exactly one file over PFXP, a small reliable\n" +
			"file-transfer protocol built on UDP datagrams.",
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.AddCommand(sendCmd())
	root.AddCommand(receiveCmd())
	root.AddCommand(versionCmd())
	return root
}
