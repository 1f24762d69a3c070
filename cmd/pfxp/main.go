// Command pfxp is the CLI front end for the PFXP file-transfer core: it
// parses arguments, wires a SenderConfig/ReceiverConfig, calls into
// internal/pfxp/transfer, and maps the result onto stdout/stderr and an
// exit code. It holds no protocol logic of its own.
package main

import (
	"fmt"
	"os"

	"github.com/alxayo/pfxp/internal/logger"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logger.Init()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
