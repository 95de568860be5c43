package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
	tracestorage "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"

	"github.com/agenttrace-labs/agenttrace/internal/logger"
	"github.com/agenttrace-labs/agenttrace/internal/serializer"
	"github.com/agenttrace-labs/agenttrace/internal/storage"
)

var (
	logLevel  string
	logFormat string
	storeSpec string
)

var rootCmd = &cobra.Command{
	Use:           "agenttrace",
	Short:         "Inspect and manage recorded agent execution traces",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().StringVar(&storeSpec, "store", "file://./traces", "Trace store ('memory', 'file://<dir>' or 'sqlite://<path>')")
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newCommandLogger() tracelog.Logger {
	return logger.NewLogger(logLevel, logFormat, os.Stderr)
}

// openStore resolves the --store flag into a backend. Callers own Close.
func openStore(log tracelog.Logger) (tracestorage.Store, *serializer.Serializer, error) {
	codec := serializer.New(log, false)
	store, err := storage.Resolve(storeSpec, codec)
	if err != nil {
		return nil, nil, err
	}
	return store, codec, nil
}
