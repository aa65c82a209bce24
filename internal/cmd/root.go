// Package cmd implements the zipcourier command-line interface.
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/3leaps/zipcourier/internal/observability"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "zipcourier",
	Short: "Stream zip archives into object storage",
	Long: `zipcourier extracts entries from a zip archive as it streams in and
uploads each file to an S3-compatible bucket, without ever holding the
whole archive in memory or on disk.

Credentials come from the environment:
  ZIPCOURIER_ACCESS_KEY  object-storage access key
  ZIPCOURIER_SECRET_KEY  object-storage secret key
  ZIPCOURIER_ENDPOINT    optional custom endpoint (S3-compatible stores)
  ZIPCOURIER_REGION      optional bucket region`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.Init(logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (json, console)")

	viper.SetEnvPrefix("ZIPCOURIER")
	viper.AutomaticEnv()
}

// exitCodeError carries a process exit code alongside the cause.
type exitCodeError struct {
	code int
	msg  string
	err  error
}

// Error implements the error interface.
func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *exitCodeError) Unwrap() error {
	return e.err
}

func exitError(code int, msg string, err error) error {
	return &exitCodeError{code: code, msg: msg, err: err}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			observability.CLILogger.Error(ec.msg, zap.Error(ec.err))
			return ec.code
		}
		observability.CLILogger.Error("Command failed", zap.Error(err))
		return 1
	}
	return 0
}
