package main

import (
	"errors"
	"os"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/config"
)

// cfg is loaded once per invocation before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "citysearch",
	Short: "Search cities worldwide by name",
	Long: `Looks up cities through an OpenStreetMap geocoder, reverse geocodes
coordinates, measures great-circle distances and serves the same over HTTP.

Configuration comes from ./config.yaml, .env and CITYSEARCH_* variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { flushLogs() },
}

// setup loads configuration and installs the global logger.
func setup(*cobra.Command, []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.InitLogger(c.Log); err != nil {
		return eris.Wrap(err, "citysearch: logger")
	}
	cfg = c
	return nil
}

// flushLogs drains buffered log entries. Syncing a terminal fails with
// EINVAL or ENOTTY on some platforms; only other errors are reported.
func flushLogs() {
	err := zap.L().Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return
	}
	_, _ = os.Stderr.WriteString("citysearch: flush logs: " + err.Error() + "\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
