// Package cmd defines and implements the CLI commands for the sitelens executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitelens",
		Short: "A website analysis API service.",
		Long: `sitelens exposes an HTTP API that runs website analyses on demand:
Lighthouse audits, technology fingerprinting, security-header grading,
mobile-friendliness checks, and Chrome UX Report field data.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (optional; SITELENS_* environment variables also apply)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
