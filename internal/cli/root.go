// Package cli implements the proofgate command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "proofgate",
	Short: "Proof verification governance gateway",
	Long: "Single canonical choke-point for cryptographic proof submissions.\n" +
		"Every submission is evaluated against the circuit registry and the\n" +
		"containment level, decided exactly once, and recorded in a\n" +
		"hash-chained audit trail before the decision is returned.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
