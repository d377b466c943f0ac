// Package cmd provides the command-line interface of iqrsim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iqrsim",
	Short: "iqrsim simulates one input-queued virtual-channel router.",
	Long: `iqrsim builds a router from a YAML configuration, replays a ` +
		`packet trace through it and reports what came out of every output.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It runs the exit handlers before the program ends.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
