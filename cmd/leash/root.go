package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leash",
	Short: "Leash runs commands with a hard time budget",
	Long: `Leash bounds the execution time of a command: it runs the command,
waits up to the configured timeout, and if the deadline elapses it signals the
command to stop and exits with code 124 without waiting for cleanup.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
