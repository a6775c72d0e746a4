package main

import (
	"fmt"

	"github.com/aretw0/leash"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of leash",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leash version %s\n", leash.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
