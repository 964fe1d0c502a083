// Package main is the entry point for the hermes server.
package main

import (
	"os"

	"hermes/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		cmd.PrintFatal(err)
		os.Exit(1)
	}
}
