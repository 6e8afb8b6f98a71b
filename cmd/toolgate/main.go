// Package main provides the entry point for the toolgate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/opencode-ai/toolgate/cmd/toolgate/commands"
)

func main() {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
