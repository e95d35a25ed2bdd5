// Package main provides the entry point for the openclaw-memory CLI.
package main

import (
	"fmt"
	"os"

	"github.com/openclaw/memory/cmd/openclaw-memory/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
