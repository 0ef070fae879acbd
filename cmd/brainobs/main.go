// Package main is the brainobs CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/hyperjump/brainobs/internal/cli"
)

var version = "dev"

func main() {
	cmd := cli.NewRootCommand(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
