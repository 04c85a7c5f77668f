// Package main is the entry point for the scorch CLI tool.
package main

import (
	"os"

	"github.com/scorchdb/scorch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
