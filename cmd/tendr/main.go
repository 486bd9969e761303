// Package main is the entry point for the tendr CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/tendr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
