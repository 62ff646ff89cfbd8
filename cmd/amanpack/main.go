// Package main provides the entry point for the amanpack CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/amanpack/cmd/amanpack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
