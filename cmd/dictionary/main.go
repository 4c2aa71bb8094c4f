// Package main provides the entry point for the dictionary service.
package main

import (
	"os"

	"github.com/Aman-CERP/dictionary/cmd/dictionary/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
