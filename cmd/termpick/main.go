// Package main is the entry point for the termpick CLI.
package main

import (
	"fmt"
	"os"

	"github.com/runger/termpick/internal/cmd"
)

func main() {
	os.Exit(run())
}

// run executes the command line and returns the process exit code.
func run() int {
	err := cmd.Execute()
	if msg := errorMessage(err); msg != "" {
		fmt.Fprintf(os.Stderr, "termpick: %s\n", msg)
	}
	return cmd.ExitCode(err)
}

// errorMessage returns the text to report for err, or "" for quiet exits
// such as a cancelled prompt.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if exitErr, ok := err.(*cmd.ExitError); ok && exitErr.Err == nil {
		return ""
	}
	return err.Error()
}
