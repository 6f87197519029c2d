// Package cmd implements the termpick command line.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/termpick/internal/config"
)

// Exit codes. These match the expectations of shell scripts:
//
//	0   = a value was chosen (printed on stdout)
//	1   = the user left without choosing
//	2   = termpick could not run (no TTY, bad flags, config errors)
//	130 = interrupted with Ctrl-C
const (
	ExitSuccess     = 0
	ExitCancelled   = 1
	ExitFallback    = 2
	ExitInterrupted = 130
)

// ExitError carries a process exit code out of a command. Err is nil for
// quiet exits such as a cancelled prompt.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFallback
}

func fallback(format string, args ...any) error {
	return &ExitError{Code: ExitFallback, Err: fmt.Errorf(format, args...)}
}

const (
	groupPrompts = "prompts"
	groupSetup   = "setup"
)

// configPath overrides the default config file location.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "termpick",
	Short: "interactive pick lists and prompts for shell scripts",
	Long: `termpick - interactive pick lists and prompts for shell scripts
  - select: browse and search lines from stdin, files or commands
  - input:  ask for one line of text

The chosen value is printed on stdout; the UI is drawn on the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupPrompts, Title: "Prompts:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/termpick/config.yaml)")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(inputCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the config named by --config, or the default one.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// configFile returns the file the config command reads and writes.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPaths().ConfigFile()
}
