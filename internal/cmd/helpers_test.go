package cmd

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// isolateConfig points every XDG directory at a temporary home.
func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/config")
	t.Setenv("XDG_STATE_HOME", home+"/state")
	t.Setenv("TERMPICK_DEBUG", "")
	t.Setenv("TERMPICK_LOG_LEVEL", "")
	t.Setenv("TERMPICK_LOG_FILE", "")
	t.Setenv("TERM", "xterm-256color")
	return home
}

// resetFlags restores every flag to its default so commands can run more
// than once per process.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// prepareRoot resets the root command and wires args, stdin and output
// buffers for one run.
func prepareRoot(t *testing.T, stdin io.Reader, args ...string) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return &stdout, &stderr
}

// execute runs the root command with args and stdin, returning what was
// written to stdout and stderr.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := prepareRoot(t, stdin, args...)
	err := Execute()
	return stdout.String(), stderr.String(), err
}

// withTTY replaces the controlling terminal for the duration of a test.
func withTTY(t *testing.T, open func() (*tty, error)) {
	t.Helper()
	old := openTTY
	openTTY = open
	t.Cleanup(func() { openTTY = old })
}

func noTTY() (*tty, error) {
	return nil, errors.New("open /dev/tty: no such device or address")
}
