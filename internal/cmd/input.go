package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/termpick/internal/prompt"
)

var (
	inputPlaceholder string
	inputValue       string
	inputLimit       int
)

var inputCmd = &cobra.Command{
	Use:     "input [prompt]",
	Short:   "Ask for one line of text",
	GroupID: groupPrompts,
	Long: `Ask for one line of text and print it on stdout.

Enter submits, Ctrl-r restores the initial value and Esc leaves without
an answer. Exit status follows termpick select.

Examples:
  name=$(termpick input "Branch name" --placeholder feature/...)
  termpick input "Commit message" --value "$(git log -1 --format=%s)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInput,
}

func init() {
	f := inputCmd.Flags()
	f.StringVar(&inputPlaceholder, "placeholder", "", "text shown while the input is empty")
	f.StringVar(&inputValue, "value", "", "initial value")
	f.IntVar(&inputLimit, "limit", 0, "maximum number of characters (0 = unlimited)")
}

func runInput(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fallback("failed to load config: %w", err)
	}
	if err := prompt.ValidateKeys(cfg.Keys); err != nil {
		return &ExitError{Code: ExitFallback, Err: err}
	}
	if inputLimit < 0 {
		return fallback("--limit must not be negative")
	}

	label := "Input"
	if len(args) == 1 {
		label = args[0]
	}

	logger, closeLog := openLogger(cfg, cmd.ErrOrStderr())
	defer closeLog()

	t, err := prepareTTY()
	if err != nil {
		return &ExitError{Code: ExitFallback, Err: err}
	}
	defer t.Close()

	// Stdout may be a pipe, so the color profile comes from the terminal.
	lipgloss.SetColorProfile(termenv.NewOutput(t.out).ColorProfile())

	in, err := prompt.NewInput(prompt.InputOptions{
		Placeholder: inputPlaceholder,
		Initial:     inputValue,
		CharLimit:   inputLimit,
		Input:       t.in,
		Output:      t.out,
		Keys:        cfg.Keys,
		Logger:      logger,
	})
	if err != nil {
		return &ExitError{Code: ExitFallback, Err: err}
	}

	value, ok, err := in.Show(label)
	switch {
	case errors.Is(err, prompt.ErrInterrupted):
		return &ExitError{Code: ExitInterrupted}
	case err != nil:
		return &ExitError{Code: ExitFallback, Err: err}
	case !ok:
		return &ExitError{Code: ExitCancelled}
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}
