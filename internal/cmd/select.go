package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/runger/termpick/internal/config"
	"github.com/runger/termpick/internal/prompt"
	"github.com/runger/termpick/internal/source"
)

var (
	selectPrompt  string
	selectTitle   string
	selectItems   int
	selectWrap    bool
	selectBorder  string
	selectWidth   int
	selectHeight  int
	selectFiles   []string
	selectCmds    []string
	selectBind    []string
	selectWorkers int
)

var selectCmd = &cobra.Command{
	Use:     "select [choice...]",
	Short:   "Pick one line from a list",
	GroupID: groupPrompts,
	Long: `Show a scrollable list and print the chosen line on stdout.

Choices are read from the arguments, from stdin when it is not a
terminal, from --file and from the output of --cmd. Sources are read
in the background, so the list is usable while they still run.

Keys (browsing):  Up/k Down/j PgUp PgDn Home End, Enter to select,
                  Ctrl-f to search, Q to leave without a choice.
Keys (searching): type to filter, Backspace, Esc to browse the matches.

Exit status is 0 after a selection, 1 when the list was left without
one, 2 when termpick could not run and 130 on Ctrl-C.

Examples:
  git branch --format='%(refname:short)' | termpick select -p "Checkout"
  termpick select --cmd 'find . -name "*.go"' --items 15
  termpick select red green blue --bind select=enter,space`,
	RunE: runSelect,
}

func init() {
	f := selectCmd.Flags()
	f.StringVarP(&selectPrompt, "prompt", "p", "Select an item", "prompt shown above the list")
	f.StringVarP(&selectTitle, "title", "t", "", "title drawn in the frame")
	f.IntVarP(&selectItems, "items", "n", 0, "choices shown at once (default: fit to the terminal)")
	f.BoolVar(&selectWrap, "wrap", false, "wrap around at the ends of the list")
	f.StringVar(&selectBorder, "border", "", "frame style: normal, rounded, thick, double or hidden")
	f.IntVar(&selectWidth, "width", 0, "grid width (default: terminal width)")
	f.IntVar(&selectHeight, "height", 0, "grid height (default: terminal height minus one)")
	f.StringArrayVarP(&selectFiles, "file", "f", nil, "read choices from a file (repeatable)")
	f.StringArrayVarP(&selectCmds, "cmd", "c", nil, "read choices from a command's output (repeatable)")
	f.StringArrayVar(&selectBind, "bind", nil, "rebind an action, e.g. search=ctrl+s,ctrl+k (repeatable)")
	f.IntVar(&selectWorkers, "search-workers", 0, "parallel search workers (default: number of CPUs)")
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fallback("failed to load config: %w", err)
	}
	if err := applySelectFlags(cmd, cfg); err != nil {
		return &ExitError{Code: ExitFallback, Err: err}
	}

	producers := selectProducers(cmd.InOrStdin(), args)
	if len(producers) == 0 {
		return fallback("no choices: pipe lines on stdin, pass them as arguments or use --file/--cmd")
	}

	logger, closeLog := openLogger(cfg, cmd.ErrOrStderr())
	defer closeLog()

	t, err := prepareTTY()
	if err != nil {
		return &ExitError{Code: ExitFallback, Err: err}
	}
	defer t.Close()

	theme := cfg.Theme()
	sel, err := prompt.NewSelection[string](prompt.Options{
		Width:         cfg.Screen.Width,
		Height:        cfg.Screen.Height,
		Title:         cfg.Screen.Title,
		ItemsOnScreen: cfg.Selection.ItemsOnScreen,
		Wrap:          cfg.Selection.Wrap,
		Theme:         &theme,
		Input:         t.in,
		Output:        t.out,
		SearchWorkers: cfg.Selection.SearchWorkers,
		Keys:          cfg.Keys,
		Logger:        logger,
	})
	if err != nil {
		return &ExitError{Code: ExitFallback, Err: err}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	batcher := source.NewBatcher(sel, source.DefaultBatchSize, source.DefaultBatchInterval, logger)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- source.Stream(ctx, batcher, producers...)
	}()

	value, ok, err := sel.Show(selectPrompt)
	cancel()

	// Sources still blocked on a read are abandoned; only failures that
	// already happened are reported.
	select {
	case serr := <-streamErr:
		if serr != nil && !errors.Is(serr, context.Canceled) {
			logger.Warn("choice source failed", "error", serr)
			fmt.Fprintf(cmd.ErrOrStderr(), "termpick: %v\n", serr)
		}
	default:
	}

	logger.Debug("select finished", "chosen", ok, "choices", sel.Len(), "batches", batcher.Stats().Batches)

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

// applySelectFlags layers explicitly set flags over the loaded config.
func applySelectFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	sets := []struct {
		flag, key, value string
	}{
		{"title", "screen.title", selectTitle},
		{"border", "screen.border", selectBorder},
		{"width", "screen.width", fmt.Sprint(selectWidth)},
		{"height", "screen.height", fmt.Sprint(selectHeight)},
		{"items", "selection.items_on_screen", fmt.Sprint(selectItems)},
		{"wrap", "selection.wrap", fmt.Sprint(selectWrap)},
		{"search-workers", "selection.search_workers", fmt.Sprint(selectWorkers)},
	}
	for _, s := range sets {
		if !f.Changed(s.flag) {
			continue
		}
		if err := cfg.Set(s.key, s.value); err != nil {
			return fmt.Errorf("--%s: %w", s.flag, err)
		}
	}

	for _, bind := range selectBind {
		action, specs, found := strings.Cut(bind, "=")
		if !found || action == "" {
			return fmt.Errorf("--bind %q: expected action=key[,key...]", bind)
		}
		if err := cfg.Set("keys."+action, specs); err != nil {
			return fmt.Errorf("--bind %q: %w", bind, err)
		}
	}
	return prompt.ValidateKeys(cfg.Keys)
}

// selectProducers collects the choice sources. They run concurrently, so
// lines from different sources may interleave.
func selectProducers(stdin io.Reader, args []string) []source.Producer {
	var producers []source.Producer
	if len(args) > 0 {
		producers = append(producers, source.Reader(strings.NewReader(strings.Join(args, "\n"))))
	}
	if stdinHasData(stdin) {
		producers = append(producers, source.Reader(stdin))
	}
	for _, path := range selectFiles {
		producers = append(producers, source.File(path))
	}
	for _, cmdline := range selectCmds {
		producers = append(producers, source.Command(cmdline))
	}
	return producers
}

// stdinHasData reports whether stdin should be read for choices: anything
// that is not an interactive terminal.
func stdinHasData(r io.Reader) bool {
	if r == nil {
		return false
	}
	if f, ok := r.(*os.File); ok {
		return !term.IsTerminal(int(f.Fd()))
	}
	return true
}
