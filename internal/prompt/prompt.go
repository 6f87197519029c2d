// Package prompt implements the interactive prompts: a browse-and-search
// selection list drawn on a screen buffer, and a free-text input line.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/runger/termpick/internal/keymap"
	"github.com/runger/termpick/internal/screen"
)

// Prompt shows itself and returns what the user entered. The bool is false
// when the user left without making a choice.
type Prompt[T any] interface {
	Show(prompt string) (T, bool, error)
}

var (
	// ErrInvalidItemsOnScreen is returned for a page size below one.
	ErrInvalidItemsOnScreen = errors.New("prompt: items on screen must be greater than zero")
	// ErrScreenTooSmall is returned when the layout does not fit the grid.
	ErrScreenTooSmall = errors.New("prompt: screen too small")
	// ErrInterrupted is returned when the user presses Ctrl-C.
	ErrInterrupted = errors.New("prompt: interrupted")
	// ErrSessionActive is returned by Show while another session runs.
	ErrSessionActive = errors.New("prompt: session already active")
)

// DefaultItemsOnScreen is the page size used when none is configured.
const DefaultItemsOnScreen = 20

// Actions understood by the prompts. Config key overrides use these names.
const (
	ActionSelect     keymap.Action = "select"
	ActionUp         keymap.Action = "up"
	ActionDown       keymap.Action = "down"
	ActionPageUp     keymap.Action = "pageup"
	ActionPageDown   keymap.Action = "pagedown"
	ActionHome       keymap.Action = "home"
	ActionEnd        keymap.Action = "end"
	ActionSearch     keymap.Action = "search"
	ActionExit       keymap.Action = "exit"
	ActionStopSearch keymap.Action = "stopsearch"
	ActionBackspace  keymap.Action = "backspace"
	ActionInterrupt  keymap.Action = "interrupt"

	ActionSubmit keymap.Action = "submit"
	ActionReset  keymap.Action = "reset"
	ActionCancel keymap.Action = "cancel"
)

var knownActions = []keymap.Action{
	ActionSelect, ActionUp, ActionDown, ActionPageUp, ActionPageDown,
	ActionHome, ActionEnd, ActionSearch, ActionExit, ActionStopSearch,
	ActionBackspace, ActionInterrupt, ActionSubmit, ActionReset, ActionCancel,
}

// Actions returns the names of every bindable action, sorted.
func Actions() []string {
	names := make([]string, 0, len(knownActions))
	for _, a := range knownActions {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}

// ValidateKeys checks that every override names a known action and parses.
func ValidateKeys(keys map[string][]string) error {
	for action, specs := range keys {
		if !slices.Contains(knownActions, keymap.Action(action)) {
			return fmt.Errorf("prompt: unknown action %q", action)
		}
		if _, err := keymap.ParseSpecs(specs); err != nil {
			return fmt.Errorf("prompt: action %q: %w", action, err)
		}
	}
	return nil
}

// applyKeys rebinds the actions of set that appear in keys. Overrides for
// actions the set does not contain are left to other prompts.
func applyKeys(set keymap.Set, keys map[string][]string) error {
	for action, specs := range keys {
		if _, ok := set.Find(keymap.Action(action)); !ok {
			continue
		}
		if err := set.Rebind(keymap.Action(action), specs); err != nil {
			return err
		}
	}
	return nil
}

// Options configures a prompt. Zero values select defaults.
type Options struct {
	Width  int // Grid width; 0 = terminal width
	Height int // Grid height; 0 = terminal height minus one row
	Title  string

	ItemsOnScreen int // Page size; 0 = DefaultItemsOnScreen, shrunk to fit
	Wrap          bool
	Theme         *screen.Theme

	Input  io.Reader // Defaults to os.Stdin
	Output io.Writer // Defaults to os.Stdout

	SearchWorkers int
	Keys          map[string][]string // Action name -> key specs

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Input == nil {
		o.Input = os.Stdin
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Theme == nil {
		theme := screen.DefaultTheme()
		o.Theme = &theme
	}
	return o
}
