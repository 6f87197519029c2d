package cmd

import (
	"errors"
	"fmt"
	"os"
)

// minTermWidth is the narrowest terminal the prompts are drawn on.
const minTermWidth = 20

// tty is the terminal the prompts draw on. Stdin and stdout stay free for
// data: choices come in on stdin and the answer goes out on stdout.
type tty struct {
	in  *os.File
	out *os.File
}

func (t *tty) Close() error {
	err := t.in.Close()
	if t.out != t.in {
		err = errors.Join(err, t.out.Close())
	}
	return err
}

// openTTY is replaced in tests with a pseudo-terminal.
var openTTY = openControllingTTY

// checkTERM verifies that the TERM environment variable is not "dumb".
func checkTERM() error {
	if os.Getenv("TERM") == "dumb" {
		return errors.New("TERM=dumb is not supported")
	}
	return nil
}

// checkTermWidth verifies that the terminal is wide enough to draw on. An
// unknown width passes; the prompt falls back to its default grid.
func checkTermWidth(t *tty) error {
	cols := termWidth(t.out)
	if cols > 0 && cols < minTermWidth {
		return fmt.Errorf("terminal too narrow (%d columns, need at least %d)", cols, minTermWidth)
	}
	return nil
}

// prepareTTY runs the pre-flight checks and opens the terminal.
func prepareTTY() (*tty, error) {
	if err := checkTERM(); err != nil {
		return nil, err
	}
	t, err := openTTY()
	if err != nil {
		return nil, fmt.Errorf("no TTY available: %w", err)
	}
	if err := checkTermWidth(t); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}
