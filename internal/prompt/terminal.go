package prompt

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// terminalSize returns the size of w when it is a terminal, or 80x24.
func terminalSize(w io.Writer) (int, int) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil && width > 0 && height > 0 {
			return width, height
		}
	}
	return fallbackWidth, fallbackHeight
}

// gridSize resolves the grid dimensions for opts. The terminal's last row is
// left free so the shell prompt does not scroll the frame.
func gridSize(opts Options) (int, int) {
	width, height := opts.Width, opts.Height
	if width > 0 && height > 0 {
		return width, height
	}
	tw, th := terminalSize(opts.Output)
	if width <= 0 {
		width = tw
	}
	if height <= 0 {
		height = th - 1
	}
	return width, height
}

// makeRaw puts r into raw mode when it is a terminal and returns the restore
// function. Non-terminal readers are left alone.
func makeRaw(r io.Reader) (func(), error) {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(int(f.Fd()), state) }, nil
}
