package cmd

import (
	"io"

	"github.com/muesli/termenv"
)

// palette colors text for one writer. Pipes, TERM=dumb and NO_COLOR get
// plain text.
type palette struct {
	out *termenv.Output
}

func newPalette(w io.Writer) palette {
	return palette{out: termenv.NewOutput(w)}
}

func (p palette) bold(s string) string {
	return p.out.String(s).Bold().String()
}

func (p palette) dim(s string) string {
	return p.out.String(s).Faint().String()
}

func (p palette) cyan(s string) string {
	return p.out.String(s).Foreground(p.out.Color("6")).String()
}

func (p palette) yellow(s string) string {
	return p.out.String(s).Foreground(p.out.Color("3")).String()
}
