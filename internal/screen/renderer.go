package screen

import (
	"bytes"
	"io"
	"log/slog"
	"sync"

	"github.com/muesli/termenv"
)

// Renderer projects a Buffer onto a terminal. It owns the border and title
// decoration but no selection state. Each draw call stages its output and
// flushes it with one Write, so concurrent callers never interleave partial
// frames. Lock order is renderer, then buffer.
type Renderer struct {
	mu     sync.Mutex
	buf    *Buffer
	w      io.Writer
	frame  bytes.Buffer
	out    *termenv.Output
	theme  Theme
	drawn  [][]rune // Last flushed content per row; nil row = unknown
	logger *slog.Logger
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(buf *Buffer, w io.Writer, theme Theme, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		buf:    buf,
		w:      w,
		theme:  theme,
		drawn:  make([][]rune, buf.Height()),
		logger: logger,
	}
	r.out = termenv.NewOutput(&r.frame, termenv.WithProfile(termenv.Ascii))
	return r
}

// Buffer returns the grid this renderer projects.
func (r *Renderer) Buffer() *Buffer {
	return r.buf
}

// Theme returns the renderer's theme.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// discard drops a partly staged frame so a failed draw leaves nothing for
// the next flush. Callers hold r.mu.
func (r *Renderer) discard(err error) error {
	r.frame.Reset()
	return err
}

// flush writes the staged frame. Callers hold r.mu.
func (r *Renderer) flush() error {
	if r.frame.Len() == 0 {
		return nil
	}
	_, err := r.w.Write(r.frame.Bytes())
	r.frame.Reset()
	return err
}

// Begin switches to the alternate screen and hides the cursor.
func (r *Renderer) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out.AltScreen()
	r.out.HideCursor()
	return r.flush()
}

// End clears the buffer and the terminal, shows the cursor and leaves the
// alternate screen.
func (r *Renderer) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Clear()
	for i := range r.drawn {
		r.drawn[i] = nil
	}
	r.out.ClearScreen()
	r.out.ShowCursor()
	r.out.ExitAltScreen()
	return r.flush()
}

// Decorate draws the border and the centred title into the buffer.
func (r *Renderer) Decorate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decorate()
}

func (r *Renderer) decorate() error {
	w, h := r.buf.Width(), r.buf.Height()
	if w < 2 || h < 2 {
		return nil
	}
	b := r.theme.Border

	for col := 1; col < w-1; col++ {
		if err := r.buf.SetCell(0, col, edge(b.Top)); err != nil {
			return err
		}
		if err := r.buf.SetCell(h-1, col, edge(b.Bottom)); err != nil {
			return err
		}
	}
	corners := []struct {
		row, col int
		part     string
	}{
		{0, 0, b.TopLeft},
		{0, w - 1, b.TopRight},
		{h - 1, 0, b.BottomLeft},
		{h - 1, w - 1, b.BottomRight},
	}
	for _, c := range corners {
		if err := r.buf.SetCell(c.row, c.col, edge(c.part)); err != nil {
			return err
		}
	}
	for row := 1; row < h-1; row++ {
		if err := r.decorateRow(row); err != nil {
			return err
		}
	}
	return r.drawTitle()
}

// decorateRow restores the side border cells of an inner row.
func (r *Renderer) decorateRow(row int) error {
	w, h := r.buf.Width(), r.buf.Height()
	if w < 2 || row <= 0 || row >= h-1 {
		return nil
	}
	if err := r.buf.SetCell(row, 0, edge(r.theme.Border.Left)); err != nil {
		return err
	}
	return r.buf.SetCell(row, w-1, edge(r.theme.Border.Right))
}

func (r *Renderer) drawTitle() error {
	title := []rune(r.buf.Title())
	if len(title) == 0 {
		return nil
	}
	w := r.buf.Width()
	if limit := w - 2; len(title) > limit {
		title = title[:limit]
	}
	start := w/2 - len(title)/2
	if start < 1 {
		start = 1
	}
	for i, ch := range title {
		if err := r.buf.SetCell(0, start+i, ch); err != nil {
			return err
		}
	}
	return nil
}

// DrawFull clears the terminal and writes every row.
func (r *Renderer) DrawFull() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.out.ClearScreen()
	for row := 0; row < r.buf.Height(); row++ {
		line, err := r.buf.ReadRow(row)
		if err != nil {
			return r.discard(err)
		}
		r.out.MoveCursor(row+1, 1)
		r.frame.WriteString(string(line))
		r.drawn[row] = line
	}
	r.logger.Debug("full redraw", "rows", r.buf.Height(), "cols", r.buf.Width())
	return r.flush()
}

// DrawLine rewrites one row. Rows matching what was last flushed are skipped.
func (r *Renderer) DrawLine(row int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.drawLine(row); err != nil {
		return err
	}
	return r.flush()
}

func (r *Renderer) drawLine(row int) error {
	line, err := r.buf.ReadRow(row)
	if err != nil {
		return err
	}
	if sameRow(r.drawn[row], line) {
		return nil
	}
	r.out.MoveCursor(row+1, 1)
	r.out.ClearLine()
	r.frame.WriteString(string(line))
	r.drawn[row] = line
	return nil
}

// DrawLines rewrites rows start..end inclusive in one flush.
func (r *Renderer) DrawLines(start, end int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for row := start; row <= end; row++ {
		if err := r.drawLine(row); err != nil {
			return r.discard(err)
		}
	}
	return r.flush()
}

// DrawCell rewrites one cell.
func (r *Renderer) DrawCell(row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.drawCell(row, col); err != nil {
		return r.discard(err)
	}
	return r.flush()
}

func (r *Renderer) drawCell(row, col int) error {
	ch, err := r.buf.ReadCell(row, col)
	if err != nil {
		return err
	}
	r.out.MoveCursor(row+1, col+1)
	r.frame.WriteRune(ch)
	if r.drawn[row] != nil {
		r.drawn[row][col] = ch
	}
	return nil
}

// SetCell writes one rune into the buffer and draws it.
func (r *Renderer) SetCell(row, col int, ch rune) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.buf.SetCell(row, col, ch); err != nil {
		return err
	}
	if err := r.drawCell(row, col); err != nil {
		return r.discard(err)
	}
	return r.flush()
}

// SetLine replaces the content of a row with text starting at col and keeps
// the side border. Nothing is drawn; see DrawLines.
func (r *Renderer) SetLine(row, col int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLine(row, col, text)
}

func (r *Renderer) setLine(row, col int, text string) error {
	if err := r.buf.ClearRange(row, row); err != nil {
		return err
	}
	if err := r.buf.SetLine(row, text, col); err != nil {
		return err
	}
	return r.decorateRow(row)
}

// WriteLine is SetLine followed by drawing the row.
func (r *Renderer) WriteLine(row, col int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.setLine(row, col, text); err != nil {
		return err
	}
	if err := r.drawLine(row); err != nil {
		return r.discard(err)
	}
	return r.flush()
}

// ResetRows blanks rows start..end inclusive, keeps the side border and
// draws them.
func (r *Renderer) ResetRows(start, end int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.buf.ClearRange(start, end); err != nil {
		return err
	}
	for row := start; row <= end; row++ {
		if err := r.decorateRow(row); err != nil {
			return r.discard(err)
		}
		if err := r.drawLine(row); err != nil {
			return r.discard(err)
		}
	}
	return r.flush()
}

// PlaceCursor moves the terminal cursor to row, col.
func (r *Renderer) PlaceCursor(row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out.MoveCursor(row+1, col+1)
	return r.flush()
}

// ShowCursor toggles terminal cursor visibility.
func (r *Renderer) ShowCursor(show bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if show {
		r.out.ShowCursor()
	} else {
		r.out.HideCursor()
	}
	return r.flush()
}

func sameRow(a, b []rune) bool {
	if a == nil || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
