// Package screen holds the cell grid that backs a prompt session and the
// renderer that projects it onto the terminal.
package screen

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfBounds is returned when a row or column lies outside the grid.
var ErrOutOfBounds = errors.New("screen: out of bounds")

// ErrInvalidSize is returned when a buffer is created with a non-positive
// width or height.
var ErrInvalidSize = errors.New("screen: invalid size")

// blank is the rune every cell holds after a clear.
const blank = ' '

// Buffer is a fixed-size grid of runes. It is the single source of truth for
// what should be on screen. All access goes through bounds-checked methods
// serialised by one mutex, so a reader never observes a half-written row.
type Buffer struct {
	mu     sync.Mutex
	cells  []rune
	width  int
	height int
	title  string
}

// NewBuffer creates a blank buffer with the given dimensions.
func NewBuffer(width, height int, title string) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	cells := make([]rune, width*height)
	for i := range cells {
		cells[i] = blank
	}
	return &Buffer{
		cells:  cells,
		width:  width,
		height: height,
		title:  title,
	}, nil
}

// Width returns the number of columns.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the number of rows.
func (b *Buffer) Height() int {
	return b.height
}

// Title returns the title rendered in the top border.
func (b *Buffer) Title() string {
	return b.title
}

func (b *Buffer) checkRow(row int) error {
	if row < 0 || row >= b.height {
		return fmt.Errorf("%w: row %d not in [0,%d)", ErrOutOfBounds, row, b.height)
	}
	return nil
}

func (b *Buffer) checkCell(row, col int) error {
	if err := b.checkRow(row); err != nil {
		return err
	}
	if col < 0 || col >= b.width {
		return fmt.Errorf("%w: col %d not in [0,%d)", ErrOutOfBounds, col, b.width)
	}
	return nil
}

// SetCell writes a single rune.
func (b *Buffer) SetCell(row, col int, ch rune) error {
	if err := b.checkCell(row, col); err != nil {
		return err
	}
	b.mu.Lock()
	b.cells[row*b.width+col] = ch
	b.mu.Unlock()
	return nil
}

// SetLine writes leftPadding blanks followed by text, truncated at the
// buffer width. Cells after the text keep their content.
func (b *Buffer) SetLine(row int, text string, leftPadding int) error {
	if err := b.checkRow(row); err != nil {
		return err
	}
	if leftPadding < 0 {
		return fmt.Errorf("%w: negative padding %d", ErrOutOfBounds, leftPadding)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	line := b.cells[row*b.width : (row+1)*b.width]
	col := 0
	for ; col < leftPadding && col < b.width; col++ {
		line[col] = blank
	}
	for _, r := range text {
		if col >= b.width {
			break
		}
		line[col] = r
		col++
	}
	return nil
}

// ClearRange blanks every row from rowStart to rowEnd inclusive.
func (b *Buffer) ClearRange(rowStart, rowEnd int) error {
	if err := b.checkRow(rowStart); err != nil {
		return err
	}
	if err := b.checkRow(rowEnd); err != nil {
		return err
	}
	if rowStart > rowEnd {
		return fmt.Errorf("%w: range %d..%d is reversed", ErrOutOfBounds, rowStart, rowEnd)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := rowStart * b.width; i < (rowEnd+1)*b.width; i++ {
		b.cells[i] = blank
	}
	return nil
}

// Clear blanks the whole grid.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.cells {
		b.cells[i] = blank
	}
}

// ReadRow returns a copy of one row.
func (b *Buffer) ReadRow(row int) ([]rune, error) {
	if err := b.checkRow(row); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]rune, b.width)
	copy(out, b.cells[row*b.width:(row+1)*b.width])
	return out, nil
}

// ReadCell returns the rune at row, col.
func (b *Buffer) ReadCell(row, col int) (rune, error) {
	if err := b.checkCell(row, col); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cells[row*b.width+col], nil
}
