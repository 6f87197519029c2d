package screen

import (
	"sort"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Theme carries the decoration characters and content offsets used by the
// renderer and the prompts drawn on top of it.
type Theme struct {
	Border lipgloss.Border

	Cursor rune // Selection marker
	Blank  rune // Rune used to erase a cell

	OriginRow int // First content row (inside the top border)
	OriginCol int // First content column (inside the left border)

	QueryPrefix string // Drawn before the search query
}

// DefaultTheme returns the normal box-drawing border with a '>' marker.
func DefaultTheme() Theme {
	return Theme{
		Border:      lipgloss.NormalBorder(),
		Cursor:      '>',
		Blank:       blank,
		OriginRow:   2,
		OriginCol:   2,
		QueryPrefix: "/",
	}
}

// borders maps config names to lipgloss border sets.
var borders = map[string]func() lipgloss.Border{
	"normal":  lipgloss.NormalBorder,
	"rounded": lipgloss.RoundedBorder,
	"thick":   lipgloss.ThickBorder,
	"double":  lipgloss.DoubleBorder,
	"hidden":  lipgloss.HiddenBorder,
}

// BorderByName resolves a border set by name.
func BorderByName(name string) (lipgloss.Border, bool) {
	fn, ok := borders[name]
	if !ok {
		return lipgloss.Border{}, false
	}
	return fn(), true
}

// BorderNames lists the accepted border names in sorted order.
func BorderNames() []string {
	names := make([]string, 0, len(borders))
	for name := range borders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// edge returns the first rune of a border part, or the blank rune when the
// part is empty.
func edge(part string) rune {
	if part == "" {
		return blank
	}
	r, _ := utf8.DecodeRuneInString(part)
	return r
}
