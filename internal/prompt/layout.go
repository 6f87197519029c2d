package prompt

import (
	"fmt"

	"github.com/runger/termpick/internal/screen"
)

// layout holds the row and column positions of a selection screen.
//
//	border
//	(blank)
//	prompt
//	(blank)
//	choices x items
//	(blank)
//	count
//	help
//	(blank)
//	query
//	border
type layout struct {
	items        int
	promptRow    int
	choicesFirst int
	countRow     int
	helpRow      int
	queryRow     int
	markerCol    int
	textCol      int
	textWidth    int
}

// maxItems returns the largest page that fits a grid of the given height:
// the query row (OriginRow + items + 6) must stay above the bottom border.
func maxItems(height int, theme screen.Theme) int {
	return height - theme.OriginRow - 8
}

func newLayout(width, height, items int, theme screen.Theme) (layout, error) {
	if items <= 0 {
		return layout{}, ErrInvalidItemsOnScreen
	}
	l := layout{
		items:        items,
		promptRow:    theme.OriginRow,
		choicesFirst: theme.OriginRow + 2,
		markerCol:    theme.OriginCol,
		textCol:      theme.OriginCol + 2,
	}
	l.countRow = l.choicesFirst + items + 1
	l.helpRow = l.countRow + 1
	l.queryRow = l.helpRow + 2
	l.textWidth = width - l.textCol - 2

	if l.queryRow > height-2 || l.textWidth < 1 {
		return layout{}, fmt.Errorf("%w: %dx%d cannot hold %d items", ErrScreenTooSmall, width, height, items)
	}
	return l, nil
}

// row returns the screen row of page slot i.
func (l layout) row(slot int) int {
	return l.choicesFirst + slot
}
