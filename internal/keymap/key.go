// Package keymap maps terminal key events to named actions through
// declarative, toggleable bindings.
package keymap

import (
	"fmt"
	"unicode"
)

// Key identifies a key. Printable keys are their lower-case rune; special
// keys are numbered above unicode.MaxRune so the two ranges never collide.
type Key rune

// Special keys.
const (
	KeyEnter Key = unicode.MaxRune + 1 + iota
	KeyEscape
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
)

var keyNames = map[Key]string{
	KeyEnter:     "Enter",
	KeyEscape:    "Esc",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PgUp",
	KeyPageDown:  "PgDn",
	' ':          "Space",
}

// String returns a human-readable key name.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= 0 && k <= unicode.MaxRune && unicode.IsPrint(rune(k)) {
		return string(rune(k))
	}
	return fmt.Sprintf("Key(%d)", int32(k))
}

// IsSpecial reports whether k is a non-character key.
func (k Key) IsSpecial() bool {
	return k > unicode.MaxRune
}

// Event is one decoded key press.
type Event struct {
	Key   Key
	Rune  rune // Typed character; 0 for special keys and control chords
	Ctrl  bool
	Shift bool
}

// String renders the event the way help lines spell key chords.
func (e Event) String() string {
	return Label(e)
}

// Printable reports whether the event carries text input: a printable rune
// typed without the control modifier.
func (e Event) Printable() bool {
	return !e.Ctrl && e.Rune != 0 && unicode.IsPrint(e.Rune)
}

// RuneEvent builds the event a terminal produces when r is typed.
func RuneEvent(r rune) Event {
	if unicode.IsUpper(r) {
		return Event{Key: Key(unicode.ToLower(r)), Rune: r, Shift: true}
	}
	return Event{Key: Key(r), Rune: r}
}

// CtrlEvent builds the event for Ctrl plus a letter.
func CtrlEvent(r rune) Event {
	return Event{Key: Key(unicode.ToLower(r)), Ctrl: true}
}

// SpecialEvent builds the event for a special key.
func SpecialEvent(k Key) Event {
	return Event{Key: k}
}
