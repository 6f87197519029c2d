package keymap

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownKey is returned for key specs that name no known key.
var ErrUnknownKey = errors.New("keymap: unknown key")

var specNames = map[string]Key{
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"esc":       KeyEscape,
	"escape":    KeyEscape,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"del":       KeyDelete,
	"insert":    KeyInsert,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pgup":      KeyPageUp,
	"pageup":    KeyPageUp,
	"pgdown":    KeyPageDown,
	"pgdn":      KeyPageDown,
	"pagedown":  KeyPageDown,
	"space":     ' ',
}

// ParseSpec parses a key spec such as "enter", "k", "Q", "ctrl+f" or
// "shift+up" into the event it describes. An upper-case letter implies the
// shift modifier.
func ParseSpec(spec string) (Event, error) {
	rest := strings.TrimSpace(spec)
	var ev Event
	for {
		lower := strings.ToLower(rest)
		switch {
		case strings.HasPrefix(lower, "ctrl+") && len(rest) > len("ctrl+"):
			ev.Ctrl = true
			rest = rest[len("ctrl+"):]
			continue
		case strings.HasPrefix(lower, "shift+") && len(rest) > len("shift+"):
			ev.Shift = true
			rest = rest[len("shift+"):]
			continue
		}
		break
	}

	if k, ok := specNames[strings.ToLower(rest)]; ok {
		ev.Key = k
		return ev, nil
	}

	if utf8.RuneCountInString(rest) != 1 {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, spec)
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsPrint(r) {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, spec)
	}
	if unicode.IsUpper(r) && !ev.Ctrl {
		ev.Shift = true
	}
	ev.Key = Key(unicode.ToLower(r))
	return ev, nil
}

// ParseSpecs parses the key specs of one binding. A binding carries a single
// set of modifiers, so every spec must use the same ones.
func ParseSpecs(specs []string) ([]Event, error) {
	if len(specs) == 0 {
		return nil, errors.New("no keys given")
	}
	events := make([]Event, 0, len(specs))
	for _, spec := range specs {
		ev, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		if len(events) > 0 && (ev.Ctrl != events[0].Ctrl || ev.Shift != events[0].Shift) {
			return nil, fmt.Errorf("keys mix modifiers (%q)", spec)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Label spells an event the way help lines show it: "Ctrl-f", "Q",
// "Shift-Tab", "Up".
func Label(ev Event) string {
	var b strings.Builder
	if ev.Ctrl {
		b.WriteString("Ctrl-")
	}
	switch {
	case ev.Key.IsSpecial() || ev.Key == ' ':
		if ev.Shift {
			b.WriteString("Shift-")
		}
		b.WriteString(ev.Key.String())
	case ev.Shift:
		b.WriteRune(unicode.ToUpper(rune(ev.Key)))
	default:
		b.WriteRune(rune(ev.Key))
	}
	return b.String()
}
