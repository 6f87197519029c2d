package keymap

import (
	"io"
	"unicode/utf8"
)

// csiKeys maps the final byte of a parameterless (or modifier-only) CSI
// sequence to its key.
var csiKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'Z': KeyTab, // Shift+Tab
}

// tildeKeys maps the first parameter of "ESC [ n ~" sequences to keys.
var tildeKeys = map[int]Key{
	1: KeyHome,
	2: KeyInsert,
	3: KeyDelete,
	4: KeyEnd,
	5: KeyPageUp,
	6: KeyPageDown,
	7: KeyHome,
	8: KeyEnd,
}

// xterm modifier parameter bits (parameter value minus one).
const (
	modShift = 1
	modCtrl  = 4
)

// Decoder reads raw terminal input and produces key events. Reads block on
// the underlying reader. A lone ESC at the end of a read chunk is reported as
// the Escape key, which matches how terminals deliver a single key press.
type Decoder struct {
	r       io.Reader
	buf     [256]byte
	carry   []byte // Incomplete UTF-8 from the previous chunk
	pending []Event
}

// NewDecoder creates a decoder over r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadEvent blocks until the next key event is available.
func (d *Decoder) ReadEvent() (Event, error) {
	for len(d.pending) == 0 {
		n, err := d.r.Read(d.buf[:])
		if n > 0 {
			chunk := append(d.carry, d.buf[:n]...)
			d.carry = nil
			d.pending, d.carry = decodeChunk(chunk)
		}
		if len(d.pending) > 0 {
			break
		}
		if err != nil {
			return Event{}, err
		}
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

// decodeChunk decodes every complete key in chunk and returns the bytes of a
// trailing incomplete UTF-8 sequence.
func decodeChunk(chunk []byte) ([]Event, []byte) {
	var events []Event
	for i := 0; i < len(chunk); {
		c := chunk[i]
		switch {
		case c == 0x1b:
			ev, size, ok := decodeEscape(chunk[i:])
			if ok {
				events = append(events, ev)
			}
			i += size
		case c == '\r' || c == '\n':
			events = append(events, SpecialEvent(KeyEnter))
			i++
		case c == '\t':
			events = append(events, SpecialEvent(KeyTab))
			i++
		case c == 0x7f || c == 0x08:
			events = append(events, SpecialEvent(KeyBackspace))
			i++
		case c == 0x00:
			events = append(events, Event{Key: ' ', Ctrl: true})
			i++
		case c >= 0x01 && c <= 0x1a:
			events = append(events, CtrlEvent(rune('a'+c-1)))
			i++
		case c < 0x20:
			// Ctrl with punctuation (0x1c-0x1f); not bound by anything.
			i++
		case c < utf8.RuneSelf:
			events = append(events, RuneEvent(rune(c)))
			i++
		default:
			if !utf8.FullRune(chunk[i:]) {
				rest := make([]byte, len(chunk)-i)
				copy(rest, chunk[i:])
				return events, rest
			}
			r, size := utf8.DecodeRune(chunk[i:])
			if r != utf8.RuneError {
				events = append(events, RuneEvent(r))
			}
			i += size
		}
	}
	return events, nil
}

// decodeEscape decodes a sequence starting with ESC. It returns the event,
// the number of bytes consumed and whether the sequence named a key.
func decodeEscape(b []byte) (Event, int, bool) {
	if len(b) < 2 {
		return SpecialEvent(KeyEscape), 1, true
	}
	switch b[1] {
	case '[':
		return decodeCSI(b)
	case 'O':
		if len(b) < 3 {
			return SpecialEvent(KeyEscape), 1, true
		}
		if k, ok := csiKeys[b[2]]; ok && b[2] != 'Z' {
			return SpecialEvent(k), 3, true
		}
		return Event{}, 3, false
	}
	// ESC followed by an ordinary byte: the Escape key, the byte is decoded
	// on its own.
	return SpecialEvent(KeyEscape), 1, true
}

// decodeCSI decodes "ESC [ params final".
func decodeCSI(b []byte) (Event, int, bool) {
	var params []int
	cur, have := 0, false
	for i := 2; i < len(b); i++ {
		c := b[i]
		switch {
		case c >= '0' && c <= '9':
			cur = cur*10 + int(c-'0')
			have = true
		case c == ';':
			params = append(params, cur)
			cur, have = 0, false
		case c >= 0x40 && c <= 0x7e:
			if have {
				params = append(params, cur)
			}
			ev, ok := csiEvent(c, params)
			return ev, i + 1, ok
		default:
			// Private or intermediate bytes: skip until the final byte.
		}
	}
	// Truncated sequence: consume it all, report nothing.
	return Event{}, len(b), false
}

func csiEvent(final byte, params []int) (Event, bool) {
	var ev Event
	if final == '~' {
		if len(params) == 0 {
			return Event{}, false
		}
		k, ok := tildeKeys[params[0]]
		if !ok {
			return Event{}, false
		}
		ev.Key = k
	} else {
		k, ok := csiKeys[final]
		if !ok {
			return Event{}, false
		}
		ev.Key = k
		if final == 'Z' {
			ev.Shift = true
		}
	}
	if len(params) >= 2 && params[1] > 1 {
		mod := params[1] - 1
		ev.Shift = ev.Shift || mod&modShift != 0
		ev.Ctrl = mod&modCtrl != 0
	}
	return ev, true
}
