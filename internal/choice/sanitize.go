package choice

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// ansiRE matches ANSI escape sequences:
//   - CSI sequences: ESC [ ... final_byte  (covers SGR like \x1b[31m)
//   - OSC sequences: ESC ] ... (ST | BEL)
//   - Charset designations: ESC ( B, ESC ) B
//   - Other two-byte escapes
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;?]*[A-Za-z~]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

// Sanitize makes s safe to place in the screen grid: ANSI sequences are
// removed, invalid UTF-8 is replaced with U+FFFD and every remaining control
// character (tabs and newlines included) becomes a space.
func Sanitize(s string) string {
	s = validUTF8(ansiRE.ReplaceAllString(s, ""))
	if !strings.ContainsFunc(s, unicode.IsControl) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			i++
		} else {
			b.WriteRune(r)
			i += size
		}
	}
	return b.String()
}

// Truncate shortens s to at most width display columns by cutting the middle
// and inserting an ellipsis. Below three columns it simply cuts from the
// right.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	const ellipsis = "…"
	if width < 3 {
		return truncateLeft(s, width)
	}
	remaining := width - 1
	return truncateLeft(s, (remaining+1)/2) + ellipsis + truncateRight(s, remaining/2)
}

// truncateLeft returns the longest prefix of s fitting in width columns.
func truncateLeft(s string, width int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			return s[:i]
		}
		w += rw
	}
	return s
}

// truncateRight returns the longest suffix of s fitting in width columns.
func truncateRight(s string, width int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > width {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
