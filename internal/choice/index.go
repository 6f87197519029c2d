// Package choice holds the append-only collection of selectable values and
// their display strings.
package choice

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is the display form of one choice. Index is the position of the
// value in insertion order and never changes.
type Entry struct {
	Index   int
	Display string

	fold string
}

// NewEntry builds an entry from an already sanitised display string.
func NewEntry(index int, display string) Entry {
	return Entry{Index: index, Display: display, fold: strings.ToLower(display)}
}

// Folded returns the lower-cased display string used for matching.
func (e Entry) Folded() string {
	if e.fold == "" && e.Display != "" {
		return strings.ToLower(e.Display)
	}
	return e.fold
}

// Index stores values and their display entries. Values are only ever
// appended; readers receive immutable snapshots, so producers may keep
// appending while a session searches and renders.
type Index[T any] struct {
	mu      sync.RWMutex
	values  []T
	entries []Entry
	convert func(T) string
	version uint64
}

// NewIndex creates an empty index. A nil convert falls back to fmt.Sprint.
func NewIndex[T any](convert func(T) string) *Index[T] {
	if convert == nil {
		convert = defaultConvert[T]
	}
	return &Index[T]{convert: convert}
}

func defaultConvert[T any](v T) string {
	return fmt.Sprint(v)
}

// Append adds v and returns its index.
func (x *Index[T]) Append(v T) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.appendLocked(v)
}

// AppendAll adds every value in vs in order and returns the index of the
// first one.
func (x *Index[T]) AppendAll(vs []T) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	first := len(x.values)
	for _, v := range vs {
		x.appendLocked(v)
	}
	return first
}

func (x *Index[T]) appendLocked(v T) int {
	i := len(x.values)
	x.values = append(x.values, v)
	x.entries = append(x.entries, NewEntry(i, Sanitize(x.convert(v))))
	return i
}

// SetConverter replaces the display conversion and reconverts every entry.
// The version changes so cached search results can tell they are stale.
func (x *Index[T]) SetConverter(convert func(T) string) {
	if convert == nil {
		convert = defaultConvert[T]
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	entries := make([]Entry, len(x.values), cap(x.entries))
	for i, v := range x.values {
		entries[i] = NewEntry(i, Sanitize(convert(v)))
	}
	x.convert = convert
	x.entries = entries
	x.version++
}

// Value returns the value stored at index i.
func (x *Index[T]) Value(i int) (T, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i < 0 || i >= len(x.values) {
		var zero T
		return zero, false
	}
	return x.values[i], true
}

// Entries returns a snapshot of the entries. The returned slice is never
// written to again; appends after this call are not visible through it.
func (x *Index[T]) Entries() []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := len(x.entries)
	return x.entries[:n:n]
}

// Len returns the number of values.
func (x *Index[T]) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.values)
}

// Version changes whenever existing entries are rewritten.
func (x *Index[T]) Version() uint64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.version
}
