package keymap

import (
	"fmt"
	"slices"
	"strings"
)

// Action names what a binding does.
type Action string

// Binding associates key chords with an action. A binding is enabled or
// disabled in place to model mutually exclusive input contexts; it is never
// recreated for that purpose.
type Binding struct {
	Action Action
	Keys   []Key
	Ctrl   bool // Control modifier required (and forbidden when false)
	Shift  bool // Shift modifier required (and forbidden when false)
	Label  string
	Help   string

	disabled bool
}

// NewBinding creates an enabled binding for action on keys.
func NewBinding(action Action, keys ...Key) *Binding {
	return &Binding{Action: action, Keys: keys}
}

// WithCtrl requires the control modifier.
func (b *Binding) WithCtrl() *Binding {
	b.Ctrl = true
	return b
}

// WithShift requires the shift modifier.
func (b *Binding) WithShift() *Binding {
	b.Shift = true
	return b
}

// WithHelp sets the help label (how the key is spelled) and description.
func (b *Binding) WithHelp(label, help string) *Binding {
	b.Label = label
	b.Help = help
	return b
}

// Disabled marks a freshly built binding as disabled.
func (b *Binding) Disabled() *Binding {
	b.disabled = true
	return b
}

// SetEnabled enables or disables the binding.
func (b *Binding) SetEnabled(enabled bool) {
	b.disabled = !enabled
}

// Enabled reports whether the binding can match.
func (b *Binding) Enabled() bool {
	return !b.disabled
}

// Matches reports whether ev triggers this binding: the binding is enabled,
// the key is one of its keys and both modifier states equal the binding's
// requirements.
func (b *Binding) Matches(ev Event) bool {
	if b.disabled {
		return false
	}
	if ev.Ctrl != b.Ctrl || ev.Shift != b.Shift {
		return false
	}
	return slices.Contains(b.Keys, ev.Key)
}

// HelpText renders "Label (Help)", or "" when the binding has no help.
func (b *Binding) HelpText() string {
	if b.Help == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", b.Label, b.Help)
}

// Set is an ordered collection of bindings.
type Set []*Binding

// Match returns the first enabled binding matching ev.
func (s Set) Match(ev Event) (*Binding, bool) {
	for _, b := range s {
		if b.Matches(ev) {
			return b, true
		}
	}
	return nil, false
}

// Matches reports whether any binding in the set matches ev.
func (s Set) Matches(ev Event) bool {
	_, ok := s.Match(ev)
	return ok
}

// Find returns the binding registered for action.
func (s Set) Find(action Action) (*Binding, bool) {
	for _, b := range s {
		if b.Action == action {
			return b, true
		}
	}
	return nil, false
}

// Help renders the help line for every enabled binding that has help text,
// e.g. " | Ctrl-f (Start Search) | Q (Exit) | ".
func (s Set) Help() string {
	var b strings.Builder
	b.WriteString(" | ")
	for _, binding := range s {
		if !binding.Enabled() {
			continue
		}
		if text := binding.HelpText(); text != "" {
			b.WriteString(text)
			b.WriteString(" | ")
		}
	}
	return b.String()
}

// Rebind replaces the keys and modifiers of the binding for action with the
// parsed key specs. All specs must share the same modifiers. The help label
// is regenerated from the specs.
func (s Set) Rebind(action Action, specs []string) error {
	b, ok := s.Find(action)
	if !ok {
		return fmt.Errorf("keymap: no binding for action %q", action)
	}
	events, err := ParseSpecs(specs)
	if err != nil {
		return fmt.Errorf("keymap: action %q: %w", action, err)
	}

	keys := make([]Key, 0, len(events))
	labels := make([]string, 0, len(events))
	for _, ev := range events {
		keys = append(keys, ev.Key)
		labels = append(labels, Label(ev))
	}

	b.Keys = keys
	b.Ctrl = events[0].Ctrl
	b.Shift = events[0].Shift
	if b.Help != "" {
		b.Label = strings.Join(labels, "/")
	}
	return nil
}
