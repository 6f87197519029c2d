package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinding_Matches(t *testing.T) {
	search := NewBinding("search", 'f').WithCtrl()
	exit := NewBinding("exit", 'q').WithShift()
	down := NewBinding("down", KeyDown, 'j')

	tests := []struct {
		name    string
		binding *Binding
		ev      Event
		want    bool
	}{
		{"ctrl chord", search, CtrlEvent('f'), true},
		{"plain f is not ctrl-f", search, RuneEvent('f'), false},
		{"upper Q", exit, RuneEvent('Q'), true},
		{"lower q", exit, RuneEvent('q'), false},
		{"special key", down, SpecialEvent(KeyDown), true},
		{"alternate rune", down, RuneEvent('j'), true},
		{"shift down rejected", down, Event{Key: KeyDown, Shift: true}, false},
		{"unrelated", down, RuneEvent('x'), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.binding.Matches(tt.ev))
		})
	}
}

func TestBinding_DisabledNeverMatches(t *testing.T) {
	b := NewBinding("select", KeyEnter).Disabled()
	assert.False(t, b.Enabled())
	assert.False(t, b.Matches(SpecialEvent(KeyEnter)))

	b.SetEnabled(true)
	assert.True(t, b.Matches(SpecialEvent(KeyEnter)))
}

func TestSet_MatchFirstEnabled(t *testing.T) {
	first := NewBinding("a", KeyEscape)
	second := NewBinding("b", KeyEscape)
	s := Set{first, second}

	got, ok := s.Match(SpecialEvent(KeyEscape))
	require.True(t, ok)
	assert.Equal(t, Action("a"), got.Action)

	first.SetEnabled(false)
	got, ok = s.Match(SpecialEvent(KeyEscape))
	require.True(t, ok)
	assert.Equal(t, Action("b"), got.Action)

	second.SetEnabled(false)
	assert.False(t, s.Matches(SpecialEvent(KeyEscape)))
}

func TestSet_Help(t *testing.T) {
	s := Set{
		NewBinding("search", 'f').WithCtrl().WithHelp("Ctrl-f", "Start Search"),
		NewBinding("up", KeyUp),
		NewBinding("exit", 'q').WithShift().WithHelp("Q", "Exit"),
		NewBinding("stop", KeyEscape).WithHelp("Esc", "Stop Search").Disabled(),
	}
	assert.Equal(t, " | Ctrl-f (Start Search) | Q (Exit) | ", s.Help())
}

func TestSet_Rebind(t *testing.T) {
	s := Set{NewBinding("search", 'f').WithCtrl().WithHelp("Ctrl-f", "Start Search")}

	require.NoError(t, s.Rebind("search", []string{"ctrl+s", "ctrl+k"}))
	b, ok := s.Find("search")
	require.True(t, ok)
	assert.Equal(t, []Key{'s', 'k'}, b.Keys)
	assert.True(t, b.Ctrl)
	assert.False(t, b.Shift)
	assert.Equal(t, "Ctrl-s/Ctrl-k", b.Label)
	assert.True(t, b.Matches(CtrlEvent('k')))
	assert.False(t, b.Matches(CtrlEvent('f')))
}

func TestSet_RebindErrors(t *testing.T) {
	s := Set{NewBinding("down", KeyDown)}

	assert.Error(t, s.Rebind("missing", []string{"j"}))
	assert.Error(t, s.Rebind("down", nil))
	assert.ErrorIs(t, s.Rebind("down", []string{"hyper+x"}), ErrUnknownKey)
	assert.Error(t, s.Rebind("down", []string{"j", "ctrl+n"}))

	b, _ := s.Find("down")
	assert.Equal(t, []Key{KeyDown}, b.Keys, "failed rebind must leave keys alone")
}
