package prompt

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/termpick/internal/keymap"
)

// InputOptions configures the free-text prompt.
type InputOptions struct {
	Placeholder string
	Initial     string
	CharLimit   int

	Input  io.Reader // Defaults to os.Stdin
	Output io.Writer // Defaults to os.Stdout

	Keys   map[string][]string // Action name -> key specs
	Logger *slog.Logger
}

// Input asks for one line of text.
type Input struct {
	opts InputOptions
	keys keymap.Set
}

var _ Prompt[string] = (*Input)(nil)

// NewInput creates a free-text prompt.
func NewInput(opts InputOptions) (*Input, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	keys := keymap.Set{
		keymap.NewBinding(ActionSubmit, keymap.KeyEnter).WithHelp("Enter", "Send Input"),
		keymap.NewBinding(ActionReset, 'r').WithCtrl().WithHelp("Ctrl-r", "Reset"),
		keymap.NewBinding(ActionCancel, keymap.KeyEscape).WithHelp("Esc", "Exit"),
		keymap.NewBinding(ActionInterrupt, 'c').WithCtrl(),
	}
	if err := applyKeys(keys, opts.Keys); err != nil {
		return nil, err
	}
	return &Input{opts: opts, keys: keys}, nil
}

// Show runs the prompt. The bool is false when the user cancelled.
func (in *Input) Show(prompt string) (string, bool, error) {
	m := newInputModel(prompt, in.keys, in.opts)
	p := tea.NewProgram(m,
		tea.WithInput(in.opts.Input),
		tea.WithOutput(in.opts.Output),
	)
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("prompt: input: %w", err)
	}
	fm, ok := final.(inputModel)
	if !ok {
		return "", false, fmt.Errorf("prompt: input: unexpected model %T", final)
	}
	in.opts.Logger.Debug("input finished", "submitted", fm.submitted, "interrupted", fm.interrupted)
	if fm.interrupted {
		return "", false, ErrInterrupted
	}
	return fm.value, fm.submitted, nil
}

var (
	promptStyle = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type inputModel struct {
	prompt  string
	initial string
	text    textinput.Model
	keys    keymap.Set

	value       string
	submitted   bool
	interrupted bool
}

func newInputModel(prompt string, keys keymap.Set, opts InputOptions) inputModel {
	ti := textinput.New()
	ti.Placeholder = opts.Placeholder
	ti.SetValue(opts.Initial)
	if opts.CharLimit > 0 {
		ti.CharLimit = opts.CharLimit
	}
	ti.Focus()
	return inputModel{prompt: prompt, initial: opts.Initial, text: ti, keys: keys}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if ev, ok := teaEvent(key); ok {
			if b, ok := m.keys.Match(ev); ok {
				return m.handleAction(b.Action)
			}
		}
	}
	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)
	return m, cmd
}

func (m inputModel) handleAction(action keymap.Action) (tea.Model, tea.Cmd) {
	switch action {
	case ActionSubmit:
		m.value = m.text.Value()
		m.submitted = true
		return m, tea.Quit
	case ActionReset:
		m.text.SetValue(m.initial)
		m.text.CursorEnd()
		return m, nil
	case ActionCancel:
		return m, tea.Quit
	case ActionInterrupt:
		m.interrupted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m inputModel) View() string {
	if m.submitted {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		promptStyle.Render(m.prompt),
		m.text.View(),
		helpStyle.Render(m.keys.Help()),
	) + "\n"
}

// teaKeys maps Bubble Tea key types to key events.
var teaKeys = map[tea.KeyType]keymap.Event{
	tea.KeyEnter:     keymap.SpecialEvent(keymap.KeyEnter),
	tea.KeyEsc:       keymap.SpecialEvent(keymap.KeyEscape),
	tea.KeyTab:       keymap.SpecialEvent(keymap.KeyTab),
	tea.KeyShiftTab:  {Key: keymap.KeyTab, Shift: true},
	tea.KeyBackspace: keymap.SpecialEvent(keymap.KeyBackspace),
	tea.KeyDelete:    keymap.SpecialEvent(keymap.KeyDelete),
	tea.KeyInsert:    keymap.SpecialEvent(keymap.KeyInsert),
	tea.KeyUp:        keymap.SpecialEvent(keymap.KeyUp),
	tea.KeyDown:      keymap.SpecialEvent(keymap.KeyDown),
	tea.KeyLeft:      keymap.SpecialEvent(keymap.KeyLeft),
	tea.KeyRight:     keymap.SpecialEvent(keymap.KeyRight),
	tea.KeyHome:      keymap.SpecialEvent(keymap.KeyHome),
	tea.KeyEnd:       keymap.SpecialEvent(keymap.KeyEnd),
	tea.KeyPgUp:      keymap.SpecialEvent(keymap.KeyPageUp),
	tea.KeyPgDown:    keymap.SpecialEvent(keymap.KeyPageDown),
	tea.KeySpace:     keymap.RuneEvent(' '),
	tea.KeyCtrlAt:    {Key: ' ', Ctrl: true},
}

// teaEvent converts a Bubble Tea key message to a key event so the same
// binding table type serves both prompts.
func teaEvent(msg tea.KeyMsg) (keymap.Event, bool) {
	if ev, ok := teaKeys[msg.Type]; ok {
		return ev, true
	}
	switch {
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		return keymap.RuneEvent(msg.Runes[0]), true
	case msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ:
		return keymap.CtrlEvent(rune('a' + int(msg.Type-tea.KeyCtrlA))), true
	}
	return keymap.Event{}, false
}
