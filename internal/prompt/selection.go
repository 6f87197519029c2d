package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/runger/termpick/internal/choice"
	"github.com/runger/termpick/internal/keymap"
	"github.com/runger/termpick/internal/screen"
	"github.com/runger/termpick/internal/search"
)

type mode int

const (
	browsing mode = iota
	searching
)

func (m mode) String() string {
	if m == searching {
		return "searching"
	}
	return "browsing"
}

// Selection lets the user pick one value from a list by browsing pages or by
// typing a search query. Choices may be added from any goroutine, before or
// while the prompt is shown.
type Selection[T any] struct {
	opts   Options
	theme  screen.Theme
	index  *choice.Index[T]
	logger *slog.Logger

	width, height int

	keys       keymap.Set
	browseKeys keymap.Set
	searchKeys keymap.Set

	// mu guards the session state below and serialises all drawing.
	mu       sync.Mutex
	idle     *sync.Cond // Signalled when inflight drops to zero
	inflight int        // Running search goroutines

	lay    layout
	ren    *screen.Renderer // nil outside a session
	engine *search.Engine
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger // Session logger

	prompt string
	result search.Result
	cursor int
	first  int
	mode   mode
	query  []rune
}

var _ Prompt[string] = (*Selection[string])(nil)

// NewSelection creates a selection prompt. An explicit ItemsOnScreen that
// does not fit the grid is an error; the default page size shrinks to fit.
func NewSelection[T any](opts Options) (*Selection[T], error) {
	opts = opts.withDefaults()
	s := &Selection[T]{
		opts:   opts,
		theme:  *opts.Theme,
		index:  choice.NewIndex[T](nil),
		logger: opts.Logger,
		log:    opts.Logger,
	}
	s.idle = sync.NewCond(&s.mu)
	s.width, s.height = gridSize(opts)

	items := opts.ItemsOnScreen
	if items == 0 {
		items = min(DefaultItemsOnScreen, maxItems(s.height, s.theme))
		if items < 1 {
			items = 1
		}
	}
	lay, err := newLayout(s.width, s.height, items, s.theme)
	if err != nil {
		return nil, err
	}
	s.lay = lay

	s.buildKeys()
	if err := applyKeys(s.keys, opts.Keys); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Selection[T]) buildKeys() {
	s.browseKeys = keymap.Set{
		keymap.NewBinding(ActionSelect, keymap.KeyEnter).WithHelp("Enter", "Select"),
		keymap.NewBinding(ActionUp, keymap.KeyUp, 'k'),
		keymap.NewBinding(ActionDown, keymap.KeyDown, 'j'),
		keymap.NewBinding(ActionPageUp, keymap.KeyPageUp),
		keymap.NewBinding(ActionPageDown, keymap.KeyPageDown),
		keymap.NewBinding(ActionHome, keymap.KeyHome),
		keymap.NewBinding(ActionEnd, keymap.KeyEnd),
		keymap.NewBinding(ActionSearch, 'f').WithCtrl().WithHelp("Ctrl-f", "Start Search"),
		keymap.NewBinding(ActionExit, 'q').WithShift().WithHelp("Q", "Exit"),
	}
	s.searchKeys = keymap.Set{
		keymap.NewBinding(ActionStopSearch, keymap.KeyEscape).WithHelp("Esc", "Stop Search").Disabled(),
		keymap.NewBinding(ActionBackspace, keymap.KeyBackspace).Disabled(),
	}
	s.keys = keymap.Set{keymap.NewBinding(ActionInterrupt, 'c').WithCtrl()}
	s.keys = append(s.keys, s.browseKeys...)
	s.keys = append(s.keys, s.searchKeys...)
}

// setMode enables the binding group of m and disables the other one.
func (s *Selection[T]) setMode(m mode) {
	s.mode = m
	for _, b := range s.browseKeys {
		b.SetEnabled(m == browsing)
	}
	for _, b := range s.searchKeys {
		b.SetEnabled(m == searching)
	}
}

// AddChoice appends one choice.
func (s *Selection[T]) AddChoice(v T) {
	s.AddChoices([]T{v})
}

// AddChoices appends choices in order. During a session the visible page is
// redrawn when it was not full; otherwise only the count line changes.
func (s *Selection[T]) AddChoices(vs []T) {
	if len(vs) == 0 {
		return
	}
	s.index.AppendAll(vs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grown()
}

// grown folds appended choices into the result and redraws. Callers hold
// s.mu.
func (s *Selection[T]) grown() {
	if s.ren == nil {
		return
	}
	before := s.result.Len()
	r, changed := s.engine.Refresh(s.ctx)
	if !changed {
		return
	}
	s.result = r
	var err error
	if before < s.lay.items {
		err = s.renderPage()
	} else {
		err = s.drawCount()
	}
	if err != nil {
		s.log.Warn("redraw after append failed", "error", err)
	}
}

// SetConverter changes how values are displayed. During a session the
// result is recomputed and the page redrawn.
func (s *Selection[T]) SetConverter(convert func(T) string) {
	s.index.SetConverter(convert)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ren != nil {
		s.startSearch(string(s.query), false)
	}
}

// SetItemsOnScreen changes the page size. A rejected size leaves the
// current configuration untouched. During a session the layout is rebuilt
// and the screen fully redrawn.
func (s *Selection[T]) SetItemsOnScreen(n int) error {
	if n <= 0 {
		return ErrInvalidItemsOnScreen
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lay, err := newLayout(s.width, s.height, n, s.theme)
	if err != nil {
		return err
	}
	s.lay = lay
	if s.ren == nil {
		return nil
	}

	if s.cursor >= s.first+n {
		s.first = s.cursor - n + 1
	}
	return s.redrawAll()
}

// ItemsOnScreen returns the page size.
func (s *Selection[T]) ItemsOnScreen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lay.items
}

// Len returns the number of choices.
func (s *Selection[T]) Len() int {
	return s.index.Len()
}

// Show runs the prompt until the user selects a choice, exits or presses
// Ctrl-C.
func (s *Selection[T]) Show(prompt string) (T, bool, error) {
	var zero T

	restore, err := makeRaw(s.opts.Input)
	if err != nil {
		return zero, false, fmt.Errorf("prompt: raw mode: %w", err)
	}
	defer restore()

	if err := s.begin(prompt); err != nil {
		if !errors.Is(err, ErrSessionActive) {
			s.end()
		}
		return zero, false, err
	}
	defer s.end()

	dec := keymap.NewDecoder(s.opts.Input)
	for {
		ev, err := dec.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return zero, false, fmt.Errorf("prompt: input closed: %w", err)
			}
			return zero, false, fmt.Errorf("prompt: read key: %w", err)
		}
		v, ok, done, err := s.dispatch(ev)
		if err != nil || done {
			return v, ok, err
		}
	}
}

// begin starts a session: a fresh buffer, renderer and search engine, and
// the first frame.
func (s *Selection[T]) begin(prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ren != nil {
		return ErrSessionActive
	}

	buf, err := screen.NewBuffer(s.width, s.height, s.opts.Title)
	if err != nil {
		return err
	}
	s.log = s.logger.With("session", uuid.NewString())
	s.ren = screen.NewRenderer(buf, s.opts.Output, s.theme, s.log)
	s.engine = search.New(s.index,
		search.WithWorkers(s.opts.SearchWorkers),
		search.WithLogger(s.log),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.prompt = prompt
	s.cursor, s.first = 0, 0
	s.query = nil
	s.setMode(browsing)

	r, err := s.engine.Search(s.ctx, "")
	if err != nil {
		return err
	}
	s.result = r
	s.log.Debug("session started",
		"width", s.width,
		"height", s.height,
		"items_on_screen", s.lay.items,
		"choices", r.Total,
	)

	if err := s.ren.Begin(); err != nil {
		return err
	}
	return s.redrawAll()
}

// end stops running searches and tears the screen down.
func (s *Selection[T]) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ren := s.ren
	if ren == nil {
		return
	}
	s.cancel()
	s.ren = nil
	s.waitIdle()

	if err := ren.End(); err != nil {
		s.log.Warn("screen teardown failed", "error", err)
	}
	s.engine = nil
	s.result = search.Result{}
	s.query = nil
	s.setMode(browsing)
	s.log.Debug("session ended")
}

// dispatch handles one key event. done reports that the session is over.
func (s *Selection[T]) dispatch(ev keymap.Event) (v T, ok bool, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ren == nil {
		return v, false, true, nil
	}

	b, matched := s.keys.Match(ev)
	if matched && b.Action == ActionStopSearch {
		// Let the last query settle before browsing its result.
		s.waitIdle()
	}

	if !matched {
		if s.mode == searching && ev.Printable() {
			s.query = append(s.query, ev.Rune)
			return v, false, false, s.queryChanged()
		}
		return v, false, false, nil
	}

	s.log.Debug("key", "event", ev.String(), "action", string(b.Action), "mode", s.mode.String())
	switch b.Action {
	case ActionInterrupt:
		return v, false, true, ErrInterrupted
	case ActionExit:
		return v, false, true, nil
	case ActionSelect:
		if s.result.Len() == 0 {
			return v, false, false, nil
		}
		v, ok = s.index.Value(s.result.Entries[s.cursor].Index)
		return v, ok, true, nil
	case ActionUp:
		err = s.step(-1)
	case ActionDown:
		err = s.step(1)
	case ActionPageUp:
		err = s.page(-1)
	case ActionPageDown:
		err = s.page(1)
	case ActionHome:
		err = s.moveTo(0)
	case ActionEnd:
		err = s.moveTo(s.result.Len() - 1)
	case ActionSearch:
		err = s.startSearchMode()
	case ActionStopSearch:
		err = s.stopSearchMode()
	case ActionBackspace:
		if len(s.query) > 0 {
			s.query = s.query[:len(s.query)-1]
			err = s.queryChanged()
		}
	}
	return v, false, false, err
}

func (s *Selection[T]) startSearchMode() error {
	if err := s.clearMarker(); err != nil {
		return err
	}
	s.setMode(searching)
	if err := s.drawHelp(); err != nil {
		return err
	}
	if err := s.ren.ShowCursor(true); err != nil {
		return err
	}
	return s.drawQuery()
}

func (s *Selection[T]) stopSearchMode() error {
	s.setMode(browsing)
	if err := s.ren.ShowCursor(false); err != nil {
		return err
	}
	if err := s.drawHelp(); err != nil {
		return err
	}
	s.cursor, s.first = 0, 0
	if err := s.drawQuery(); err != nil {
		return err
	}
	return s.renderPage()
}

// queryChanged redraws the query line and starts a search for it.
func (s *Selection[T]) queryChanged() error {
	s.cursor, s.first = 0, 0
	if err := s.drawQuery(); err != nil {
		return err
	}
	s.startSearch(string(s.query), true)
	return nil
}

// startSearch runs a search in the background. Starting it cancels the
// previous one; a superseded search never touches the screen. Callers hold
// s.mu.
func (s *Selection[T]) startSearch(query string, reset bool) {
	engine, ctx, log := s.engine, s.ctx, s.log
	s.inflight++
	go func() {
		r, err := engine.Search(ctx, query)

		s.mu.Lock()
		defer s.mu.Unlock()
		defer s.searchDone()
		if err != nil {
			if !errors.Is(err, search.ErrSuperseded) && !errors.Is(err, context.Canceled) {
				log.Warn("search failed", "query", query, "error", err)
			}
			return
		}
		if s.ren == nil || s.engine != engine || r.Generation != engine.Generation() {
			return
		}
		// Appends that landed between the commit and here were folded
		// into the engine's result by Refresh; r predates them.
		if cur := engine.Current(); cur.Generation == r.Generation {
			r = cur
		}
		s.result = r
		if reset {
			s.cursor, s.first = 0, 0
		} else {
			s.clampCursor()
		}
		if err := s.renderPage(); err != nil {
			log.Warn("redraw after search failed", "error", err)
		}
	}()
}

// clampCursor restores the viewport invariant after the result shrank.
func (s *Selection[T]) clampCursor() {
	n := s.result.Len()
	if n == 0 {
		s.cursor, s.first = 0, 0
		return
	}
	s.cursor = min(s.cursor, n-1)
	s.first = min(s.first, s.cursor)
	if s.cursor >= s.first+s.lay.items {
		s.first = s.cursor - s.lay.items + 1
	}
}

// step moves the cursor by one, wrapping around when configured.
func (s *Selection[T]) step(delta int) error {
	n := s.result.Len()
	if n == 0 {
		return nil
	}
	target := s.cursor + delta
	switch {
	case target < 0 && s.opts.Wrap:
		target = n - 1
	case target >= n && s.opts.Wrap:
		target = 0
	}
	return s.moveTo(target)
}

// moveTo places the cursor on target (clamped). Inside the viewport only the
// two marker cells are redrawn; otherwise the page scrolls just enough to
// show the cursor.
func (s *Selection[T]) moveTo(target int) error {
	n := s.result.Len()
	if n == 0 {
		return nil
	}
	target = max(0, min(target, n-1))
	if target == s.cursor {
		return nil
	}
	old := s.cursor
	s.cursor = target

	if s.visible(target) {
		if s.visible(old) {
			if err := s.ren.SetCell(s.lay.row(old-s.first), s.lay.markerCol, s.theme.Blank); err != nil {
				return err
			}
		}
		return s.drawMarker()
	}
	if target < s.first {
		s.first = target
	} else {
		s.first = target - s.lay.items + 1
	}
	return s.renderPage()
}

// page moves cursor and viewport by one page.
func (s *Selection[T]) page(dir int) error {
	n := s.result.Len()
	if n == 0 {
		return nil
	}
	items := s.lay.items
	cursor := max(0, min(s.cursor+dir*items, n-1))
	first := max(0, min(s.first+dir*items, n-items))
	if cursor < first {
		first = cursor
	} else if cursor >= first+items {
		first = cursor - items + 1
	}
	if cursor == s.cursor && first == s.first {
		return nil
	}
	s.cursor, s.first = cursor, first
	return s.renderPage()
}

func (s *Selection[T]) visible(i int) bool {
	return i >= s.first && i < s.first+s.lay.items
}

// redrawAll rebuilds the whole frame and writes it in one pass.
func (s *Selection[T]) redrawAll() error {
	s.ren.Buffer().Clear()
	if err := s.ren.Decorate(); err != nil {
		return err
	}
	if err := s.ren.DrawFull(); err != nil {
		return err
	}
	if err := s.ren.WriteLine(s.lay.promptRow, s.lay.markerCol, s.prompt); err != nil {
		return err
	}
	if err := s.drawHelp(); err != nil {
		return err
	}
	if err := s.drawQuery(); err != nil {
		return err
	}
	return s.renderPage()
}

// renderPage draws the visible slice of the result in one flush, then the
// marker and the count line.
func (s *Selection[T]) renderPage() error {
	entries := s.result.Entries
	for slot := 0; slot < s.lay.items; slot++ {
		var text string
		if i := s.first + slot; i < len(entries) {
			text = choice.Truncate(entries[i].Display, s.lay.textWidth)
		}
		if err := s.ren.SetLine(s.lay.row(slot), s.lay.textCol, text); err != nil {
			return err
		}
	}
	if err := s.ren.DrawLines(s.lay.row(0), s.lay.row(s.lay.items-1)); err != nil {
		return err
	}
	if s.mode == browsing {
		if err := s.drawMarker(); err != nil {
			return err
		}
	}
	return s.drawCount()
}

func (s *Selection[T]) drawMarker() error {
	if s.result.Len() == 0 || !s.visible(s.cursor) {
		return nil
	}
	return s.ren.SetCell(s.lay.row(s.cursor-s.first), s.lay.markerCol, s.theme.Cursor)
}

func (s *Selection[T]) clearMarker() error {
	if s.result.Len() == 0 || !s.visible(s.cursor) {
		return nil
	}
	return s.ren.SetCell(s.lay.row(s.cursor-s.first), s.lay.markerCol, s.theme.Blank)
}

func (s *Selection[T]) drawCount() error {
	text := fmt.Sprintf("%d/%d", s.result.Len(), s.result.Total)
	if err := s.ren.WriteLine(s.lay.countRow, s.lay.markerCol, text); err != nil {
		return err
	}
	return s.placeCaret()
}

func (s *Selection[T]) drawHelp() error {
	return s.ren.WriteLine(s.lay.helpRow, s.lay.markerCol, s.keys.Help())
}

func (s *Selection[T]) drawQuery() error {
	if s.mode == browsing && len(s.query) == 0 {
		return s.ren.ResetRows(s.lay.queryRow, s.lay.queryRow)
	}
	if err := s.ren.WriteLine(s.lay.queryRow, s.lay.markerCol, s.theme.QueryPrefix+string(s.query)); err != nil {
		return err
	}
	return s.placeCaret()
}

// placeCaret parks the terminal cursor after the query while searching.
func (s *Selection[T]) placeCaret() error {
	if s.mode != searching {
		return nil
	}
	return s.ren.PlaceCursor(s.lay.queryRow, s.caretCol())
}

func (s *Selection[T]) caretCol() int {
	col := s.lay.markerCol + utf8.RuneCountInString(s.theme.QueryPrefix) + len(s.query)
	return max(0, min(col, s.width-2))
}

// searchDone marks one search goroutine finished. Callers hold s.mu.
func (s *Selection[T]) searchDone() {
	s.inflight--
	if s.inflight == 0 {
		s.idle.Broadcast()
	}
}

// waitIdle blocks until no search goroutine is running. Callers hold s.mu;
// it is released while waiting.
func (s *Selection[T]) waitIdle() {
	for s.inflight > 0 {
		s.idle.Wait()
	}
}

// settle waits for running searches to finish.
func (s *Selection[T]) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitIdle()
}
