// Package search filters a growing choice index by a query. Every search
// carries a generation number; only the newest generation may commit its
// result, and starting a search cancels the one before it.
package search

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/runger/termpick/internal/choice"
)

// ErrSuperseded is returned by a search that was overtaken by a newer one.
// Its result is never committed.
var ErrSuperseded = errors.New("search: superseded by a newer query")

const (
	// inlineThreshold is the candidate count below which matching runs on
	// the calling goroutine.
	inlineThreshold = 1024
	// pollEvery is how many candidates a worker matches between
	// cancellation checks.
	pollEvery = 64
)

// Source is the index being searched.
type Source interface {
	Entries() []choice.Entry
	Version() uint64
}

// Matcher reports whether entry matches the lower-cased query.
type Matcher func(entry choice.Entry, query string) bool

// Contains is the default matcher: case-insensitive substring containment.
func Contains(entry choice.Entry, query string) bool {
	return strings.Contains(entry.Folded(), query)
}

// Result is a committed search result.
type Result struct {
	Query       string
	Entries     []choice.Entry // Matches in original index order
	Generation  uint64
	Incremental bool // Narrowed from the previous result
	Total       int  // Index size the result covers
}

// Len returns the number of matches.
func (r Result) Len() int {
	return len(r.Entries)
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of parallel match workers.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMatcher replaces the matching predicate.
func WithMatcher(m Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.match = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine runs searches over a Source.
type Engine struct {
	src     Source
	workers int
	match   Matcher
	logger  *slog.Logger

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	inflight  bool
	committed Result
	hasCommit bool
	seen      int    // Index entries covered by the committed result
	version   uint64 // Index version of the committed result
}

// New creates an engine over src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:     src,
		workers: runtime.GOMAXPROCS(0),
		match:   Contains,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search filters the index by query and commits the result. Any search
// still running is cancelled. When query extends the last committed query
// and the index was not rewritten in between, only the previous matches and
// the entries appended since are examined.
func (e *Engine) Search(ctx context.Context, query string) (Result, error) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.cancel = cancel
	e.inflight = true

	all := e.src.Entries()
	version := e.src.Version()
	prev := e.committed
	incremental := e.hasCommit &&
		version == e.version &&
		len(prev.Entries) > 0 &&
		len(query) > len(prev.Query) &&
		strings.HasPrefix(query, prev.Query)

	candidates := all
	if incremental {
		candidates = make([]choice.Entry, 0, len(prev.Entries)+len(all)-e.seen)
		candidates = append(candidates, prev.Entries...)
		candidates = append(candidates, all[e.seen:]...)
	}
	e.mu.Unlock()

	folded := strings.ToLower(query)
	matched, err := e.filter(ctx, candidates, folded)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.logger.Debug("search superseded", "query", query, "generation", gen, "current", e.gen)
		return Result{}, ErrSuperseded
	}
	e.inflight = false
	e.cancel = nil
	if err != nil {
		return Result{}, err
	}

	seen := len(all)
	if latest := e.src.Entries(); e.src.Version() == version && len(latest) > seen {
		extra, err := e.filter(context.WithoutCancel(ctx), latest[seen:], folded)
		if err != nil {
			return Result{}, err
		}
		matched = append(matched, extra...)
		seen = len(latest)
	}

	e.commit(Result{
		Query:       query,
		Entries:     matched,
		Generation:  gen,
		Incremental: incremental,
		Total:       seen,
	}, version)
	e.logger.Debug("search committed",
		"query", query,
		"generation", gen,
		"candidates", len(candidates),
		"matches", len(matched),
		"incremental", incremental,
	)
	return e.committed, nil
}

// Refresh brings the committed result up to date with entries appended
// since it was committed, or recomputes it when the index was rewritten.
// It does nothing while a search is running, since that search covers the
// new entries when it commits. The bool reports whether the result changed.
func (e *Engine) Refresh(ctx context.Context) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight || !e.hasCommit {
		return e.committed, false
	}

	all := e.src.Entries()
	version := e.src.Version()
	folded := strings.ToLower(e.committed.Query)

	if version != e.version {
		matched, err := e.filter(ctx, all, folded)
		if err != nil {
			return e.committed, false
		}
		e.commit(Result{
			Query:      e.committed.Query,
			Entries:    matched,
			Generation: e.gen,
			Total:      len(all),
		}, version)
		e.logger.Debug("search recomputed", "query", e.committed.Query, "matches", len(matched))
		return e.committed, true
	}

	if len(all) <= e.seen {
		return e.committed, false
	}
	extra, err := e.filter(ctx, all[e.seen:], folded)
	if err != nil {
		return e.committed, false
	}
	r := e.committed
	r.Entries = append(r.Entries, extra...)
	r.Total = len(all)
	e.commit(r, version)
	return e.committed, true
}

// commit stores r as the current result. Callers hold e.mu.
func (e *Engine) commit(r Result, version uint64) {
	n := len(r.Entries)
	r.Entries = r.Entries[:n:n]
	e.committed = r
	e.hasCommit = true
	e.seen = r.Total
	e.version = version
}

// Current returns the committed result.
func (e *Engine) Current() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed
}

// Generation returns the generation of the newest search started.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// Cancel stops any running search without starting a new one.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	e.inflight = false
}

// filter returns the candidates matching the folded query, in order.
func (e *Engine) filter(ctx context.Context, candidates []choice.Entry, folded string) ([]choice.Entry, error) {
	if folded == "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([]choice.Entry, len(candidates))
		copy(out, candidates)
		return out, nil
	}
	if len(candidates) < inlineThreshold || e.workers == 1 {
		return e.matchChunk(ctx, candidates, folded)
	}

	size := (len(candidates) + e.workers - 1) / e.workers
	parts := make([][]choice.Entry, 0, e.workers)
	for start := 0; start < len(candidates); start += size {
		parts = append(parts, candidates[start:min(start+size, len(candidates))])
	}

	results := make([][]choice.Entry, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			matched, err := e.matchChunk(gctx, part, folded)
			results[i] = matched
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]choice.Entry, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) matchChunk(ctx context.Context, chunk []choice.Entry, folded string) ([]choice.Entry, error) {
	var out []choice.Entry
	for i, c := range chunk {
		if i%pollEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if e.match(c, folded) {
			out = append(out, c)
		}
	}
	return out, nil
}
