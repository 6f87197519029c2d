package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/termpick/internal/choice"
)

func fruitIndex() *choice.Index[string] {
	x := choice.NewIndex[string](nil)
	x.AppendAll([]string{"Apple", "Banana", "Cherry", "Date", "Apricot"})
	return x
}

func displays(r Result) []string {
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Display)
	}
	return out
}

func TestSearch_Substring(t *testing.T) {
	e := New(fruitIndex())

	r, err := e.Search(context.Background(), "ap")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Apricot"}, displays(r))
	assert.Equal(t, 5, r.Total)

	r, err = e.Search(context.Background(), "AN")
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana"}, displays(r))

	r, err = e.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, r.Entries, 5)
}

func TestSearch_IncrementalNarrowing(t *testing.T) {
	e := New(fruitIndex())

	r, err := e.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, r.Incremental)
	wide := displays(r)

	r, err = e.Search(context.Background(), "ap")
	require.NoError(t, err)
	assert.True(t, r.Incremental)
	assert.Subset(t, wide, displays(r))
	assert.Equal(t, []string{"Apple", "Apricot"}, displays(r))

	// Backspace is not an extension: full recompute.
	r, err = e.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, r.Incremental)
	assert.Equal(t, wide, displays(r))
}

func TestSearch_IncrementalIncludesAppended(t *testing.T) {
	x := fruitIndex()
	e := New(x)

	_, err := e.Search(context.Background(), "a")
	require.NoError(t, err)
	x.Append("Grape")

	r, err := e.Search(context.Background(), "ap")
	require.NoError(t, err)
	assert.True(t, r.Incremental)
	assert.Equal(t, []string{"Apple", "Apricot", "Grape"}, displays(r))
	assert.Equal(t, 6, r.Total)
}

func TestSearch_Idempotent(t *testing.T) {
	e := New(fruitIndex())
	a, err := e.Search(context.Background(), "e")
	require.NoError(t, err)
	b, err := e.Search(context.Background(), "e")
	require.NoError(t, err)
	assert.Equal(t, displays(a), displays(b))
	assert.Greater(t, b.Generation, a.Generation)
}

func TestSearch_MatchesFullRecompute(t *testing.T) {
	x := choice.NewIndex[string](nil)
	for i := 0; i < 5000; i++ {
		x.Append(fmt.Sprintf("item-%04d", i))
	}
	parallel := New(x, WithWorkers(4))
	serial := New(x, WithWorkers(1))

	for _, q := range []string{"1", "12", "123", "item-0", "9"} {
		p, err := parallel.Search(context.Background(), q)
		require.NoError(t, err)
		s, err := serial.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, displays(s), displays(p), "query %q", q)
		for i := 1; i < len(p.Entries); i++ {
			assert.Less(t, p.Entries[i-1].Index, p.Entries[i].Index)
		}
	}
}

func TestSearch_ConverterChangeForcesRecompute(t *testing.T) {
	x := fruitIndex()
	e := New(x)
	_, err := e.Search(context.Background(), "a")
	require.NoError(t, err)

	x.SetConverter(func(s string) string { return "x" + s })
	r, err := e.Search(context.Background(), "ax")
	require.NoError(t, err)
	assert.False(t, r.Incremental)
	assert.Empty(t, r.Entries)

	r, err = e.Search(context.Background(), "xa")
	require.NoError(t, err)
	assert.Equal(t, []string{"xApple", "xApricot"}, displays(r))
}

func TestSearch_SupersededIsDiscarded(t *testing.T) {
	x := choice.NewIndex[string](nil)
	for i := 0; i < 2000; i++ {
		x.Append(fmt.Sprintf("entry %d", i))
	}

	started := make(chan struct{})
	var once sync.Once
	slow := func(entry choice.Entry, q string) bool {
		if q == "slow" {
			once.Do(func() { close(started) })
			time.Sleep(time.Millisecond)
		}
		return Contains(entry, q)
	}
	e := New(x, WithMatcher(slow), WithWorkers(1))

	errc := make(chan error, 1)
	go func() {
		_, err := e.Search(context.Background(), "slow")
		errc <- err
	}()
	<-started

	r, err := e.Search(context.Background(), "entry 1999")
	require.NoError(t, err)
	assert.Equal(t, []string{"entry 1999"}, displays(r))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded search did not stop")
	}
	assert.Equal(t, "entry 1999", e.Current().Query)
}

func TestSearch_ParentContextCancelled(t *testing.T) {
	e := New(fruitIndex())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Search(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing was committed and the engine is usable again.
	r, err := e.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Entries)
}

func TestSearch_CancelStopsRunning(t *testing.T) {
	x := choice.NewIndex[string](nil)
	for i := 0; i < 500; i++ {
		x.Append("entry")
	}
	started := make(chan struct{})
	var once sync.Once
	slow := func(entry choice.Entry, q string) bool {
		once.Do(func() { close(started) })
		time.Sleep(time.Millisecond)
		return true
	}
	e := New(x, WithMatcher(slow), WithWorkers(1))

	errc := make(chan error, 1)
	go func() {
		_, err := e.Search(context.Background(), "e")
		errc <- err
	}()
	<-started
	e.Cancel()
	assert.ErrorIs(t, <-errc, ErrSuperseded)
}

func TestRefresh_AppendsNewMatches(t *testing.T) {
	x := fruitIndex()
	e := New(x)

	_, changed := e.Refresh(context.Background())
	assert.False(t, changed, "nothing committed yet")

	_, err := e.Search(context.Background(), "an")
	require.NoError(t, err)

	_, changed = e.Refresh(context.Background())
	assert.False(t, changed)

	x.AppendAll([]string{"Mango", "Kiwi"})
	r, changed := e.Refresh(context.Background())
	assert.True(t, changed)
	assert.Equal(t, []string{"Banana", "Mango"}, displays(r))
	assert.Equal(t, 7, r.Total)
	assert.Equal(t, r.Entries, e.Current().Entries)
}

func TestRefresh_RecomputesAfterConverterChange(t *testing.T) {
	x := fruitIndex()
	e := New(x)
	_, err := e.Search(context.Background(), "APP")
	require.NoError(t, err)

	x.SetConverter(func(s string) string { return s + " app" })
	r, changed := e.Refresh(context.Background())
	assert.True(t, changed)
	assert.Len(t, r.Entries, 5)
}

func TestSearch_ConcurrentGrowth(t *testing.T) {
	x := choice.NewIndex[string](nil)
	e := New(x, WithWorkers(4))
	_, err := e.Search(context.Background(), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3000; i++ {
			x.Append(fmt.Sprintf("v%d", i))
			if i%100 == 0 {
				e.Refresh(context.Background())
			}
		}
	}()
	for _, q := range []string{"v", "v1", "v12", "v1"} {
		_, err := e.Search(context.Background(), q)
		require.NoError(t, err)
	}
	wg.Wait()

	e.Refresh(context.Background())
	got := e.Current()
	want, err := New(x, WithWorkers(1)).Search(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, displays(want), displays(got))
	assert.Equal(t, 3000, got.Total)
}
