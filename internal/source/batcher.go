package source

import (
	"log/slog"
	"sync"
	"time"
)

// Sink receives batches of lines. *prompt.Selection[string] is a Sink.
type Sink interface {
	AddChoices(lines []string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(lines []string)

// AddChoices calls f.
func (f SinkFunc) AddChoices(lines []string) {
	f(lines)
}

// Defaults for NewBatcher.
const (
	DefaultBatchSize     = 256
	DefaultBatchInterval = 50 * time.Millisecond
)

// Batcher collects lines and hands them to a sink in batches: when a batch
// reaches its size, or when the interval has passed since the first line of
// the batch arrived. Batches are delivered in arrival order.
type Batcher struct {
	mu       sync.Mutex
	sink     Sink
	pending  []string
	size     int
	interval time.Duration
	timer    *time.Timer
	closed   bool
	logger   *slog.Logger

	totalLines   int64
	totalBatches int64
}

// NewBatcher creates a batcher. Non-positive size or interval select the
// defaults.
func NewBatcher(sink Sink, size int, interval time.Duration, logger *slog.Logger) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{
		sink:     sink,
		pending:  make([]string, 0, size),
		size:     size,
		interval: interval,
		logger:   logger,
	}
}

// Add queues one line. Lines added after Close are dropped.
func (b *Batcher) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.pending = append(b.pending, line)
	b.totalLines++
	if len(b.pending) >= b.size {
		b.flushLocked()
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.interval, b.Flush)
	}
}

// Flush delivers the pending lines now.
func (b *Batcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *Batcher) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	b.pending = make([]string, 0, b.size)
	b.totalBatches++
	b.sink.AddChoices(batch)
}

// Close flushes what is pending and stops accepting lines.
func (b *Batcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
	if !b.closed {
		b.closed = true
		b.logger.Debug("source drained", "lines", b.totalLines, "batches", b.totalBatches)
	}
}

// BatcherStats holds batcher counters.
type BatcherStats struct {
	Lines   int64
	Batches int64
	Pending int
}

// Stats returns the batcher counters.
func (b *Batcher) Stats() BatcherStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BatcherStats{
		Lines:   b.totalLines,
		Batches: b.totalBatches,
		Pending: len(b.pending),
	}
}
