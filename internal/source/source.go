// Package source produces choices in the background: lines from a reader, a
// file or a shell command, batched into a sink while a prompt is showing.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/sync/errgroup"
)

// MaxLineSize is the longest line a producer accepts.
const MaxLineSize = 1 << 20

// ErrEmptyCommand is returned for a blank command line.
var ErrEmptyCommand = errors.New("source: empty command")

// Producer emits lines until its input is exhausted or ctx is done.
type Producer func(ctx context.Context, emit func(string)) error

// Reader returns a producer emitting the lines of r. Trailing carriage
// returns and empty lines are dropped.
func Reader(r io.Reader) Producer {
	return func(ctx context.Context, emit func(string)) error {
		return scanLines(ctx, r, emit)
	}
}

// File returns a producer emitting the lines of the file at path.
func File(path string) Producer {
	return func(ctx context.Context, emit func(string)) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("source: open %s: %w", path, err)
		}
		defer f.Close()
		return scanLines(ctx, f, emit)
	}
}

// Command returns a producer that runs cmdline and emits its standard
// output lines. The command line is split with shell quoting rules; it is
// not run through a shell.
func Command(cmdline string) Producer {
	return func(ctx context.Context, emit func(string)) error {
		args, err := shlex.Split(cmdline)
		if err != nil {
			return fmt.Errorf("source: parse command: %w", err)
		}
		if len(args) == 0 {
			return ErrEmptyCommand
		}

		cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: command comes from the user
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		var stderr strings.Builder
		cmd.Stderr = &stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("source: start %s: %w", args[0], err)
		}

		scanErr := scanLines(ctx, stdout, emit)
		if scanErr != nil {
			// Unblock the child before waiting on it.
			_, _ = io.Copy(io.Discard, stdout)
		}
		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return fmt.Errorf("source: %s: %w: %s", args[0], err, msg)
			}
			return fmt.Errorf("source: %s: %w", args[0], err)
		}
		return scanErr
	}
}

func scanLines(ctx context.Context, r io.Reader, emit func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		emit(line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("source: read: %w", err)
	}
	return nil
}

// Stream runs the producers concurrently, feeding every line to b, and
// flushes b when they are all done. The first producer error cancels the
// others.
func Stream(ctx context.Context, b *Batcher, producers ...Producer) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range producers {
		g.Go(func() error {
			return p(gctx, b.Add)
		})
	}
	err := g.Wait()
	b.Close()
	return err
}
