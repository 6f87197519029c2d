// Package termtest drives prompts through a real pseudo-terminal using
// go-expect.
package termtest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
)

// Key constants for special keys (raw terminal bytes).
const (
	KeyUp       = "\x1b[A"
	KeyDown     = "\x1b[B"
	KeyRight    = "\x1b[C"
	KeyLeft     = "\x1b[D"
	KeyPageUp   = "\x1b[5~"
	KeyPageDown = "\x1b[6~"
	KeyEscape   = "\x1b"
	KeyEnter    = "\r"
	KeyTab      = "\t"
	KeyBack     = "\x7f"
	KeyCtrlC    = "\x03"
	KeyCtrlF    = "\x06"
	KeyCtrlR    = "\x12"

	// ExitAltScreen is written when a selection session ends.
	ExitAltScreen = "\x1b[?1049l"
)

// containerSem limits concurrent terminal tests in containers, where CPU
// contention makes expect timeouts flaky.
var containerSem = make(chan struct{}, 2)

// AcquireSlot limits parallelism in container environments. On local
// machines it is a no-op.
func AcquireSlot(t *testing.T) {
	if IsRunningInContainer() {
		containerSem <- struct{}{}
		t.Cleanup(func() { <-containerSem })
	}
}

// IsRunningInContainer detects if we're running inside a Docker container.
func IsRunningInContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		if strings.Contains(content, "docker") || strings.Contains(content, "lxc") {
			return true
		}
	}
	return false
}

// Session is a pseudo-terminal whose slave side is handed to the code under
// test and whose master side is scripted by the test.
type Session struct {
	Console *expect.Console
	Timeout time.Duration
}

// Option configures a Session.
type Option func(*config)

type config struct {
	timeout    time.Duration
	showOutput bool
}

// WithTimeout sets the default timeout for expect operations.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithOutput mirrors terminal output to stdout for debugging.
func WithOutput(show bool) Option {
	return func(c *config) {
		c.showOutput = show
	}
}

// NewSession opens a pseudo-terminal. The session is closed when the test
// ends.
func NewSession(t *testing.T, opts ...Option) (*Session, error) {
	cfg := &config{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	consoleOpts := []expect.ConsoleOpt{expect.WithDefaultTimeout(cfg.timeout)}
	if cfg.showOutput {
		consoleOpts = append(consoleOpts, expect.WithStdout(os.Stdout))
	}
	console, err := expect.NewConsole(consoleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}
	s := &Session{Console: console, Timeout: cfg.timeout}
	t.Cleanup(func() { _ = s.Close() })
	return s, nil
}

// Tty returns the slave side, to be used as the prompt's input and output.
func (s *Session) Tty() *os.File {
	return s.Console.Tty()
}

// Send sends text without a newline.
func (s *Session) Send(text string) error {
	_, err := s.Console.Send(text)
	return err
}

// SendKey sends a special key (use Key* constants).
func (s *Session) SendKey(key string) error {
	return s.Send(key)
}

// Expect waits for an exact string match in the output.
func (s *Session) Expect(str string) (string, error) {
	return s.Console.ExpectString(str)
}

// ExpectTimeout waits for an exact string match with a specific timeout.
func (s *Session) ExpectTimeout(str string, timeout time.Duration) (string, error) {
	return s.Console.Expect(expect.String(str), expect.WithTimeout(timeout))
}

// ExpectRegex waits for a regex pattern match in the output.
func (s *Session) ExpectRegex(pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex: %w", err)
	}
	return s.Console.Expect(expect.Regexp(re))
}

// Close closes both sides of the pseudo-terminal.
func (s *Session) Close() error {
	return s.Console.Close()
}

// SkipIfShort skips the test in short mode.
func SkipIfShort(t *testing.T, reason string) {
	if testing.Short() {
		t.Skip("skipping in short mode: " + reason)
	}
}
