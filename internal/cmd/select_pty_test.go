//go:build !windows

package cmd

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/runger/termpick/internal/termtest"
)

type runResult struct {
	stdout string
	err    error
}

// ptyTTY hands the command a duplicate of the session's terminal so the
// command can close its copy without closing the session.
func ptyTTY(s *termtest.Session) func() (*tty, error) {
	return func() (*tty, error) {
		fd, err := unix.Dup(int(s.Tty().Fd()))
		if err != nil {
			return nil, err
		}
		f := os.NewFile(uintptr(fd), s.Tty().Name())
		return &tty{in: f, out: f}, nil
	}
}

func startSelect(t *testing.T, stdin string, args ...string) (*termtest.Session, <-chan runResult) {
	t.Helper()
	termtest.SkipIfShort(t, "pseudo-terminal test")
	termtest.AcquireSlot(t)
	isolateConfig(t)

	session, err := termtest.NewSession(t)
	require.NoError(t, err)
	withTTY(t, ptyTTY(session))

	done := make(chan runResult, 1)
	argv := append([]string{"select", "--width", "40", "--height", "16", "--items", "3"}, args...)
	stdout, _ := prepareRoot(t, strings.NewReader(stdin), argv...)
	go func() {
		err := Execute()
		done <- runResult{stdout.String(), err}
	}()
	return session, done
}

func waitRun(t *testing.T, done <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(10 * time.Second):
		t.Fatal("command did not return")
		return runResult{}
	}
}

func TestSelectCmd_PTY_Choose(t *testing.T) {
	session, done := startSelect(t, "", "red", "green", "blue")

	_, err := session.Expect("3/3")
	require.NoError(t, err)
	require.NoError(t, session.SendKey(termtest.KeyDown))
	require.NoError(t, session.SendKey(termtest.KeyEnter))
	_, err = session.Expect(termtest.ExitAltScreen)
	require.NoError(t, err)

	r := waitRun(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, "green\n", r.stdout)
}

func TestSelectCmd_PTY_SearchStdin(t *testing.T) {
	session, done := startSelect(t, "alpha\nbeta\ngamma\ndelta\n", "--title", "Greek")

	_, err := session.Expect("4/4")
	require.NoError(t, err)
	require.NoError(t, session.SendKey(termtest.KeyCtrlF))
	_, err = session.Expect("Stop Search")
	require.NoError(t, err)
	require.NoError(t, session.Send("mm"))
	_, err = session.Expect("1/4")
	require.NoError(t, err)
	require.NoError(t, session.SendKey(termtest.KeyEscape))
	_, err = session.Expect("Start Search")
	require.NoError(t, err)
	require.NoError(t, session.SendKey(termtest.KeyEnter))
	_, err = session.Expect(termtest.ExitAltScreen)
	require.NoError(t, err)

	r := waitRun(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, "gamma\n", r.stdout)
}

func TestSelectCmd_PTY_Exit(t *testing.T) {
	session, done := startSelect(t, "", "red", "green")

	_, err := session.Expect("2/2")
	require.NoError(t, err)
	require.NoError(t, session.Send("Q"))
	_, err = session.Expect(termtest.ExitAltScreen)
	require.NoError(t, err)

	r := waitRun(t, done)
	assert.Equal(t, ExitCancelled, ExitCode(r.err))
	assert.Empty(t, r.stdout)
}

func TestSelectCmd_PTY_Interrupt(t *testing.T) {
	session, done := startSelect(t, "", "red", "green")

	_, err := session.Expect("2/2")
	require.NoError(t, err)
	require.NoError(t, session.SendKey(termtest.KeyCtrlC))
	_, err = session.Expect(termtest.ExitAltScreen)
	require.NoError(t, err)

	r := waitRun(t, done)
	assert.Equal(t, ExitInterrupted, ExitCode(r.err))
}

func TestSelectCmd_PTY_Rebind(t *testing.T) {
	session, done := startSelect(t, "", "--bind", "select=space", "red", "green")

	_, err := session.Expect("Space")
	require.NoError(t, err)
	require.NoError(t, session.Send(" "))
	_, err = session.Expect(termtest.ExitAltScreen)
	require.NoError(t, err)

	r := waitRun(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, "red\n", r.stdout)
}
