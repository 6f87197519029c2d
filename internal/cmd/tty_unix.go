//go:build !windows

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

func openControllingTTY() (*tty, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &tty{in: f, out: f}, nil
}

// termWidth returns the terminal width via ioctl, or 0 if unavailable.
func termWidth(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0
	}
	return int(ws.Col)
}
