package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/runger/termpick/internal/config"
	"github.com/runger/termpick/internal/logging"
)

// openLogger creates the file logger for a prompt run. A log file that
// cannot be opened is reported on errOut and logging is disabled.
func openLogger(cfg *config.Config, errOut io.Writer) (*slog.Logger, func()) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	logger, closer, err := logging.OpenFile(cfg.LogFile(), level)
	if err != nil {
		fmt.Fprintf(errOut, "termpick: logging disabled: %v\n", err)
		return logging.New(nil), func() {}
	}
	logger = logger.With("version", Version)
	return logger, func() { _ = closer.Close() }
}
