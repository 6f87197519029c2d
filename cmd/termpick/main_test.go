package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runger/termpick/internal/cmd"
)

func TestErrorMessage(t *testing.T) {
	assert.Empty(t, errorMessage(nil))
	assert.Empty(t, errorMessage(&cmd.ExitError{Code: cmd.ExitCancelled}))
	assert.Equal(t, "no TTY available", errorMessage(&cmd.ExitError{Code: cmd.ExitFallback, Err: errors.New("no TTY available")}))
	assert.Equal(t, `unknown command "x"`, errorMessage(errors.New(`unknown command "x"`)))
}
