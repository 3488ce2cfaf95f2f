package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "liveboard.log")

	log, flush, err := New(Options{File: path, Level: "debug", Console: &console})
	require.NoError(t, err)
	log.Named("board").Debugw("stroke committed", "points", 3)
	flush()

	assert.Contains(t, console.String(), "DEBUG")
	assert.Contains(t, console.String(), "board")
	assert.Contains(t, console.String(), "points")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stroke committed")
}

func TestLevelFilters(t *testing.T) {
	var console bytes.Buffer
	log, flush, err := New(Options{Level: "warn", Console: &console})
	require.NoError(t, err)
	log.Info("quiet")
	log.Warn("loud")
	flush()

	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "loud")
}

func TestBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
