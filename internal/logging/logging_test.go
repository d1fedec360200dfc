package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "auto")
	log.Debug("hidden")
	log.Info("saved", "collection", "modalities")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "saved", line["msg"])
	assert.Equal(t, "modalities", line["collection"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "text").Debug("expanded", "depth", 2)
	assert.Contains(t, buf.String(), "msg=expanded depth=2")
}

func TestNewLeveledFollowsLevelChanges(t *testing.T) {
	var buf bytes.Buffer
	var level slog.LevelVar
	log := NewLeveled(&buf, &level, "text")

	log.Debug("first")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelDebug)
	log.Debug("second")
	assert.Contains(t, buf.String(), "msg=second")
}
