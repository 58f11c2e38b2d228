package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/pkg/config"
)

const renderNow = "2024-03-10T12:00:00Z"

func TestRunRenderText(t *testing.T) {
	var out bytes.Buffer
	err := runRender(&config.Config{Timezone: "UTC"}, &out, "1", renderOptions{Now: renderNow, Width: 80})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "John Doe")
	assert.Contains(t, text, "── Yesterday ──")
	assert.Contains(t, text, "── Today ──")
	assert.Contains(t, text, "Seen by John Doe")
}

func TestRunRenderJSON(t *testing.T) {
	var out bytes.Buffer
	err := runRender(&config.Config{Timezone: "UTC"}, &out, "2", renderOptions{JSON: true, Now: renderNow, Width: 80})
	require.NoError(t, err)

	var payload struct {
		Chat    map[string]any   `json:"chat"`
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	assert.Equal(t, "Marketing Team", payload.Chat["name"])
	require.NotEmpty(t, payload.Entries)
	assert.Equal(t, "date_separator", payload.Entries[0]["kind"])
	assert.Equal(t, "Today", payload.Entries[0]["label"])
}

func TestRunRenderErrors(t *testing.T) {
	var out bytes.Buffer
	err := runRender(&config.Config{}, &out, "missing", renderOptions{Now: renderNow})
	assert.ErrorIs(t, err, db.ErrChatNotFound)

	err = runRender(&config.Config{}, &out, "1", renderOptions{Now: "yesterday"})
	assert.ErrorContains(t, err, "invalid --now")
}
