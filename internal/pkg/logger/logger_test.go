package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig(" DEBUG ", "json")
	assert.Equal(t, DebugLevel, cfg.Level)
	assert.False(t, cfg.Pretty)

	assert.True(t, ParseConfig("info", "console").Pretty)
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: InfoLevel, Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: InfoLevel, Pretty: true}) })

	l := Component("listview")
	l.Info().Str("resource", "colleges").Msg("loaded")
	l.Debug().Msg("dropped below level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "listview", entry["component"])
	assert.Equal(t, "colleges", entry["resource"])
	assert.Equal(t, zerolog.InfoLevel.String(), entry[zerolog.LevelFieldName])
}
