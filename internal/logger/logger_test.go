package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "warn", Format: "json"}, &buf)
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Info().Msg("dropped")
	Component("structurer").Warn().Str("step", "skills").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "structurer", entry["component"])
	assert.Equal(t, "skills", entry["step"])
	assert.Equal(t, "kept", entry["message"])
}

func TestInitWithWriterInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "verbose"}, &buf)
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Debug().Msg("hidden")
	Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
