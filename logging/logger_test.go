package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextLevels(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "text", "warn")
	require.NoError(t, err)

	ctx := context.Background()
	log.Debug(ctx, "debug-msg")
	log.Info(ctx, "info-msg")
	log.Warn(ctx, "warn-msg", "k", "v")
	log.Error(ctx, "error-msg")

	out := buf.String()
	assert.NotContains(t, out, "debug-msg")
	assert.NotContains(t, out, "info-msg")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "k=v")
	assert.Contains(t, out, "level=ERROR")
}

func TestNew_JSONWith(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "json", "debug")
	require.NoError(t, err)

	log.With("component", "http").Info(context.Background(), "request", "status", 201)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec))
	assert.Equal(t, "request", rec["msg"])
	assert.Equal(t, "http", rec["component"])
	assert.Equal(t, float64(201), rec["status"])
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "text", "loud")
	assert.Error(t, err)
}
