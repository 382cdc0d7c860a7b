package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	Init(cfg)
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { Init(Config{}) })
	return buf
}

func TestJSONFieldsAndRequestID(t *testing.T) {
	buf := capture(t, Config{Level: "info", Format: "json"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithRequestID(ctx).WithError(errors.New("boom")).Warn("thread rebuilt with repairs")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "thread rebuilt with repairs", line["msg"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, Config{Level: "warn"})

	Info("hidden")
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	Errorf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	buf := capture(t, Config{Level: "chatty"})
	Info("visible")
	Debug("invisible")
	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "invisible")
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.NotNil(t, WithRequestID(context.Background()))
}
