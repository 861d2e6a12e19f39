package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "json", "info")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("shown", zap.String("op", "search"))
	require.NoError(t, l.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "search", line["op"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_ConsoleDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "", "")
	require.NoError(t, err)

	l.Info("info line")
	assert.Contains(t, buf.String(), "info line")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "json", "loud")
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.NotNil(t, From(context.Background()))

	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, From(ctx))
}
