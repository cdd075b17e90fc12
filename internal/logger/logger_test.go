package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestZapLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLogger("conn", &buf, false)

	l.Debug("hidden %d", 1)
	l.Info("info message %d", 42)
	l.Warn("warning message")
	l.Error("error message")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 3, "debug should be filtered out at info level")

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "info message 42", entries[0]["msg"])
	assert.Equal(t, "conn", entries[0]["component"])
	assert.Equal(t, "warn", entries[1]["level"])
	assert.Equal(t, "error", entries[2]["level"])
}

func TestZapLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		expectLog bool
	}{
		{name: "logs when debug enabled", debug: true, expectLog: true},
		{name: "silent when debug disabled", debug: false, expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewZapLogger("test", &buf, tt.debug)
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestZapLogger_NoComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLogger("", &buf, false)
	l.Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	_, ok := entries[0]["component"]
	assert.False(t, ok)
}

func TestNoopLogger(t *testing.T) {
	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")
}

func TestOrNoop(t *testing.T) {
	assert.NotNil(t, OrNoop(nil))

	buf := NewBufferLogger()
	assert.Equal(t, buf, OrNoop(buf))
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	msgs := l.Snapshot()
	require.Len(t, msgs, 4)

	assert.Equal(t, "debug", msgs[0].Level)
	assert.Equal(t, "debug msg", msgs[0].Message)
	assert.Equal(t, "info", msgs[1].Level)
	assert.Equal(t, "warn", msgs[2].Level)
	assert.Equal(t, "error", msgs[3].Level)
	assert.Equal(t, "error msg", msgs[3].Message)
}

func TestBufferLogger_HasLevelAndClear(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("error"))
	l.Error("boom")
	assert.True(t, l.HasLevel("error"))

	l.Clear()
	assert.Empty(t, l.Snapshot())
	assert.False(t, l.HasLevel("error"))
}
