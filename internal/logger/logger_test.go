package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/repo-tracker/internal/config"
)

func TestStringToLogrusLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"error":   logrus.ErrorLevel,
		"WARN":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"Info":    logrus.InfoLevel,
		"debug":   logrus.DebugLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, StringToLogrusLevel(in), in)
	}
}

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogsConfig{Level: "debug", OutputLogsAsJSON: true}, &buf)

	logger.WithField("username", "octocat").Debug("sync started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "octocat", entry["username"])
	assert.Equal(t, "sync started", entry["msg"])
}

func TestNewWithOutputText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogsConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
