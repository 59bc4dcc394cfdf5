package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("fetched listings", "count", 3, "mode", "nearest")
	log.Warn("geolocation denied", "session_id", "abc")
	log.Debug("render")
	log.Error("fetch failed", "error", "boom")

	entries := logs.All()
	assert.Len(t, entries, 4)
	assert.Equal(t, "fetched listings", entries[0].Message)
	assert.Equal(t, int64(3), entries[0].ContextMap()["count"])
	assert.Equal(t, "nearest", entries[0].ContextMap()["mode"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestNewLoggerLevels(t *testing.T) {
	assert.NotNil(t, NewLogger("production", "warn"))
	assert.NotNil(t, NewLogger("development", ""))
	assert.NotNil(t, NewLogger("development", "not-a-level"))
	NewNop().Info("discarded")
}
