package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTemporalAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Temporal(zap.New(core))

	l.Info("workflow started", "WorkflowID", "allocation-scan-EFT-1")
	l.(log.WithLogger).With("Namespace", "default").Warn("activity retry", "Attempt", 2)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "allocation-scan-EFT-1", entries[0].ContextMap()["WorkflowID"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "default", entries[1].ContextMap()["Namespace"])
	assert.EqualValues(t, 2, entries[1].ContextMap()["Attempt"])
}
