package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "development default", env: "development", want: zapcore.DebugLevel},
		{name: "production default", env: "production", want: zapcore.InfoLevel},
		{name: "explicit level wins", env: "development", level: "warn", want: zapcore.WarnLevel},
		{name: "invalid level", env: "production", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl, err := resolveLevel(tt.env, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lvl.Level())
		})
	}
}

func TestNew(t *testing.T) {
	log, err := New("production", "")
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
