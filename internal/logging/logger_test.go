package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		level zap.AtomicLevel
	}{
		{"quiet by default", false, zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"debug", true, zap.NewAtomicLevelAt(zap.DebugLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.debug)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, l.Core().Enabled(zap.DebugLevel))
			assert.True(t, l.Core().Enabled(zap.WarnLevel))
			assert.Equal(t, tt.level.Level().Enabled(zap.InfoLevel), l.Core().Enabled(zap.InfoLevel))
		})
	}
}

func TestStep(t *testing.T) {
	f := Step("create_note")
	assert.Equal(t, KeyStep, f.Key)
	assert.Equal(t, "create_note", f.String)
}
