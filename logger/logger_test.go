package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "bogus"} {
		t.Run(level, func(t *testing.T) {
			log, err := New(level)
			require.NoError(t, err)
			require.NotNil(t, log)
			log.Info("test message", String("level", level))
			_ = log.Sync()
		})
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.Debug("debug")
		log.Warn("warn", Int("n", 1))
		log.Error("error", Error(errors.New("boom")))
		log.With(String("k", "v")).Info("child")
	})
}
