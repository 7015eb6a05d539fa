package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerBeforeInitialize(t *testing.T) {
	assert.NotPanics(t, func() {
		Logger().Info("dropped before initialization")
		assert.NoError(t, Sync())
	})
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	assert.Error(t, Initialize("not-a-level"))
}
