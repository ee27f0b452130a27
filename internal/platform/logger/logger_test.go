package logger_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pomoguard/internal/platform/logger"
)

func TestProductionLoggerWritesJSONAboveLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "warn", Environment: "production", Output: &buf})

	log.Info("hidden")
	log.With(logger.Component("engine")).Warn("store write failed", logger.Err(errors.New("disk full")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"store write failed"`)
	assert.Contains(t, out, `"component":"engine"`)
	assert.Contains(t, out, `"error":"disk full"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, logger.FromContext(context.Background()))

	nop := logger.Nop()
	ctx := logger.WithContext(context.Background(), nop)
	assert.Same(t, nop, logger.FromContext(ctx))
}
