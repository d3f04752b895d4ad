package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/visionize/internal/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DEBUG, logger.ParseLevel("debug"))
	assert.Equal(t, logger.WARN, logger.ParseLevel("WARNING"))
	assert.Equal(t, logger.ERROR, logger.ParseLevel(" error "))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN), logger.WithColors(false))

	log.Info("hidden")
	log.Warn("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown 1")
}

func TestLogger_FieldsAreSortedAndInherited(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(logger.WithOutput(&buf), logger.WithColors(false))
	log := base.WithPrefix("session").WithField("zeta", 2).WithFields(map[string]any{"alpha": 1})

	log.Info("tick")

	out := buf.String()
	assert.Contains(t, out, "[session]")
	assert.Contains(t, out, "alpha=1 zeta=2")

	buf.Reset()
	base.Info("plain")
	assert.NotContains(t, buf.String(), "alpha=1")
}

func TestContextRoundTrip(t *testing.T) {
	log := logger.Discard().WithField("request_id", "abc")
	ctx := logger.NewContext(context.Background(), log)

	assert.Same(t, log, logger.FromContext(ctx))
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
