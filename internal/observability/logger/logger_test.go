package logger

import (
	"context"
	"testing"

	"github.com/smallbiznis/catalog/internal/config"
	obscontext "github.com/smallbiznis/catalog/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	lvl, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = parseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = parseLevel("loud")
	assert.Error(t, err)
}

func TestNewFollowsRuntimeLevel(t *testing.T) {
	rc := config.DefaultRuntimeConfig()
	rc.LogLevel = "debug"
	holder := config.NewStaticRuntimeHolder(rc)

	log, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    Config{Level: "info"},
		Runtime:   holder,
	})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Params{Lifecycle: fxtest.NewLifecycle(t), Config: Config{Level: "loud"}})
	assert.Error(t, err)
}

func TestWithContextSkipsEmptyFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.NotContains(t, fields, "actor_id")
	assert.NotContains(t, fields, "trace_id")
}
