package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRuntimeConfig(t *testing.T) {
	assert.NoError(t, validateRuntimeConfig(DefaultRuntimeConfig()))
	assert.Error(t, validateRuntimeConfig(RuntimeConfig{DefaultPageSize: 0, MaxPageSize: 10}))
	assert.Error(t, validateRuntimeConfig(RuntimeConfig{DefaultPageSize: 50, MaxPageSize: 10}))
}

func TestStaticRuntimeHolder(t *testing.T) {
	holder := NewStaticRuntimeHolder(RuntimeConfig{DefaultPageSize: 25, MaxPageSize: 50})
	assert.Equal(t, 25, holder.Get().DefaultPageSize)
	assert.Equal(t, 50, holder.Get().MaxPageSize)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList(" a, ,b ,"))
	assert.Empty(t, parseList(""))
}

func TestValidateRuntimeConfigLogLevel(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.LogLevel = "warn"
	assert.NoError(t, validateRuntimeConfig(cfg))

	cfg.LogLevel = "verbose"
	assert.Error(t, validateRuntimeConfig(cfg))
}

func TestRuntimeHolderNotifiesSubscribers(t *testing.T) {
	holder := NewStaticRuntimeHolder(DefaultRuntimeConfig())
	var got []RuntimeConfig
	holder.Subscribe(func(cfg RuntimeConfig) { got = append(got, cfg) })

	next := DefaultRuntimeConfig()
	next.LogLevel = "debug"
	holder.set(next)

	assert.Equal(t, []RuntimeConfig{next}, got)
	assert.Equal(t, "debug", holder.Get().LogLevel)
}
