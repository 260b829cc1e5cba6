package config

import (
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RuntimeConfig holds settings that can change without a restart.
type RuntimeConfig struct {
	DefaultPageSize int    `mapstructure:"defaultPageSize"`
	MaxPageSize     int    `mapstructure:"maxPageSize"`
	LogLevel        string `mapstructure:"-"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

type RuntimeHolder struct {
	current atomic.Value // holds RuntimeConfig

	mu        sync.Mutex
	listeners []func(RuntimeConfig)
}

// NewStaticRuntimeHolder returns a holder that never reloads.
func NewStaticRuntimeHolder(cfg RuntimeConfig) *RuntimeHolder {
	holder := &RuntimeHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewRuntimeHolder reads the listing and log sections of catalog.yml and
// watches the file for changes. Without a file the defaults never change.
func NewRuntimeHolder() (*RuntimeHolder, error) {
	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/catalog")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRuntimeConfig()
	v.SetDefault("listing.defaultPageSize", defaults.DefaultPageSize)
	v.SetDefault("listing.maxPageSize", defaults.MaxPageSize)
	v.SetDefault("log.level", "")

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := readRuntimeConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticRuntimeHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := readRuntimeConfig(v)
		if err != nil {
			log.Printf("[runtime-config] reload of %s ignored: %v", e.Name, err)
			return
		}
		holder.set(updated)
		log.Printf("[runtime-config] reloaded from %s", e.Name)
	})
	v.WatchConfig()

	return holder, nil
}

func readRuntimeConfig(v *viper.Viper) (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := v.UnmarshalKey("listing", &cfg); err != nil {
		return RuntimeConfig{}, err
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString("log.level")))
	if err := validateRuntimeConfig(cfg); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func (h *RuntimeHolder) Get() RuntimeConfig {
	return h.current.Load().(RuntimeConfig)
}

// Subscribe registers fn to run after every successful reload.
func (h *RuntimeHolder) Subscribe(fn func(RuntimeConfig)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *RuntimeHolder) set(cfg RuntimeConfig) {
	h.current.Store(cfg)

	h.mu.Lock()
	listeners := append([]func(RuntimeConfig){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
}

func validateRuntimeConfig(cfg RuntimeConfig) error {
	if cfg.DefaultPageSize < 1 {
		return errors.New("listing.defaultPageSize must be positive")
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		return errors.New("listing.maxPageSize must be >= listing.defaultPageSize")
	}
	if cfg.LogLevel != "" && !logLevels[cfg.LogLevel] {
		return errors.New("log.level must be one of debug, info, warn, error")
	}
	return nil
}
