// Package config loads dashboard settings from the environment (and an
// optional .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/luki/tempdash/internal/locale"
	"github.com/luki/tempdash/internal/series"
)

// Config holds everything needed to start a dashboard session.
type Config struct {
	HistoryURL string `validate:"required,url"`
	LiveURL    string `validate:"required,url"`

	// Capacity is the maximum number of readings kept on screen.
	Capacity int `validate:"gt=0"`

	Locale locale.Selector

	HTTPTimeout  time.Duration `validate:"gt=0"`
	ReconnectMin time.Duration `validate:"gt=0"`
	ReconnectMax time.Duration `validate:"gtefield=ReconnectMin"`

	LogFile  string
	LogLevel string `validate:"oneof=trace debug info warn error"`
}

var validate = validator.New()

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HistoryURL:   "http://localhost:8080/api/temperature/history",
		LiveURL:      "ws://localhost:8080/ws/temperature",
		Capacity:     series.DefaultCapacity,
		Locale:       locale.BR,
		HTTPTimeout:  10 * time.Second,
		ReconnectMin: 500 * time.Millisecond,
		ReconnectMax: 30 * time.Second,
		LogFile:      "tempdash.log",
		LogLevel:     "info",
	}
}

// Load reads TEMPDASH_* variables over the defaults. A .env file in the
// working directory is loaded first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("config: cannot load .env: %v", err)
	}

	cfg := Default()
	cfg.HistoryURL = getenvDefault("TEMPDASH_HISTORY_URL", cfg.HistoryURL)
	cfg.LiveURL = getenvDefault("TEMPDASH_WS_URL", cfg.LiveURL)
	cfg.LogFile = getenvDefault("TEMPDASH_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getenvDefault("TEMPDASH_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.Capacity, err = getenvInt("TEMPDASH_CAPACITY", cfg.Capacity); err != nil {
		return cfg, err
	}
	if v := os.Getenv("TEMPDASH_LOCALE"); v != "" {
		if cfg.Locale, err = locale.Parse(v); err != nil {
			return cfg, fmt.Errorf("invalid TEMPDASH_LOCALE: %w", err)
		}
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"TEMPDASH_HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"TEMPDASH_RECONNECT_MIN", &cfg.ReconnectMin},
		{"TEMPDASH_RECONNECT_MAX", &cfg.ReconnectMax},
	} {
		if *d.dst, err = getenvDuration(d.key, *d.dst); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
