package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"DB_URL":     "postgres://localhost/parley",
		"JWT_SECRET": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DependencyTimeout)
	assert.Equal(t, 8*time.Second, cfg.TypingTTL)
	assert.Equal(t, 100, cfg.JoinAllLimit)
	assert.Equal(t, 100, cfg.PreviewLength)
	assert.Equal(t, 10, cfg.AsynqConcurrency)
	assert.Equal(t, map[string]int{"notifications": 1, "default": 1}, cfg.AsynqQueues)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AutoMigrate)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"DB_URL":             "postgres://localhost/parley",
		"JWT_SECRET":         "secret",
		"PORT":               "9000",
		"DEPENDENCY_TIMEOUT": "2s",
		"TYPING_TTL":         "0s",
		"JOIN_ALL_LIMIT":     "25",
		"ASYNQ_QUEUES":       "notifications=5,low",
		"AUTO_MIGRATE":       "true",
		"LOG_LEVEL":          "DEBUG",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.DependencyTimeout)
	assert.Equal(t, time.Duration(0), cfg.TypingTTL)
	assert.Equal(t, 25, cfg.JoinAllLimit)
	assert.Equal(t, map[string]int{"notifications": 5, "low": 1}, cfg.AsynqQueues)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromLookup_InvalidValuesFallBack(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"DB_URL":             "postgres://localhost/parley",
		"JWT_SECRET":         "secret",
		"DEPENDENCY_TIMEOUT": "0s",
		"JOIN_ALL_LIMIT":     "-3",
		"PREVIEW_LENGTH":     "abc",
	}))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.DependencyTimeout)
	assert.Equal(t, 100, cfg.JoinAllLimit)
	assert.Equal(t, 100, cfg.PreviewLength)
}

func TestFromLookup_RequiredVariables(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing DB_URL", env: map[string]string{"JWT_SECRET": "secret"}},
		{name: "missing JWT_SECRET", env: map[string]string{"DB_URL": "postgres://localhost/parley"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestParseQueueWeights(t *testing.T) {
	got := ParseQueueWeights(" critical=6, default=3 ,low=x,,=4")
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, got)
}
