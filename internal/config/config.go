package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting of the messaging server.
// Values come from the process environment (optionally seeded from .env).
type Config struct {
	Port string

	DatabaseURL string
	AutoMigrate bool
	RedisURL    string

	JWTSecret string
	JWTIssuer string

	// DependencyTimeout bounds every identity verification and store call.
	DependencyTimeout time.Duration
	// TypingTTL auto-stops a typing state without refresh; zero disables expiry.
	TypingTTL     time.Duration
	JoinAllLimit  int
	PreviewLength int

	ParticipantCacheTTL time.Duration

	AsynqConcurrency int
	AsynqQueues      map[string]int

	LogLevel  string
	LogFormat string
}

const (
	defaultPort                = "8080"
	defaultDependencyTimeout   = 5 * time.Second
	defaultTypingTTL           = 8 * time.Second
	defaultJoinAllLimit        = 100
	defaultPreviewLength       = 100
	defaultParticipantCacheTTL = 10 * time.Minute
	defaultAsynqConcurrency    = 10
)

// Load reads Config from the environment.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config using lookup as the variable source.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		Port:                stringOr(get("PORT"), defaultPort),
		DatabaseURL:         get("DB_URL"),
		AutoMigrate:         boolOr(get("AUTO_MIGRATE"), false),
		RedisURL:            get("REDIS_URL"),
		JWTSecret:           get("JWT_SECRET"),
		JWTIssuer:           get("JWT_ISSUER"),
		DependencyTimeout:   durationOr(get("DEPENDENCY_TIMEOUT"), defaultDependencyTimeout, false),
		TypingTTL:           durationOr(get("TYPING_TTL"), defaultTypingTTL, true),
		JoinAllLimit:        intOr(get("JOIN_ALL_LIMIT"), defaultJoinAllLimit),
		PreviewLength:       intOr(get("PREVIEW_LENGTH"), defaultPreviewLength),
		ParticipantCacheTTL: durationOr(get("PARTICIPANT_CACHE_TTL"), defaultParticipantCacheTTL, true),
		AsynqConcurrency:    intOr(get("ASYNQ_CONCURRENCY"), defaultAsynqConcurrency),
		AsynqQueues:         map[string]int{"notifications": 1, "default": 1},
		LogLevel:            stringOr(strings.ToLower(get("LOG_LEVEL")), "info"),
		LogFormat:           stringOr(strings.ToLower(get("LOG_FORMAT")), "json"),
	}
	if v := get("ASYNQ_QUEUES"); v != "" {
		if parsed := ParseQueueWeights(v); len(parsed) > 0 {
			cfg.AsynqQueues = parsed
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("config: DB_URL environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET environment variable is not set")
	}
	return cfg, nil
}

// ParseQueueWeights parses strings like "critical=6,default=3,low=1" into a map.
// Entries without a weight default to 1.
func ParseQueueWeights(s string) map[string]int {
	res := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		w := 1
		if len(kv) == 2 {
			if i, err := strconv.Atoi(strings.TrimSpace(kv[1])); err == nil && i > 0 {
				w = i
			}
		}
		res[name] = w
	}
	return res
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) int {
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}

func boolOr(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// durationOr parses v as a time.Duration. Zero is accepted only when allowZero is set.
func durationOr(v string, def time.Duration, allowZero bool) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return def
	}
	return d
}
