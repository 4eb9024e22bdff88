package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	LogLevel            string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	EventSubjectPrefix  string
	JWTSecret           string
	StatisticsCacheTTL  time.Duration
	// StatisticsCacheKey prefixes the Redis statistics keys.
	StatisticsCacheKey  string
	SubmitRateLimit     int
	SubmitRateWindow    time.Duration
	ShutdownGracePeriod time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSROOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Classroom API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("events.subject_prefix", "classroom")
	v.SetDefault("statistics.cache_ttl", "5m")
	v.SetDefault("statistics.cache_prefix", "classroom")
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")
	v.SetDefault("shutdown.grace_period", "5s")

	ttl, err := parseDuration(v, "statistics.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid statistics cache ttl: %w", err)
	}

	window, err := parseDuration(v, "submit.rate_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	grace, err := parseDuration(v, "shutdown.grace_period", 5*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid shutdown grace period: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		LogLevel:            strings.ToLower(v.GetString("log.level")),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		EventSubjectPrefix:  v.GetString("events.subject_prefix"),
		JWTSecret:           v.GetString("jwt.secret"),
		StatisticsCacheTTL:  ttl,
		StatisticsCacheKey:  strings.Trim(strings.TrimSpace(v.GetString("statistics.cache_prefix")), ":"),
		SubmitRateLimit:     v.GetInt("submit.rate_limit"),
		SubmitRateWindow:    window,
		ShutdownGracePeriod: grace,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return fallback, nil
	}

	return parsed, nil
}
