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
	AppName          string
	AppEnv           string
	AppPort          string
	DefaultLocale    string
	DatabaseURL      string
	RowLevelSecurity bool
	RedisURL         string
	NATSURL          string
	RealtimeChannel  string
	JWTSecret        string
	IdentityCacheTTL time.Duration
	ForumRateLimit   int
	ForumRateWindow  time.Duration
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
	v.SetEnvPrefix("MADRASA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Madrasa API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.locale", "ar")
	v.SetDefault("database.row_level_security", false)
	v.SetDefault("realtime.channel", "madrasa")
	v.SetDefault("identity.cache_ttl", "2m")
	v.SetDefault("forum.rate_limit", 30)
	v.SetDefault("forum.rate_window", "1m")

	cacheTTL, err := parseDuration(v.GetString("identity.cache_ttl"), "2m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid identity cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("forum.rate_window"), "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid forum rate window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DefaultLocale:    strings.ToLower(v.GetString("app.locale")),
		DatabaseURL:      v.GetString("database.url"),
		RowLevelSecurity: v.GetBool("database.row_level_security"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		RealtimeChannel:  v.GetString("realtime.channel"),
		JWTSecret:        v.GetString("jwt.secret"),
		IdentityCacheTTL: cacheTTL,
		ForumRateLimit:   v.GetInt("forum.rate_limit"),
		ForumRateWindow:  rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ForumRateLimit <= 0 {
		cfg.ForumRateLimit = 30
	}

	return cfg, nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
