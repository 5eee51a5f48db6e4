package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/internal/services/reconcile"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	Notification NotificationConfig
	Classifier   ClassifierConfig
	Routes       reconcile.RouteTable
	Recovery     RecoveryConfig
	Logger       LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	MetricsPort     int
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
}

// RedisConfig holds the client state store configuration. An empty Addr
// selects the in-memory store (development and tests).
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NotificationConfig holds the receipt collaborator configuration
type NotificationConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// ClassifierConfig holds the identifier prefix taxonomy
type ClassifierConfig struct {
	Rules []reconcile.PrefixRule
}

// RecoveryConfig holds client recovery listener configuration
type RecoveryConfig struct {
	StateTTL time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "callback")
	viper.SetDefault("NOTIFY_TIMEOUT", "10s")
	viper.SetDefault("RECOVERY_STATE_TTL", "30m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DEVELOPMENT", false)

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetInt("APP_PORT"),
			MetricsPort:     viper.GetInt("METRICS_PORT"),
			ShutdownTimeout: durationOr("SHUTDOWN_TIMEOUT", 30*time.Second),
			RateLimitRPS:    viper.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:  viper.GetInt("RATE_LIMIT_BURST"),
		},
		Redis: RedisConfig{
			Addr:      viper.GetString("REDIS_ADDR"),
			Password:  viper.GetString("REDIS_PASS"),
			DB:        viper.GetInt("REDIS_DB"),
			KeyPrefix: viper.GetString("REDIS_KEY_PREFIX"),
		},
		Notification: NotificationConfig{
			URL:     viper.GetString("NOTIFY_URL"),
			Secret:  viper.GetString("NOTIFY_SECRET"),
			Timeout: durationOr("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Classifier: ClassifierConfig{
			Rules: parsePrefixRules(viper.GetString("CLASSIFIER_PREFIXES")),
		},
		Routes:   parseRouteTable(),
		Recovery: RecoveryConfig{
			StateTTL: durationOr("RECOVERY_STATE_TTL", 30*time.Minute),
		},
		Logger: LoggerConfig{
			Level:       viper.GetString("LOG_LEVEL"),
			Development: viper.GetBool("LOG_DEVELOPMENT"),
		},
	}

	if cfg.Notification.URL != "" && cfg.Notification.Secret == "" {
		return nil, fmt.Errorf("NOTIFY_SECRET is required when NOTIFY_URL is set")
	}

	return cfg, nil
}

// parsePrefixRules parses "CB-:subscription,MC-:membership_card,..." into
// an ordered rule set. Empty input keeps the shipped defaults.
func parsePrefixRules(raw string) []reconcile.PrefixRule {
	if raw == "" {
		return reconcile.DefaultPrefixRules()
	}

	var rules []reconcile.PrefixRule
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		rules = append(rules, reconcile.PrefixRule{
			Prefix:         parts[0],
			Classification: domain.Classification(parts[1]),
		})
	}
	if len(rules) == 0 {
		return reconcile.DefaultPrefixRules()
	}
	return rules
}

// parseRouteTable builds the destination template table, overriding
// shipped defaults with ROUTE_<CLASSIFICATION>_{SUCCESS,FAILURE} variables.
func parseRouteTable() reconcile.RouteTable {
	table := reconcile.DefaultRouteTable()

	for classification, pair := range table {
		envName := strings.ToUpper(string(classification))
		if v := viper.GetString("ROUTE_" + envName + "_SUCCESS"); v != "" {
			pair.Success = v
		}
		if v := viper.GetString("ROUTE_" + envName + "_FAILURE"); v != "" {
			pair.Failure = v
		}
		table[classification] = pair
	}

	return table
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
