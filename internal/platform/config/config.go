// Package config loads runtime configuration from the environment (and an
// optional .env in development) so main stays lean. Every knob has a default
// suitable for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"kindred/internal/matching"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr string

	// PostgresDSN enables durable ledger and audit stores; empty means
	// in-memory (dev mode).
	PostgresDSN string
	// RedisURL enables the redis profile directory; empty means in-memory.
	RedisURL string
	// KafkaBrokers enables the audit event sink; empty means store-only.
	KafkaBrokers []string
	AuditTopic   string

	// Cooldown is the protocol-wide withdrawal cooldown.
	Cooldown time.Duration
	// RequireActiveStake gates match listings on an active commitment.
	RequireActiveStake bool
	// TreasuryAddress is the default slash destination when the safety
	// collaborator does not name one.
	TreasuryAddress string

	JWTSigningKey string

	LogLevel  string
	LogFormat string

	// Weights are the default match weights; callers may override per
	// request within the validated bounds.
	Weights matching.WeightConfig
}

// Load reads configuration. A .env file is honored when present; real
// environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("kindred.addr", ":8080")
	v.SetDefault("kindred.postgres_dsn", "")
	v.SetDefault("kindred.redis_url", "")
	v.SetDefault("kindred.kafka_brokers", "")
	v.SetDefault("kindred.audit_topic", "kindred.ledger.events")
	v.SetDefault("kindred.cooldown", "168h")
	v.SetDefault("kindred.require_active_stake", true)
	v.SetDefault("kindred.treasury_address", "treasury")
	v.SetDefault("kindred.jwt_signing_key", "dev-secret-change-in-production")
	v.SetDefault("kindred.log_level", "info")
	v.SetDefault("kindred.log_format", "json")
	v.SetDefault("kindred.age_weight", 0.3)
	v.SetDefault("kindred.distance_weight", 0.3)
	v.SetDefault("kindred.interest_weight", 0.4)
	v.SetDefault("kindred.max_age_difference", 10.0)
	v.SetDefault("kindred.max_distance_km", 50.0)

	cooldown, err := time.ParseDuration(v.GetString("kindred.cooldown"))
	if err != nil {
		return Config{}, fmt.Errorf("parse cooldown: %w", err)
	}
	if cooldown <= 0 {
		return Config{}, fmt.Errorf("cooldown must be positive, got %s", cooldown)
	}

	weights, err := matching.NewWeightConfig(
		v.GetFloat64("kindred.age_weight"),
		v.GetFloat64("kindred.distance_weight"),
		v.GetFloat64("kindred.interest_weight"),
		v.GetFloat64("kindred.max_age_difference"),
		v.GetFloat64("kindred.max_distance_km"),
	)
	if err != nil {
		return Config{}, fmt.Errorf("default weights: %w", err)
	}

	var brokers []string
	if raw := v.GetString("kindred.kafka_brokers"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:               v.GetString("kindred.addr"),
		PostgresDSN:        v.GetString("kindred.postgres_dsn"),
		RedisURL:           v.GetString("kindred.redis_url"),
		KafkaBrokers:       brokers,
		AuditTopic:         v.GetString("kindred.audit_topic"),
		Cooldown:           cooldown,
		RequireActiveStake: v.GetBool("kindred.require_active_stake"),
		TreasuryAddress:    v.GetString("kindred.treasury_address"),
		JWTSigningKey:      v.GetString("kindred.jwt_signing_key"),
		LogLevel:           v.GetString("kindred.log_level"),
		LogFormat:          v.GetString("kindred.log_format"),
		Weights:            weights,
	}, nil
}
