package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures server level configuration sourced from the environment.
type Config struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	// PostgresURL enables the Postgres-backed stores when set. Empty means
	// in-memory stores, which is the default for development and tests.
	PostgresURL string

	// RedisURL enables the shared presence store when set.
	RedisURL string

	// KafkaBrokers enables the audit event stream when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// SendBuffer is the per-connection outbound queue length. A connection
	// that falls this far behind is closed rather than stalling its groups.
	SendBuffer int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CIRCLES_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tokenTTL = d
		}
	}

	sendBuffer := 256
	if raw := os.Getenv("WS_SEND_BUFFER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			sendBuffer = n
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "circles.audit.events"
	}

	return Config{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    auditTopic,
		SendBuffer:    sendBuffer,
	}
}
