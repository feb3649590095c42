package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins []string

	// Realtime fan-out between instances. Empty disables the relay.
	NatsURL string

	// Requests per minute allowed on the connection request endpoint
	ConnectRateLimit int
	ConnectRateBurst int

	NotificationRetention time.Duration
	CleanupInterval       time.Duration

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))

	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseDriver: getEnv("DB_DRIVER", "mysql"),
		DatabaseURL:    getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/grownet?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		NatsURL: getEnv("NATS_URL", ""),

		ConnectRateLimit: getEnvInt("CONNECT_RATE_LIMIT", 30),
		ConnectRateBurst: getEnvInt("CONNECT_RATE_BURST", 5),

		NotificationRetention: getEnvDuration("NOTIFICATION_RETENTION", 30*24*time.Hour),
		CleanupInterval:       getEnvDuration("CLEANUP_INTERVAL", time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@grownet.app"),
		FromName:     getEnv("FROM_NAME", "GrowNet"),
	}
}

// MailEnabled reports whether an SMTP host was configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
