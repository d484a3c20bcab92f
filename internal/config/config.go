package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all runtime settings for the API server.
type Config struct {
	Port         string
	MongoURI     string
	MongoDB      string
	JWTSecret    string
	JWTExpiry    time.Duration
	MQTTBroker   string
	MQTTClientID string
	RedisAddr    string
	RedisTTL     time.Duration
	CORSOrigins  []string
	LogFormat    string
}

// Load reads configuration from the environment, probing for a .env file
// in the working directory and its parents first.
func Load() *Config {
	loadDotenv()

	return &Config{
		Port:         envOr("PORT", "5000"),
		MongoURI:     envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      envOr("MONGO_DB", "fixmyride"),
		JWTSecret:    envOr("JWT_SECRET", "default-secret-key-change-in-production"),
		JWTExpiry:    durationOr("JWT_EXPIRY", 24*time.Hour),
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTClientID: envOr("MQTT_CLIENT_ID", "fixmyride-api"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisTTL:     durationOr("REDIS_TTL", time.Minute),
		CORSOrigins:  splitOr("CORS_ORIGINS", []string{"*"}),
		LogFormat:    envOr("LOG_FORMAT", "text"),
	}
}

// SetupLogger configures logrus according to LOG_FORMAT.
func (c *Config) SetupLogger() {
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if lvl, err := log.ParseLevel(envOr("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}
}

func loadDotenv() {
	for _, p := range []string{".env", filepath.Join("..", ".env"), filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Overload(p)
			log.WithField("path", p).Debug("Loaded env file")
			return
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func splitOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
