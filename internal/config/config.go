package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once in main and passed down; nothing reads the
// environment after startup.
type Config struct {
	HTTP_PORT       string
	LOG_LEVEL       string
	DB_HOST         string
	DB_PORT         string
	DB_USER         string
	DB_PASSWORD     string
	DB_NAME         string
	ES_URL          string
	ES_USER         string
	ES_PASSWORD     string
	ES_INDEX        string
	KAFKA_ADDRESS   string
	JWT_SECRET      string
	REFRESH_SECRET  string
	ADMIN_EMAIL     string
	CORS_ORIGINS    []string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_PORT:       getenvDefault("HTTP_PORT", "8080"),
		LOG_LEVEL:       getenvDefault("LOG_LEVEL", "info"),
		DB_HOST:         os.Getenv("DB_HOST"),
		DB_PORT:         getenvDefault("DB_PORT", "5432"),
		DB_USER:         os.Getenv("DB_USER"),
		DB_PASSWORD:     os.Getenv("DB_PASSWORD"),
		DB_NAME:         os.Getenv("DB_NAME"),
		ES_URL:          os.Getenv("ES_URL"),
		ES_USER:         os.Getenv("ES_USER"),
		ES_PASSWORD:     os.Getenv("ES_PASSWORD"),
		ES_INDEX:        getenvDefault("ES_INDEX", "products"),
		KAFKA_ADDRESS:   os.Getenv("KAFKA_ADDRESS"),
		JWT_SECRET:      os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:  os.Getenv("REFRESH_SECRET"),
		ADMIN_EMAIL:     os.Getenv("ADMIN_EMAIL"),
		CORS_ORIGINS:    splitList(os.Getenv("CORS_ORIGINS")),
		AccessTokenTTL:  time.Duration(getenvInt("ACCESS_TOKEN_LIFETIME_MIN", 60)) * time.Minute,
		RefreshTokenTTL: time.Duration(getenvInt("REFRESH_TOKEN_LIFETIME_DAYS", 1)) * 24 * time.Hour,
	}

	return config, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
