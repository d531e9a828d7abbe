package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr         string
	DataDir          string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	SessionTTL       time.Duration
	SessionCookie    string
	CookieSecure     bool
	LoginWindow      time.Duration
	LoginMaxAttempts int
	BcryptCost       int
}

func Load() Config {
	return Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":3000"),
		DataDir:          getenv("DATA_DIR", "./data"),
		DatabaseURL:      getenv("DATABASE_URL", ""),
		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		SessionTTL:       getenvDuration("SESSION_TTL", 15*time.Minute),
		SessionCookie:    getenv("SESSION_COOKIE", "uniproj_session"),
		CookieSecure:     getenvBool("COOKIE_SECURE", true),
		LoginWindow:      getenvDuration("LOGIN_WINDOW", 15*time.Minute),
		LoginMaxAttempts: getenvInt("LOGIN_MAX_ATTEMPTS", 5),
		BcryptCost:       getenvInt("BCRYPT_COST", 10),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
