package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays values from the process environment. A dotenv file is
// loaded first: the one named by -env, or ./.env when present. godotenv never
// overrides variables that are already set.
func parseEnv(config *Config, args []string) {
	if path := flagx.EnvFilePath(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	config.EndpointAddrHTTP = getEnv("HTTP_ADDR", config.EndpointAddrHTTP)
	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.SessionSecret = getEnv("SESSION_SECRET", config.SessionSecret)
	config.ClubPasscode = getEnv("CLUB_PASSCODE", config.ClubPasscode)
	config.AdminPasscode = getEnv("ADMIN_PASSCODE", config.AdminPasscode)
	config.SessionValidityDuration = getDurationEnv("SESSION_TTL", config.SessionValidityDuration)
	config.CookieSecure = getBoolEnv("COOKIE_SECURE", config.CookieSecure)
	config.LoginRateLimit = getIntEnv("LOGIN_RATE_LIMIT", config.LoginRateLimit)
	config.TrustedProxies = getListEnv("TRUSTED_PROXIES", config.TrustedProxies)
}

// getListEnv splits a comma-separated variable, dropping blank items.
func getListEnv(key string, fallback []string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}
