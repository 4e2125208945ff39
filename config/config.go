package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func LoadEnv() error {
	// .env is optional; deployed environments set variables directly
	if err := godotenv.Load(); err != nil {
		return nil
	}
	return nil
}

// ValidateEnv checks the variables the storefront cart service needs.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	if os.Getenv("CART_API_URL") == "" {
		missing = append(missing, "CART_API_URL")
	}

	switch GetEnv("STORAGE_DRIVER", "memory") {
	case "database":
		if os.Getenv("DATABASE_URL") == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "redis":
		if os.Getenv("REDIS_URL") == "" {
			missing = append(missing, "REDIS_URL")
		}
	case "memory":
		log.Println("WARNING: STORAGE_DRIVER is memory - guest carts are lost on restart")
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (expected memory, database or redis)", os.Getenv("STORAGE_DRIVER"))
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	if os.Getenv("FRONTEND_URL") == "" {
		log.Println("WARNING: FRONTEND_URL not set - CORS may not work correctly")
	}

	return nil
}

// ValidateAPIEnv checks the variables the reference Cart API needs.
func ValidateAPIEnv() error {
	var missing []string

	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	if os.Getenv("DATABASE_URL") == "" {
		log.Println("WARNING: DATABASE_URL not set - using local sqlite file")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns defaultValue when key is unset or not an integer.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// GetEnvDuration parses values like "10s" or "72h".
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
