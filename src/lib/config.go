package lib

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds every setting the server reads from the environment
type Config struct {
	Port           string
	StoreDriver    string
	MongoURL       string
	MongoDB        string
	DBPath         string
	DBTimeout      time.Duration
	UploadsDir     string
	FrontendURL    string
	GoogleClientID string
	LogLevel       string
	LogFormat      string
}

// LoadConfig reads an optional .env file and then the process environment.
// Missing values fall back to development defaults.
func LoadConfig() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "3000"),
		StoreDriver:    getEnv("STORE_DRIVER", DriverMongo),
		MongoURL:       getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "proconnect"),
		DBPath:         getEnv("DB_PATH", "./proconnect.db"),
		UploadsDir:     getEnv("UPLOADS_DIR", "./uploads"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}

	timeout, err := time.ParseDuration(getEnv("DB_TIMEOUT", "10s"))
	if err != nil {
		return cfg, fmt.Errorf("invalid DB_TIMEOUT: %w", err)
	}
	cfg.DBTimeout = timeout

	switch cfg.StoreDriver {
	case DriverMongo, DriverSQLite:
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q (expected %q or %q)", cfg.StoreDriver, DriverMongo, DriverSQLite)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
