package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs from the environment.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	NATSURL  string
	HTTPAddr string

	RelayBatchSize int
	RelayInterval  time.Duration
	RelayWorkers   int
	RelayInstances int

	ReservationLockTimeout time.Duration
}

// Load reads the configuration from the environment, preloading a .env file
// when one is present.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "ticketing"),
		NATSURL:    getEnv("NATS_URL", "nats://localhost:4222"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.RelayBatchSize, err = getEnvInt("RELAY_BATCH_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.RelayWorkers, err = getEnvInt("RELAY_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.RelayInstances, err = getEnvInt("RELAY_INSTANCES", 2); err != nil {
		return nil, err
	}
	if cfg.RelayInterval, err = getEnvDuration("RELAY_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReservationLockTimeout, err = getEnvDuration("RESERVATION_LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}
