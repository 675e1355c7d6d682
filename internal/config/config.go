package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const DefaultJWTSecret = "change-me"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

type Config struct {
	DBHost          string
	DBPort          string
	DBUser          string
	DBPass          string
	DBName          string
	ServerPort      string
	RedisURL        string
	Env             string
	RedisTTL        time.Duration
	JWTSecret       string
	TokenTTL        time.Duration
	FrontendURL     string
	ThreadsPageSize int
}

func LoadConfig() Config {
	return Config{
		DBHost:          getEnv("DB_HOST", "postgres"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPass:          getEnv("DB_PASSWORD", "password"),
		DBName:          getEnv("DB_NAME", "threadbox"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		RedisURL:        getEnv("REDIS_URL", "redis:6379"),
		Env:             getEnv("ENV", "dev"),
		RedisTTL:        getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:        getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		ThreadsPageSize: getEnvAsInt("THREADS_PAGE_SIZE", 15),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
