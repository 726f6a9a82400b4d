package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV marks a deployed environment.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET               string
	JWT_ISSUER               string
	ACCESS_TOKEN_TTL_MINUTES int
	REFRESH_TOKEN_TTL_DAYS   int
	// Redis Configuration
	REDIS_URL string
	// Rate limiting
	RATE_LIMIT_REQUESTS       int
	RATE_LIMIT_WINDOW_SECONDS int
	// Misc
	ALLOWED_ORIGINS string
	CRON_ENABLED    bool
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET:               os.Getenv("JWT_SECRET"),
		JWT_ISSUER:               os.Getenv("JWT_ISSUER"),
		ACCESS_TOKEN_TTL_MINUTES: intEnv("ACCESS_TOKEN_TTL_MINUTES", 15),
		REFRESH_TOKEN_TTL_DAYS:   intEnv("REFRESH_TOKEN_TTL_DAYS", 7),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Rate limiting
		RATE_LIMIT_REQUESTS:       intEnv("RATE_LIMIT_REQUESTS", 100),
		RATE_LIMIT_WINDOW_SECONDS: intEnv("RATE_LIMIT_WINDOW_SECONDS", 60),
		// Misc
		ALLOWED_ORIGINS: os.Getenv("ALLOWED_ORIGINS"),
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false",
	}

	return envVariables, nil
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
