package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Classifier Config
	ClassifierURL     string        `env:"CLASSIFIER_URL"`
	ClassifierAPIKey  string        `env:"CLASSIFIER_API_KEY"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"30s"`

	// Geocoder Config
	GeocoderURL     string        `env:"GEOCODER_URL"`
	GeocoderTimeout time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`

	// Mailer Config
	MailerURL        string        `env:"MAILER_URL"`
	MailerSecret     string        `env:"MAILER_SECRET"`
	MailerTimeout    time.Duration `env:"MAILER_TIMEOUT" envDefault:"5s"`
	MailerMaxRetries int           `env:"MAILER_MAX_RETRIES" envDefault:"3"`
	MailerBaseDelay  time.Duration `env:"MAILER_BASE_DELAY" envDefault:"1s"`

	// Event Bus Config
	EventBusPartitions int `env:"EVENT_BUS_PARTITIONS" envDefault:"8"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		ClassifierURL:      os.Getenv("CLASSIFIER_URL"),
		ClassifierAPIKey:   os.Getenv("CLASSIFIER_API_KEY"),
		ClassifierTimeout:  getEnvAsDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
		GeocoderURL:        os.Getenv("GEOCODER_URL"),
		GeocoderTimeout:    getEnvAsDuration("GEOCODER_TIMEOUT", 10*time.Second),
		MailerURL:          os.Getenv("MAILER_URL"),
		MailerSecret:       os.Getenv("MAILER_SECRET"),
		MailerTimeout:      getEnvAsDuration("MAILER_TIMEOUT", 5*time.Second),
		MailerMaxRetries:   getEnvAsInt("MAILER_MAX_RETRIES", 3),
		MailerBaseDelay:    getEnvAsDuration("MAILER_BASE_DELAY", time.Second),
		EventBusPartitions: getEnvAsInt("EVENT_BUS_PARTITIONS", 8),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
