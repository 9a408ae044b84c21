package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все параметры запуска приложения.
type Config struct {
	Env      string
	LogLevel string

	// Клиентская часть (mini app).
	APIBaseURL  string
	HTTPTimeout time.Duration
	CacheTTL    time.Duration

	// Платёжный поллер.
	PaymentPollInterval time.Duration
	PaymentMaxWait      time.Duration

	// Dev-сервер (мок бэкенда).
	HTTPPort        string
	JWTSecret       string
	TokenTTL        time.Duration
	AllowedOrigins  []string
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
	ClaimPrice      float64
}

// Load читает переменные окружения и возвращает готовую конфигурацию.
func Load() (*Config, error) {
	// Загружаем .env только если он существует, иначе используем системные переменные.
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("config: .env не найден, используем переменные окружения: %v", err)
	}

	env := getEnv("APP_ENV", "development")

	logLevel := getEnv("LOG_LEVEL", "")
	if logLevel == "" {
		if env == "development" {
			logLevel = "debug"
		} else {
			logLevel = "info"
		}
	}

	cfg := &Config{
		Env:                 env,
		LogLevel:            logLevel,
		APIBaseURL:          getEnv("API_BASE_URL", "http://localhost:8080"),
		HTTPTimeout:         mustParseDuration(getEnv("HTTP_TIMEOUT", "15s")),
		CacheTTL:            mustParseDuration(getEnv("CACHE_TTL", "30s")),
		PaymentPollInterval: mustParseDuration(getEnv("PAYMENT_POLL_INTERVAL", "3s")),
		PaymentMaxWait:      mustParseDuration(getEnv("PAYMENT_MAX_WAIT", "30m")),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		TokenTTL:            mustParseDuration(getEnv("TOKEN_TTL", "24h")),
		RateLimitLimit:      mustParseInt64(getEnv("RATE_LIMIT_LIMIT", "60")),
		RateLimitPeriod:     mustParseDuration(getEnv("RATE_LIMIT_PERIOD", "1m")),
		ClaimPrice:          mustParseFloat64(getEnv("CLAIM_PRICE", "50")),
	}

	// Валидация JWT секрета (нужен только dev-серверу).
	jwtSecret := getEnv("JWT_SECRET", "")
	if env == "production" {
		if jwtSecret == "" || len(jwtSecret) < 32 {
			return nil, fmt.Errorf("config: JWT_SECRET обязателен и должен быть не менее 32 символов в production")
		}
	} else if jwtSecret == "" {
		jwtSecret = "dev-secret-miniapp-change-in-production"
		log.Printf("config: WARNING - используется дефолтный JWT_SECRET, измените в production!")
	}
	cfg.JWTSecret = jwtSecret

	// CORS allowed origins
	originsStr := getEnv("CORS_ALLOWED_ORIGINS", "")
	if originsStr == "" {
		if env == "production" {
			return nil, fmt.Errorf("config: CORS_ALLOWED_ORIGINS обязателен в production")
		}
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	} else {
		cfg.AllowedOrigins = strings.Split(originsStr, ",")
		for i, origin := range cfg.AllowedOrigins {
			cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или дефолт.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// mustParseDuration безопасно парсит строку в duration.
func mustParseDuration(v string) time.Duration {
	dur, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: не удалось распарсить длительность %q: %v", v, err)
	}
	return dur
}

// mustParseInt64 безопасно парсит строку в int64.
func mustParseInt64(v string) int64 {
	num, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("config: не удалось распарсить число %q: %v", v, err)
	}
	return num
}

// mustParseFloat64 безопасно парсит строку в float64.
func mustParseFloat64(v string) float64 {
	num, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("config: не удалось распарсить число %q: %v", v, err)
	}
	return num
}
