package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-ladder/storage"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// SMTPConfig — параметры почтового сервера. Пустой Host отключает отправку писем.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	StoreDriver  string
	// BracketSeed фиксирует перемешивание предварительных раундов; nil — сид от текущего времени.
	BracketSeed        *int64
	OTPTTL             time.Duration
	RedisURL           string
	CORSAllowedOrigins []string
	SMTP               SMTPConfig
	R2                 storage.CloudflareR2UploaderConfig
	Admin              AdminConfig
}

// AdminConfig описывает администратора, создаваемого при старте. Пустой Email — не создавать.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	storeDriver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres))
	if storeDriver != StoreDriverPostgres && storeDriver != StoreDriverMemory {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, storeDriver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" && storeDriver == StoreDriverPostgres {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var seed *int64
	if raw := os.Getenv("BRACKET_SEED"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid BRACKET_SEED environment variable: %w", err)
		}
		seed = &v
	}

	otpTTL, err := time.ParseDuration(getEnv("OTP_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTP_TTL environment variable: %w", err)
	}
	if otpTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL must be positive, got %s", otpTTL)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
	}

	r2 := storage.CloudflareR2UploaderConfig{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	if !r2.Enabled() && (r2.AccountID != "" || r2.AccessKeyID != "" || r2.SecretAccessKey != "" || r2.BucketName != "" || r2.PublicBaseURL != "") {
		return nil, fmt.Errorf("R2 configuration is partial: set all R2_* variables or none")
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		StoreDriver:        storeDriver,
		BracketSeed:        seed,
		OTPTTL:             otpTTL,
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: smtpPort,
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: os.Getenv("SMTP_FROM"),
		},
		R2: r2,
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "admin"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
