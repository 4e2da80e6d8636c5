package config

import (
	"os"
	"strconv"
	"strings"

	"bakerypos/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	GinMode   string
	JWTSecret string
	DB        DBConfig
	Redis     RedisConfig
	Storage   StorageConfig
	CORS      []string
	LoginRate string
	Deduction DeductionConfig
	LogLevel  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type StorageConfig struct {
	Bucket          string
	CredentialsJSON string
}

type DeductionConfig struct {
	Workers    int
	MaxRetries int
	QueueSize  int
}

// Load reads configs/.env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Get().Info("no configs/.env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	workers, _ := strconv.Atoi(getEnv("DEDUCTION_WORKERS", "2"))
	retries, _ := strconv.Atoi(getEnv("DEDUCTION_MAX_RETRIES", "3"))
	queueSize, _ := strconv.Atoi(getEnv("DEDUCTION_QUEUE_SIZE", "256"))

	return Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "bakery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("GCS_BUCKET"),
			CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		},
		CORS:      splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		LoginRate: getEnv("LOGIN_RATE", "10-M"),
		Deduction: DeductionConfig{
			Workers:    workers,
			MaxRetries: retries,
			QueueSize:  queueSize,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
