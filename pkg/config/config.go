package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

func New() Config {
	return Config{
		Port:        getEnvAsInt("PORT", 8080),
		BasePath:    getEnv("BASE_PATH", "/api"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MongoDB: mongodb{
			URI:      requireEnv("MONGODB_URI"),
			Database: getEnv("MONGODB_DATABASE", "gatherly"),
		},
		Authentication: authentication{
			AccessTokenSecret:             requireEnv("ACCESS_TOKEN_SECRET"),
			AccessTokenExpirationSeconds:  getEnvAsInt("ACCESS_TOKEN_EXPIRATION_IN_SECONDS", 7*24*60*60),
			RefreshTokenSecret:            requireEnv("REFRESH_TOKEN_SECRET"),
			RefreshTokenExpirationSeconds: getEnvAsInt("REFRESH_TOKEN_EXPIRATION_IN_SECONDS", 30*24*60*60),
		},
		Redis: redis{
			Host: requireEnv("REDIS_HOST"),
			Port: requireEnvAsInt("REDIS_PORT"),
		},
		MinIO: minio{
			Endpoint:  requireEnv("MINIO_ENDPOINT"),
			AccessKey: requireEnv("MINIO_ACCESS_KEY"),
			SecretKey: requireEnv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "uploads"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),
		RabbitMq: rabbitmq{
			Host:     getEnv("RABBITMQ_HOST", ""),
			Port:     getEnvAsInt("RABBITMQ_PORT", 5672),
			Username: getEnv("RABBITMQ_USERNAME", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "gatherly.activity"),
		},
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
}

type Config struct {
	Port           int
	BasePath       string
	Environment    string
	LogLevel       string
	MongoDB        mongodb
	Authentication authentication
	Redis          redis
	MinIO          minio
	UploadMaxBytes int64
	RabbitMq       rabbitmq
	AllowedOrigins []string
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Level returns the slog level named by LOG_LEVEL, info if it can't be parsed.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type mongodb struct {
	URI      string
	Database string
}

type authentication struct {
	AccessTokenSecret             string
	AccessTokenExpirationSeconds  int
	RefreshTokenSecret            string
	RefreshTokenExpirationSeconds int
}

func (a authentication) AccessTokenExpiration() time.Duration {
	return time.Duration(a.AccessTokenExpirationSeconds) * time.Second
}

func (a authentication) RefreshTokenExpiration() time.Duration {
	return time.Duration(a.RefreshTokenExpirationSeconds) * time.Second
}

type redis struct {
	Host string
	Port int
}

func (r redis) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// ObjectURL returns the URL an uploaded object is served from.
func (m minio) ObjectURL(key string) string {
	base := m.PublicURL
	if base == "" {
		scheme := "http"
		if m.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, m.Endpoint, m.Bucket)
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

type rabbitmq struct {
	Host     string
	Port     int
	Username string
	Password string
	Exchange string
}

// Enabled is false when no broker is configured, in which case activity isn't published.
func (r rabbitmq) Enabled() bool {
	return r.Host != ""
}

func (r rabbitmq) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func requireEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("Can't find environment variable: %s\n", key)
	}
	return value
}

func requireEnvAsInt(key string) int {
	valueStr := requireEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse value as integer: %s", err.Error())
	}
	return value
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse value of %s as integer: %s", key, err.Error())
	}
	return value
}
