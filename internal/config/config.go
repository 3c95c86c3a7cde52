package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the API and the scan worker.
type Config struct {
	Env      string
	Port     string
	GinMode  string
	LogLevel string

	DB       DBConfig
	Mongo    MongoConfig
	RabbitMQ RabbitMQConfig
	Temporal TemporalConfig

	JWTSecret      []byte
	CORSOrigins    []string
	PublicBaseURL  string
	ValidatePolicy bool
	NotifyTimeout  time.Duration
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN builds the postgres connection URL.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

type MongoConfig struct {
	URI      string
	Database string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type TemporalConfig struct {
	Host      string
	Namespace string
}

// Enabled reports whether a Temporal frontend was configured.
func (c TemporalConfig) Enabled() bool { return c.Host != "" }

const devJWTSecret = "default_super_secret_key"

// Load reads configs/.env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load configs/.env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "backoffice")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "backoffice.notifications")

	v.SetDefault("TEMPORAL_HOST", "")
	v.SetDefault("TEMPORAL_NAMESPACE", "default")

	v.SetDefault("VALIDATE_POLICY", true)
	v.SetDefault("NOTIFY_TIMEOUT", 10*time.Second)

	v.AutomaticEnv()
	return v
}

// FromViper maps a populated viper instance onto Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      strings.ToLower(v.GetString("APP_ENV")),
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),
		DB: DBConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Temporal: TemporalConfig{
			Host:      v.GetString("TEMPORAL_HOST"),
			Namespace: v.GetString("TEMPORAL_NAMESPACE"),
		},
		PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		ValidatePolicy: v.GetBool("VALIDATE_POLICY"),
		NotifyTimeout:  v.GetDuration("NOTIFY_TIMEOUT"),
	}

	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("config: JWT_SECRET is required in release mode")
		}
		secret = devJWTSecret // development fallback only
	}
	cfg.JWTSecret = []byte(secret)

	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}

	return cfg, nil
}
