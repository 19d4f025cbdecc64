// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Scout       ScoutConfig
	Alerting    AlertingConfig
	Auth        AuthConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// ScoutConfig holds collection configuration
type ScoutConfig struct {
	CollectInterval     time.Duration
	CollectOnStart      bool
	EventsTopic         string
	DeezerProfile       string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyMarket       string
}

// AlertingConfig holds growth detection configuration
type AlertingConfig struct {
	GrowthPercentThreshold float64
	ScoreDeltaThreshold    float64
	EventsTopic            string
}

// AuthConfig holds dashboard authentication configuration
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	// AdminUser and AdminPasswordHash (hex SHA-256) gate the dashboard
	// API.
	AdminUser         string
	AdminPasswordHash string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "soundscout"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Scout: ScoutConfig{
			CollectInterval:     getEnvAsDuration("SCOUT_COLLECT_INTERVAL", 24*time.Hour),
			CollectOnStart:      getEnvAsBool("SCOUT_COLLECT_ON_START", false),
			EventsTopic:         getEnv("SCOUT_EVENTS_TOPIC", "scout.snapshots"),
			DeezerProfile:       getEnv("SCOUT_DEEZER_PROFILE", "balanced"),
			SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
			SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
			SpotifyMarket:       getEnv("SPOTIFY_MARKET", "FR"),
		},
		Alerting: AlertingConfig{
			GrowthPercentThreshold: getEnvAsFloat("ALERT_GROWTH_PERCENT", 20.0),
			ScoreDeltaThreshold:    getEnvAsFloat("ALERT_SCORE_DELTA", 10.0),
			EventsTopic:            getEnv("ALERT_EVENTS_TOPIC", "scout.alerts"),
		},
		Auth: AuthConfig{
			TokenSecret:       getEnv("AUTH_TOKEN_SECRET", "your-secret-key"),
			TokenExpiry:       getEnvAsDuration("AUTH_TOKEN_EXPIRY", 24*time.Hour),
			AdminUser:         getEnv("AUTH_ADMIN_USER", "admin"),
			AdminPasswordHash: getEnv("AUTH_ADMIN_PASSWORD_HASH", ""),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Auth.TokenSecret == "your-secret-key" && config.Environment != "development" {
		return fmt.Errorf("token secret must be set in non-development environments")
	}

	if p := config.Scout.DeezerProfile; p != "balanced" && p != "strict" {
		return fmt.Errorf("unknown deezer scoring profile: %s", p)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
