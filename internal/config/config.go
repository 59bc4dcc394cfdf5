package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Session     SessionConfig
	Backend     BackendConfig
	Search      SearchConfig
	Directions  DirectionsConfig
	Geolocation GeolocationConfig
	Monitoring  MonitoringConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	Host        string
	CORSOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RequestsPerMin       int
	SearchesPerMin       int
	DirectionsPerMin     int
	SessionsPerIPPerHour int
}

type SessionConfig struct {
	TTLMinutes int
}

type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type SearchConfig struct {
	MinQueryLength int
}

type DirectionsConfig struct {
	BaseURL           string
	APIKey            string
	TravelMode        string
	RequestsPerSecond float64
	TimeoutSeconds    int
}

type GeolocationConfig struct {
	// IPLookupURL is used when a directions request carries no browser fix.
	// Empty disables the fallback.
	IPLookupURL    string
	TimeoutSeconds int
}

type MonitoringConfig struct {
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Env:         getEnv("ENV", "development"),
			Host:        getEnv("HOST", "0.0.0.0"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMin:       getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MIN", 120),
			SearchesPerMin:       getEnvAsInt("RATE_LIMIT_SEARCHES_PER_MIN", 30),
			DirectionsPerMin:     getEnvAsInt("RATE_LIMIT_DIRECTIONS_PER_MIN", 10),
			SessionsPerIPPerHour: getEnvAsInt("RATE_LIMIT_SESSIONS_PER_IP_PER_HOUR", 30),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:5000"), "/"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 10),
		},
		Search: SearchConfig{
			MinQueryLength: getEnvAsInt("SEARCH_MIN_QUERY_LENGTH", 3),
		},
		Directions: DirectionsConfig{
			BaseURL:           strings.TrimRight(getEnv("DIRECTIONS_BASE_URL", "https://maps.googleapis.com"), "/"),
			APIKey:            getEnv("GOOGLE_MAPS_API_KEY", ""),
			TravelMode:        getEnv("DIRECTIONS_TRAVEL_MODE", "driving"),
			RequestsPerSecond: getEnvAsFloat("DIRECTIONS_REQUESTS_PER_SECOND", 5),
			TimeoutSeconds:    getEnvAsInt("DIRECTIONS_TIMEOUT_SECONDS", 10),
		},
		Geolocation: GeolocationConfig{
			IPLookupURL:    getEnv("GEOLOCATION_IP_LOOKUP_URL", ""),
			TimeoutSeconds: getEnvAsInt("GEOLOCATION_TIMEOUT_SECONDS", 10),
		},
		Monitoring: MonitoringConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}
	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("SEARCH_MIN_QUERY_LENGTH must be positive")
	}
	if c.Session.TTLMinutes < 1 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	if c.Directions.RequestsPerSecond <= 0 {
		return fmt.Errorf("DIRECTIONS_REQUESTS_PER_SECOND must be positive")
	}
	return nil
}

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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) DirectionsTimeout() time.Duration {
	return time.Duration(c.Directions.TimeoutSeconds) * time.Second
}

func (c *Config) GeolocationTimeout() time.Duration {
	return time.Duration(c.Geolocation.TimeoutSeconds) * time.Second
}
