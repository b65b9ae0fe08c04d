package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL    PostgreSQLConfig
	Redis         RedisConfig
	Server        ServerConfig
	AI            AIConfig
	Geocoder      GeocoderConfig
	Retrieval     RetrievalConfig
	Router        RouterConfig
	Accommodation AccommodationConfig
	Logging       LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred over the discrete fields
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds the geocode cache connection
type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	GeocodeTTL time.Duration
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	Environment    string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// AIConfig holds completion and embedding provider configuration
type AIConfig struct {
	Provider            string // "openai" (built-in HTTP client) or "langchain"
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatTopP            float64
	ChatMaxTokens       int
	ChatExtraBody       string // JSON string for extra_body (e.g., {"chat_template_kwargs":{"thinking":true}})
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingExtraBody  string
	BatchSize           int
	Timeout             int
	Deployments         []string // chat models a request may select; empty allows any
	Enabled             bool
}

// GeocoderConfig holds the Nominatim client settings
type GeocoderConfig struct {
	BaseURL     string
	UserAgent   string
	Timeout     int
	ResultLimit int
}

// RetrievalConfig holds retrieval engine settings
type RetrievalConfig struct {
	TopK               int
	EmbeddingDimension int
	FilterByCountry    bool
	DefaultTripDays    int
}

// RouterConfig holds specialist router settings
type RouterConfig struct {
	PoolSize          int
	DefaultDeployment string
}

// AccommodationConfig holds accommodation search defaults
type AccommodationConfig struct {
	DefaultRadiusKm float64
	Limit           int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "travel_agent"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Enabled:    getEnvAsBool("REDIS_ENABLED", false),
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnvAsInt("REDIS_PORT", 6379),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			GeocodeTTL: time.Duration(getEnvAsInt("GEOCODE_CACHE_TTL_HOURS", 24*7)) * time.Hour,
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			Environment:    getEnv("APP_ENV", "production"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		AI: AIConfig{
			Provider:            getEnv("AI_PROVIDER", "openai"),
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.groq.com/openai/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "llama-3.3-70b-versatile"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatTopP:            getEnvAsFloat("OPENAI_CHAT_TOP_P", 0),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 4096),
			ChatExtraBody:       getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "sentence-transformers/LaBSE"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 768),
			EmbeddingExtraBody:  getEnv("OPENAI_EMBEDDING_EXTRA_BODY", ""),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 60),
			Deployments:         getEnvAsList("AI_DEPLOYMENTS"),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Geocoder: GeocoderConfig{
			BaseURL:     getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:   getEnv("GEOCODER_USER_AGENT", "TravelAgent/1.0"),
			Timeout:     getEnvAsInt("GEOCODER_TIMEOUT", 10),
			ResultLimit: getEnvAsInt("GEOCODER_RESULT_LIMIT", 3),
		},
		Retrieval: RetrievalConfig{
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 5),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			FilterByCountry:    getEnvAsBool("RETRIEVAL_FILTER_BY_COUNTRY", false),
			DefaultTripDays:    getEnvAsInt("DEFAULT_TRIP_DAYS", 3),
		},
		Router: RouterConfig{
			PoolSize:          getEnvAsInt("ROUTER_POOL_SIZE", 4),
			DefaultDeployment: getEnv("ROUTER_DEFAULT_DEPLOYMENT", "default"),
		},
		Accommodation: AccommodationConfig{
			DefaultRadiusKm: getEnvAsFloat("ACCOMMODATION_RADIUS_KM", 10),
			Limit:           getEnvAsInt("ACCOMMODATION_LIMIT", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "openai", "langchain":
	default:
		return fmt.Errorf("invalid AI_PROVIDER %q, must be one of: openai, langchain", c.AI.Provider)
	}
	if c.Retrieval.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Retrieval.EmbeddingDimension)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Router.PoolSize <= 0 {
		return fmt.Errorf("ROUTER_POOL_SIZE must be positive, got %d", c.Router.PoolSize)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid bool value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
