package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Driver     string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SSLMode    string
		SQLitePath string
		MaxConns   int
		Retries    int
		RetryDelay time.Duration
	}

	// JWT configuration
	JWT struct {
		Secret      string
		ExpiryHours time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		TrustedProxies []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Chat delivery settings
	Chat struct {
		PreviewLength  int
		SendBuffer     int
		WriteWait      time.Duration
		PongWait       time.Duration
		MaxMessageSize int64
	}

	// Opportunity matching settings
	Matching struct {
		MaxResults      int
		HiddenGemSalary float64
		CatalogTTL      time.Duration
	}

	// Cache settings
	Cache struct {
		TTL     time.Duration
		MaxSize int
	}

	// Redis settings
	Redis struct {
		Enabled bool
		URL     string
		UserTTL time.Duration
	}

	// Observability settings
	Observability struct {
		ServiceName    string
		TracingEnabled bool
		MetricsEnabled bool
	}

	// GitHub repository import
	GitHub struct {
		APIURL  string
		Token   string
		Timeout time.Duration
	}

	// Vault settings
	Vault struct {
		Enabled bool
		Addr    string
		Token   string
		Path    string
	}

	// OpenAPI request validation
	OpenAPI struct {
		SchemaPath string
	}
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	mu.Lock()
	defer mu.Unlock()

	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	mu.Lock()
	cfg := instance
	mu.Unlock()
	if cfg == nil {
		return New()
	}
	return cfg
}

// Reset drops the cached instance so the next Get reads the environment again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

func load() *Config {
	c := &Config{}

	// Server config
	c.Server.Port = getEnvString("PORT", "8080")
	c.Server.Env = getEnvString("APP_ENV", "development")
	c.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	c.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+c.Server.Port)

	// Database config
	c.Database.Driver = getEnvString("DB_DRIVER", "postgres")
	c.Database.Host = getEnvString("DB_HOST", "localhost")
	c.Database.Port = getEnvString("DB_PORT", "5432")
	c.Database.User = getEnvString("DB_USER", "postgres")
	c.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	c.Database.Name = getEnvString("DB_NAME", "rvsync")
	c.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	c.Database.SQLitePath = getEnvString("DB_SQLITE_PATH", "rvsync.db")
	c.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	c.Database.Retries = getEnvInt("DB_RETRIES", 5)
	c.Database.RetryDelay = getEnvDuration("DB_RETRY_DELAY", 5*time.Second)

	// JWT config
	c.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
	c.JWT.ExpiryHours = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Security config
	c.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 20))
	c.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)
	c.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	c.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})
	c.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	// Logging config
	c.Logging.Level = getEnvString("LOG_LEVEL", "info")
	c.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Chat config
	c.Chat.PreviewLength = getEnvInt("CHAT_PREVIEW_LENGTH", 50)
	c.Chat.SendBuffer = getEnvInt("CHAT_SEND_BUFFER", 256)
	c.Chat.WriteWait = getEnvDuration("CHAT_WRITE_WAIT", 10*time.Second)
	c.Chat.PongWait = getEnvDuration("CHAT_PONG_WAIT", 60*time.Second)
	c.Chat.MaxMessageSize = getEnvInt64("CHAT_MAX_MESSAGE_SIZE", 64<<10) // 64KB

	// Matching config
	c.Matching.MaxResults = getEnvInt("MATCH_MAX_RESULTS", 20)
	c.Matching.HiddenGemSalary = float64(getEnvInt64("MATCH_HIDDEN_GEM_SALARY", 1_500_000))
	c.Matching.CatalogTTL = getEnvDuration("MATCH_CATALOG_TTL", time.Minute)

	// Cache settings
	c.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	c.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)

	// Redis settings
	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)
	c.Redis.URL = getEnvString("REDIS_URL", "redis://localhost:6379/0")
	c.Redis.UserTTL = getEnvDuration("REDIS_USER_TTL", 10*time.Minute)

	// Observability
	c.Observability.ServiceName = getEnvString("SERVICE_NAME", "rvsync-backend")
	c.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	c.Observability.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)

	// GitHub
	c.GitHub.APIURL = getEnvString("GITHUB_API_URL", "https://api.github.com")
	c.GitHub.Token = getEnvString("GITHUB_TOKEN", "")
	c.GitHub.Timeout = getEnvDuration("GITHUB_TIMEOUT", 10*time.Second)

	// Vault
	c.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	c.Vault.Addr = getEnvString("VAULT_ADDR", "http://127.0.0.1:8200")
	c.Vault.Token = getEnvString("VAULT_TOKEN", "")
	c.Vault.Path = getEnvString("VAULT_SECRET_PATH", "secret/data/rvsync")

	c.OpenAPI.SchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	return c
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
