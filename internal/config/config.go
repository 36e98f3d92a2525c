package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Detran   DetranConfig   `json:"detran"`
	Browser  BrowserConfig  `json:"browser"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DetranConfig holds DetranNet consultation configuration.
// User and Password are the basic-auth credentials for the restricted area;
// they are checked per query, before any browser session is launched.
type DetranConfig struct {
	BaseURL         string        `json:"base_url"`
	User            string        `json:"-"`
	Password        string        `json:"-"`
	Timeout         time.Duration `json:"timeout"`
	SettleDelay     time.Duration `json:"settle_delay"`
	SettleTimeout   time.Duration `json:"settle_timeout"`
	PollInterval    time.Duration `json:"poll_interval"`
	DebtsPanelDelay time.Duration `json:"debts_panel_delay"`
	CacheTTL        time.Duration `json:"cache_ttl"`
	MaxSessions     int           `json:"max_sessions"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Headless     bool   `json:"headless"`
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	UserAgent    string `json:"user_agent"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 120),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Detran: DetranConfig{
			BaseURL:         getEnv("DETRAN_BASE_URL", "https://sistema.detrannet.sc.gov.br/arearestrita/tela_principal.asp"),
			User:            getEnv("DETRAN_USER", ""),
			Password:        getEnv("DETRAN_PASS", ""),
			Timeout:         time.Duration(getEnvAsInt("DETRAN_TIMEOUT", 90)) * time.Second,
			SettleDelay:     time.Duration(getEnvAsInt("DETRAN_SETTLE_DELAY_MS", 2000)) * time.Millisecond,
			SettleTimeout:   time.Duration(getEnvAsInt("DETRAN_SETTLE_TIMEOUT", 15)) * time.Second,
			PollInterval:    time.Duration(getEnvAsInt("DETRAN_POLL_INTERVAL_MS", 500)) * time.Millisecond,
			DebtsPanelDelay: time.Duration(getEnvAsInt("DETRAN_DEBTS_PANEL_DELAY_MS", 4000)) * time.Millisecond,
			CacheTTL:        time.Duration(getEnvAsInt("DETRAN_CACHE_TTL", 600)) * time.Second,
			MaxSessions:     getEnvAsInt("BROWSER_MAX_SESSIONS", 3),
		},
		Browser: BrowserConfig{
			Headless:     getEnvAsBool("BROWSER_HEADLESS", true),
			WindowWidth:  getEnvAsInt("BROWSER_WINDOW_WIDTH", 1366),
			WindowHeight: getEnvAsInt("BROWSER_WINDOW_HEIGHT", 768),
			UserAgent:    getEnv("BROWSER_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 5),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}

	return cfg, nil
}

// HasCredentials reports whether the DetranNet basic-auth credentials are set
func (d DetranConfig) HasCredentials() bool {
	return d.User != "" && d.Password != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
