package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Upstream  UpstreamConfig
	Redis     RedisConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type CacheConfig struct {
	NormalTimeout time.Duration // Age after a successful refresh at which data is refetched
	ErrorTimeout  time.Duration // Cooldown after a failed refresh
	WarmOnStart   bool
}

type UpstreamConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string

	GitHubAPIURL    string
	GitHubWebURL    string
	GitHubRepo      string
	GitHubToken     string
	TranslationsURL string
	Package         string
	NewPipeRepoURL  string
	FDroidRepoURL   string
	MetadataURL     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

type SentryConfig struct {
	DSN string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "3000"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 2*time.Minute), // a cold refresh is served synchronously
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"*"}),
			Environment:    getEnv("ENVIRONMENT", "production"),
		},
		Cache: CacheConfig{
			NormalTimeout: getDurationEnv("CACHE_NORMAL_TIMEOUT", time.Hour),
			ErrorTimeout:  getDurationEnv("CACHE_ERROR_TIMEOUT", 6*time.Minute),
			WarmOnStart:   getBoolEnv("CACHE_WARM_ON_START", false),
		},
		Upstream: UpstreamConfig{
			Timeout:           getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
			RequestsPerSecond: getFloatEnv("UPSTREAM_REQUESTS_PER_SECOND", 5),
			Burst:             getIntEnv("UPSTREAM_BURST", 5),
			UserAgent:         getEnv("UPSTREAM_USER_AGENT", ""),
			GitHubAPIURL:      getEnv("GITHUB_API_URL", "https://api.github.com"),
			GitHubWebURL:      getEnv("GITHUB_WEB_URL", "https://github.com"),
			GitHubRepo:        getEnv("GITHUB_REPO", "TeamNewPipe/NewPipe"),
			GitHubToken:       getEnv("GITHUB_TOKEN", ""),
			TranslationsURL:   getEnv("WEBLATE_TRANSLATIONS_URL", "https://hosted.weblate.org/api/components/newpipe/strings/translations/"),
			Package:           getEnv("FDROID_PACKAGE", "org.schabi.newpipe"),
			NewPipeRepoURL:    getEnv("NEWPIPE_REPO_URL", "https://archive.newpipe.net/fdroid/repo/"),
			FDroidRepoURL:     getEnv("FDROID_REPO_URL", "https://f-droid.org/repo/"),
			MetadataURL:       getEnv("FDROIDDATA_METADATA_URL", "https://gitlab.com/fdroid/fdroiddata/-/raw/master/metadata/org.schabi.newpipe.yml"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", ""),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			DefaultRequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 60),
			BurstMultiplier:          getFloatEnv("RATE_LIMIT_BURST", 2.0),
			Window:                   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:                getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:client"),
		},
		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the refresh gate cannot work with.
func (c *Config) Validate() error {
	if c.Cache.ErrorTimeout <= 0 {
		return fmt.Errorf("CACHE_ERROR_TIMEOUT must be positive")
	}
	if c.Cache.ErrorTimeout >= c.Cache.NormalTimeout {
		return fmt.Errorf("CACHE_ERROR_TIMEOUT (%s) must be shorter than CACHE_NORMAL_TIMEOUT (%s)", c.Cache.ErrorTimeout, c.Cache.NormalTimeout)
	}
	if c.Upstream.GitHubRepo == "" || !strings.Contains(c.Upstream.GitHubRepo, "/") {
		return fmt.Errorf("GITHUB_REPO must look like owner/name, got %q", c.Upstream.GitHubRepo)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
