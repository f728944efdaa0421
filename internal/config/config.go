package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"db"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Storage       StorageConfig       `mapstructure:"storage"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Security      SecurityConfig      `mapstructure:"argon2"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Maintenance   MaintenanceConfig   `mapstructure:"maintenance"`
	Seed          SeedConfig          `mapstructure:"seed"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	// TrustProxy honours True-Client-IP, X-Real-IP and X-Forwarded-For.
	// Enable only behind a proxy that overwrites them.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// StorageConfig selects the repository backend
type StorageConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend" validate:"oneof=memory postgres"`
	// Revocations is "memory", "postgres" or "redis".
	Revocations string `mapstructure:"revocations" validate:"oneof=memory postgres redis"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"secret" validate:"min=32"`
	RefreshSecret string        `mapstructure:"refresh_secret" validate:"min=32"`
	AccessTTL     time.Duration `mapstructure:"access_ttl" validate:"gt=0"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl" validate:"gt=0"`
	Issuer        string        `mapstructure:"issuer"`
}

// SecurityConfig holds Argon2id parameters
type SecurityConfig struct {
	Argon2Memory      uint32 `mapstructure:"memory" validate:"gte=1024"`
	Argon2Iterations  uint32 `mapstructure:"iterations" validate:"gte=1"`
	Argon2Parallelism uint8  `mapstructure:"parallelism" validate:"gte=1"`
	Argon2SaltLength  uint32 `mapstructure:"salt_length" validate:"gte=8"`
	Argon2KeyLength   uint32 `mapstructure:"key_length" validate:"gte=16"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"rps" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=1"`
	LoginAttempts     int           `mapstructure:"login_attempts" validate:"gte=1"`
	LoginWindow       time.Duration `mapstructure:"login_window" validate:"gt=0"`
	// Backend of the login limiter: "memory" or "redis".
	Backend string `mapstructure:"backend" validate:"oneof=memory redis"`
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string  `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string  `mapstructure:"log_format" validate:"oneof=json text"`
	LogFile        string  `mapstructure:"log_file"`
	LogMaxSizeMB   int     `mapstructure:"log_max_size_mb"`
	LogMaxBackups  int     `mapstructure:"log_max_backups"`
	LogMaxAgeDays  int     `mapstructure:"log_max_age_days"`
	OTELEnabled    bool    `mapstructure:"otel_enabled"`
	OTELEndpoint   string  `mapstructure:"otel_endpoint"`
	OTELInsecure   bool    `mapstructure:"otel_insecure"`
	SamplingRate   float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
	MetricsEnabled bool    `mapstructure:"metrics_enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
}

// MaintenanceConfig schedules background cleanup
type MaintenanceConfig struct {
	// CleanupSchedule is a cron spec, e.g. "@every 10m".
	CleanupSchedule string        `mapstructure:"cleanup_schedule" validate:"required"`
	LimiterIdle     time.Duration `mapstructure:"limiter_idle" validate:"gt=0"`
}

// SeedConfig controls demo data loading
type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var defaults = map[string]any{
	"server.host":            "0.0.0.0",
	"server.port":            "8080",
	"server.read_timeout":    "15s",
	"server.write_timeout":   "15s",
	"server.idle_timeout":    "60s",
	"server.request_timeout": "60s",
	"server.trust_proxy":     false,

	"db.host":           "localhost",
	"db.port":           "5432",
	"db.user":           "linkspace",
	"db.password":       "",
	"db.name":           "linkspace",
	"db.sslmode":        "disable",
	"db.max_open_conns": 25,
	"db.max_idle_conns": 5,

	"redis.addr":       "localhost:6379",
	"redis.password":   "",
	"redis.db":         0,
	"redis.key_prefix": "linkspace:",

	"storage.backend":     "memory",
	"storage.revocations": "memory",

	"jwt.secret":         "",
	"jwt.refresh_secret": "",
	"jwt.access_ttl":     "15m",
	"jwt.refresh_ttl":    "168h",
	"jwt.issuer":         "linkspace",

	"argon2.memory":      65536,
	"argon2.iterations":  3,
	"argon2.parallelism": 4,
	"argon2.salt_length": 16,
	"argon2.key_length":  32,

	"ratelimit.rps":            10,
	"ratelimit.burst":          20,
	"ratelimit.login_attempts": 5,
	"ratelimit.login_window":   "1m",
	"ratelimit.backend":        "memory",

	"cors.allowed_origins": []string{"http://localhost:5173"},
	"cors.max_age":         300,

	"observability.log_level":        "info",
	"observability.log_format":       "json",
	"observability.log_file":         "",
	"observability.log_max_size_mb":  100,
	"observability.log_max_backups":  5,
	"observability.log_max_age_days": 30,
	"observability.otel_enabled":     false,
	"observability.otel_endpoint":    "",
	"observability.otel_insecure":    true,
	"observability.sampling_rate":    1.0,
	"observability.metrics_enabled":  true,
	"observability.service_name":     "linkspace",
	"observability.service_version":  "0.1.0",

	"maintenance.cleanup_schedule": "@every 10m",
	"maintenance.limiter_idle":     "10m",

	"seed.enabled": false,
}

// Load reads an optional .env file, then environment variables. Keys map
// to variables by upper-casing and replacing dots with underscores, so
// jwt.refresh_secret is JWT_REFRESH_SECRET.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.Storage.Backend == "postgres" || c.Storage.Revocations == "postgres" {
		if c.Database.Password == "" {
			return errors.New("DB_PASSWORD is required for the postgres backend")
		}
	}
	if (c.RateLimit.Backend == "redis" || c.Storage.Revocations == "redis") && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required for the redis backend")
	}
	if c.Storage.Revocations == "postgres" && c.Storage.Backend != "postgres" {
		return errors.New("postgres revocations require STORAGE_BACKEND=postgres")
	}
	return nil
}
