package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
)

// MinSecretLength is the shortest accepted JWT signing secret
const MinSecretLength = 16

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage storage.Config `yaml:"storage"`

	// Token and password settings
	Auth AuthConfig `yaml:"auth"`

	// Bootstrap admin account
	Admin AdminConfig `yaml:"admin"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	WebEnabled      bool          `yaml:"web_enabled"`
	DocsEnabled     bool          `yaml:"docs_enabled"`

	// Health/metrics server (separate port for k8s probes)
	OpsPort string `yaml:"ops_port"`
}

// AuthConfig holds token and password settings
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	Issuer           string        `yaml:"issuer"`
	TokenTTL         time.Duration `yaml:"token_ttl"`          // login tokens
	RegisterTokenTTL time.Duration `yaml:"register_token_ttl"` // registration tokens
	BcryptCost       int           `yaml:"bcrypt_cost"`
	AllowAdminSignup bool          `yaml:"allow_admin_signup"`
}

// AdminConfig describes the account seeded at startup. Seeding is skipped when Email is empty.
type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or text

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Level returns the parsed log level
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// LoggerOptions returns the options NewLogger needs for this configuration
func (o ObservabilityConfig) LoggerOptions() []observability.LoggerOption {
	return []observability.LoggerOption{
		observability.WithFormat(o.LogFormat),
		observability.WithService(o.OTelServiceName, o.OTelServiceVersion),
	}
}

// OTel returns the OpenTelemetry settings in the form observability.InitOTel expects
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173"},
			WebEnabled:      true,
			DocsEnabled:     true,
			OpsPort:         "9090",
		},
		Storage: storage.DefaultConfig(),
		Auth: AuthConfig{
			Issuer:           "warden",
			TokenTTL:         24 * time.Hour,
			RegisterTokenTTL: 30 * 24 * time.Hour,
			BcryptCost:       10,
			AllowAdminSignup: true,
		},
		Admin: AdminConfig{
			Name: "Administrator",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          observability.FormatJSON,
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "warden",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by WARDEN_CONFIG_FILE and WARDEN_* environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("WARDEN_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path; keys it omits keep their current values
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.applyServerEnv()
	c.applyStorageEnv()
	c.applyAuthEnv()
	c.applyObservabilityEnv()
}

// applyServerEnv loads server configuration from environment
func (c *Config) applyServerEnv() {
	s := &c.Server
	s.Host = getEnv("WARDEN_HOST", s.Host)
	s.Port = getEnv("WARDEN_PORT", s.Port)
	s.OpsPort = getEnv("WARDEN_OPS_PORT", s.OpsPort)
	s.ReadTimeout = getEnvDuration("WARDEN_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("WARDEN_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("WARDEN_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("WARDEN_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.CORSOrigins = getEnvList("WARDEN_CORS_ORIGINS", s.CORSOrigins)
	s.WebEnabled = getEnvBool("WARDEN_WEB_ENABLED", s.WebEnabled)
	s.DocsEnabled = getEnvBool("WARDEN_DOCS_ENABLED", s.DocsEnabled)
}

// applyStorageEnv loads storage configuration from environment
func (c *Config) applyStorageEnv() {
	s := &c.Storage
	s.Type = strings.ToLower(getEnv("WARDEN_STORAGE_TYPE", s.Type))

	// MongoDB config
	s.MongoURI = getEnv("WARDEN_MONGO_URI", s.MongoURI)
	s.MongoDatabase = getEnv("WARDEN_MONGO_DATABASE", s.MongoDatabase)
	s.MongoTimeout = getEnvDuration("WARDEN_MONGO_TIMEOUT", s.MongoTimeout)

	// PostgreSQL config
	s.PostgresURL = getEnv("WARDEN_POSTGRES_URL", s.PostgresURL)
	s.PostgresMaxConns = getEnvInt("WARDEN_POSTGRES_MAX_CONNS", s.PostgresMaxConns)
	s.PostgresMinConns = getEnvInt("WARDEN_POSTGRES_MIN_CONNS", s.PostgresMinConns)
	s.PostgresTimeout = getEnvDuration("WARDEN_POSTGRES_TIMEOUT", s.PostgresTimeout)

	// Redis config
	s.RedisURL = getEnv("WARDEN_REDIS_URL", s.RedisURL)
	s.RedisPassword = getEnv("WARDEN_REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = getEnvInt("WARDEN_REDIS_DB", s.RedisDB)
	s.RedisPoolSize = getEnvInt("WARDEN_REDIS_POOL_SIZE", s.RedisPoolSize)

	// Cache config
	s.CacheEnabled = getEnvBool("WARDEN_CACHE_ENABLED", s.CacheEnabled)
	s.CacheSize = getEnvInt("WARDEN_CACHE_SIZE", s.CacheSize)
	s.CacheTTL = getEnvDuration("WARDEN_CACHE_TTL", s.CacheTTL)
}

// applyAuthEnv loads token, password and bootstrap admin settings from environment
func (c *Config) applyAuthEnv() {
	a := &c.Auth
	a.JWTSecret = getEnv("WARDEN_JWT_SECRET", a.JWTSecret)
	a.Issuer = getEnv("WARDEN_JWT_ISSUER", a.Issuer)
	a.TokenTTL = getEnvDuration("WARDEN_JWT_TTL", a.TokenTTL)
	a.RegisterTokenTTL = getEnvDuration("WARDEN_JWT_REGISTER_TTL", a.RegisterTokenTTL)
	a.BcryptCost = getEnvInt("WARDEN_BCRYPT_COST", a.BcryptCost)
	a.AllowAdminSignup = getEnvBool("WARDEN_ALLOW_ADMIN_SIGNUP", a.AllowAdminSignup)

	c.Admin.Name = getEnv("WARDEN_ADMIN_NAME", c.Admin.Name)
	c.Admin.Email = getEnv("WARDEN_ADMIN_EMAIL", c.Admin.Email)
	c.Admin.Password = getEnv("WARDEN_ADMIN_PASSWORD", c.Admin.Password)
}

// applyObservabilityEnv loads observability configuration from environment
func (c *Config) applyObservabilityEnv() {
	o := &c.Observability
	o.LogLevel = getEnv("WARDEN_LOG_LEVEL", o.LogLevel)
	o.LogFormat = strings.ToLower(getEnv("WARDEN_LOG_FORMAT", o.LogFormat))
	o.MetricsEnabled = getEnvBool("WARDEN_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("WARDEN_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("WARDEN_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("WARDEN_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("WARDEN_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("WARDEN_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("WARDEN_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.OpsPort == "" {
		return fmt.Errorf("ops port is required")
	}
	if c.Server.Port == c.Server.OpsPort {
		return fmt.Errorf("server port and ops port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case storage.TypeMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDatabase == "" {
			return fmt.Errorf("mongo URI and database are required for mongo storage")
		}
	case storage.TypePostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	case storage.TypeMemory:
	default:
		return fmt.Errorf("invalid storage type: %s (must be mongo, postgres, or memory)", c.Storage.Type)
	}
	if c.Storage.CacheEnabled && (c.Storage.CacheSize <= 0 || c.Storage.CacheTTL <= 0) {
		return fmt.Errorf("cache size and TTL must be positive when the cache is enabled")
	}

	// Validate auth config
	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes (set WARDEN_JWT_SECRET)", MinSecretLength)
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RegisterTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return fmt.Errorf("admin email and password must be set together")
	}

	// Validate log level
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Observability.LogLevel)
	}
	if f := c.Observability.LogFormat; f != observability.FormatJSON && f != observability.FormatText {
		return fmt.Errorf("invalid log format: %s (must be json or text)", f)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r)
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
