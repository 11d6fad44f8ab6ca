package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

var ErrInvalidValue = errors.New("invalid configuration value")

// Config captures runtime configuration for the storefront API.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Storage     StorageConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace time.Duration
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type StorageConfig struct {
	Backend  string
	SeedFile string
}

type IdempotencyConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultMetricsPath    = "/metrics"
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultSeedFile       = "seed/catalog.yaml"
	defaultIdempotencyTTL = 24 * time.Hour
	defaultRedisAddr      = "localhost:6379"
	defaultJWTSecret      = "dev-secret-change-me"
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
	defaultServiceName    = "shop-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	storageCfg, err := loadStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}

	idemCfg, err := loadIdempotencyConfig(storageCfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("loading idempotency config: %w", err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("loading redis config: %w", err)
	}

	rateCfg, err := loadRateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("loading rate limit config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	authCfg, err := loadAuthConfig(serviceCfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	return &Config{
		HTTP:        httpCfg,
		Database:    loadDatabaseConfig(),
		Storage:     storageCfg,
		Idempotency: idemCfg,
		Redis:       redisCfg,
		Auth:        authCfg,
		RateLimit:   rateCfg,
		Telemetry:   telCfg,
		Service:     serviceCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	graceSeconds, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace: time.Duration(graceSeconds) * time.Second,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StoragePostgres))
	if backend != StorageMemory && backend != StoragePostgres {
		return StorageConfig{}, fmt.Errorf("%w: STORAGE_BACKEND %q", ErrInvalidValue, backend)
	}

	return StorageConfig{
		Backend:  backend,
		SeedFile: getEnvOrDefault("SEED_FILE", defaultSeedFile),
	}, nil
}

// loadIdempotencyConfig defaults the replay store to the storage backend.
func loadIdempotencyConfig(storageBackend string) (IdempotencyConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("IDEMPOTENCY_BACKEND", storageBackend))
	switch backend {
	case StorageMemory, StoragePostgres, StorageRedis:
	default:
		return IdempotencyConfig{}, fmt.Errorf("%w: IDEMPOTENCY_BACKEND %q", ErrInvalidValue, backend)
	}

	ttl := defaultIdempotencyTTL
	if value, ok := os.LookupEnv("IDEMPOTENCY_TTL"); ok && value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			return IdempotencyConfig{}, fmt.Errorf("%w: IDEMPOTENCY_TTL %q", ErrInvalidValue, value)
		}
		ttl = parsed
	}

	return IdempotencyConfig{Backend: backend, TTL: ttl}, nil
}

// loadAuthConfig only falls back to the well-known development secret in the
// development environment; anywhere else the secret must be set.
func loadAuthConfig(environment string) (AuthConfig, error) {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		if environment != defaultEnvironment {
			return AuthConfig{}, fmt.Errorf("%w: AUTH_JWT_SECRET is required in %q", ErrInvalidValue, environment)
		}
		secret = defaultJWTSecret
	}

	return AuthConfig{
		JWTSecret: secret,
		JWTIssuer: os.Getenv("AUTH_JWT_ISSUER"),
	}, nil
}

func loadRedisConfig() (RedisConfig, error) {
	db, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", defaultRedisAddr),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	rps, err := getFloatEnv("RATE_LIMIT_RPS", defaultRateLimitRPS)
	if err != nil {
		return RateLimitConfig{}, err
	}

	burst, err := getIntEnv("RATE_LIMIT_BURST", defaultRateLimitBurst)
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{RPS: rps, Burst: burst}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate, err := getFloatEnv("OTEL_SAMPLE_RATE", defaultOTelSampleRate)
	if err != nil {
		return TelemetryConfig{}, err
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "shop")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}
	return parsed, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}
	return parsed, nil
}
