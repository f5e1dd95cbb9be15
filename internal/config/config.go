package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client, the portal and the stub backend.
type Config struct {
	App      AppConfig      `yaml:"app"`
	API      APIConfig      `yaml:"api"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Logger   LoggerConfig   `yaml:"logger"`
	Portal   PortalConfig   `yaml:"portal"`
	Auth     AuthConfig     `yaml:"auth"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// APIConfig describes how the client reaches the backend API.
type APIConfig struct {
	BaseURL              string `yaml:"base_url"`
	TestBaseURL          string `yaml:"test_base_url"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	HealthTimeoutSeconds int    `yaml:"health_timeout_seconds"`
	RetryBackoffSeconds  int    `yaml:"retry_backoff_seconds"`
	LoginPath            string `yaml:"login_path"`
}

// StoreConfig selects the token store driver.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	FileDir     string `yaml:"file_dir"`
	RedisPrefix string `yaml:"redis_prefix"`
	TTLMinutes  int    `yaml:"ttl_minutes"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output"`
}

// PortalConfig configures the browser-facing portal.
type PortalConfig struct {
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// AuthConfig defines the stub backend authentication parameters.
type AuthConfig struct {
	JWTSecret             string `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
	BcryptCost            int    `yaml:"bcrypt_cost"`
	// SeedUsers is a comma separated list of role:email:password:name entries.
	SeedUsers string `yaml:"seed_users"`
}

// Load reads configuration from an optional YAML file and environment variables,
// applying defaults where possible. Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("HREADY_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.App = AppConfig{
		Name:                  getEnv("APP_NAME", cfg.App.Name),
		Env:                   getEnv("APP_ENV", cfg.App.Env),
		Host:                  getEnv("APP_HOST", cfg.App.Host),
		Port:                  getEnv("APP_PORT", cfg.App.Port),
		Version:               getEnv("APP_VERSION", cfg.App.Version),
		RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds),
	}
	cfg.API = APIConfig{
		BaseURL:              getEnv("HREADY_API_URL", cfg.API.BaseURL),
		TestBaseURL:          getEnv("HREADY_TEST_API_URL", cfg.API.TestBaseURL),
		TimeoutSeconds:       getEnvAsInt("HREADY_API_TIMEOUT_SECONDS", cfg.API.TimeoutSeconds),
		HealthTimeoutSeconds: getEnvAsInt("HREADY_API_HEALTH_TIMEOUT_SECONDS", cfg.API.HealthTimeoutSeconds),
		RetryBackoffSeconds:  getEnvAsInt("HREADY_API_RETRY_BACKOFF_SECONDS", cfg.API.RetryBackoffSeconds),
		LoginPath:            getEnv("HREADY_LOGIN_PATH", cfg.API.LoginPath),
	}
	cfg.Store = StoreConfig{
		Driver:      getEnv("TOKEN_STORE_DRIVER", cfg.Store.Driver),
		FileDir:     getEnv("TOKEN_STORE_DIR", cfg.Store.FileDir),
		RedisPrefix: getEnv("TOKEN_STORE_REDIS_PREFIX", cfg.Store.RedisPrefix),
		TTLMinutes:  getEnvAsInt("TOKEN_STORE_TTL_MINUTES", cfg.Store.TTLMinutes),
	}
	cfg.Postgres = PostgresConfig{
		DSN:            getEnv("POSTGRES_DSN", cfg.Postgres.DSN),
		MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns))),
		MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns))),
		RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations),
		ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec))),
		ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec))),
	}
	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", cfg.Redis.Addr),
		Password: getEnv("REDIS_PASSWORD", cfg.Redis.Password),
		DB:       redisDB,
	}
	cfg.Logger = LoggerConfig{
		Level:  getEnv("LOG_LEVEL", cfg.Logger.Level),
		Format: getEnv("LOG_FORMAT", cfg.Logger.Format),
		Output: getEnv("LOG_OUTPUT", cfg.Logger.Output),
	}
	cfg.Portal = PortalConfig{
		CookieName:   getEnv("PORTAL_COOKIE_NAME", cfg.Portal.CookieName),
		CookieSecure: getEnvAsBool("PORTAL_COOKIE_SECURE", cfg.Portal.CookieSecure),
	}
	cfg.Auth = AuthConfig{
		JWTSecret:             getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret),
		AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.Auth.AccessTokenTTLMinutes),
		BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost),
		SeedUsers:             getEnv("AUTH_SEED_USERS", cfg.Auth.SeedUsers),
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:                  "hready-portal",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8080",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		API: APIConfig{
			BaseURL:              "http://127.0.0.1:5000/api",
			TestBaseURL:          "http://127.0.0.1:5050/api",
			TimeoutSeconds:       30,
			HealthTimeoutSeconds: 10,
			RetryBackoffSeconds:  2,
			LoginPath:            "/login",
		},
		Store: StoreConfig{
			Driver:      "memory",
			RedisPrefix: "hready:session:",
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Portal: PortalConfig{
			CookieName: "hready_sid",
		},
		Auth: AuthConfig{
			JWTSecret:             "dev-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            12,
			SeedUsers:             "admin:admin@hready.local:admin123:HReady Admin,employee:employee@hready.local:employee123:HReady Employee",
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ResolveBaseURL picks the API base URL for the given environment.
// The test environment talks to its own backend.
func (a APIConfig) ResolveBaseURL(env string) string {
	if strings.EqualFold(env, "test") && a.TestBaseURL != "" {
		return a.TestBaseURL
	}
	return a.BaseURL
}

// Timeout returns the per-attempt timeout for general calls.
func (a APIConfig) Timeout() time.Duration {
	return seconds(a.TimeoutSeconds, 30)
}

// HealthTimeout returns the per-attempt timeout for health checks.
func (a APIConfig) HealthTimeout() time.Duration {
	return seconds(a.HealthTimeoutSeconds, 10)
}

// RetryBackoff returns the wait before the single retry of a transient failure.
func (a APIConfig) RetryBackoff() time.Duration {
	return seconds(a.RetryBackoffSeconds, 2)
}

// TTL returns the optional expiry applied by stores that support it.
func (s StoreConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
