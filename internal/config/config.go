package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gestionale-crm/crm-api/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Notifications NotificationsConfig
	Mail          MailConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Secrets       SecretsConfig
	Monitoring    MonitoringConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	// Timezone is the IANA zone used to decide which calendar day "today" is
	// for reminders and month/day buckets in reports.
	Timezone string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	AutoMigrate     bool
}

// Auth modes
const (
	AuthModeBypass = "bypass"
	AuthModeJWT    = "jwt"
)

// AuthConfig selects how the session user is resolved.
// Mode "bypass" injects a fixed user for every request, "jwt" validates
// HS256 bearer tokens issued by the hosted auth service.
type AuthConfig struct {
	Mode      string
	JWTSecret string
	Issuer    string
	Audience  string

	BypassUserID    string
	BypassEmail     string
	BypassFirstName string
	BypassLastName  string
	BypassRole      string
}

// NotificationsConfig drives the contract reminder jobs
type NotificationsConfig struct {
	JobsEnabled        bool
	GenerateCron       string
	DeliveryCron       string
	PendingRefreshCron string
	// JobTimeout bounds a single job run (seconds)
	JobTimeout int
	// ExpiringSoonDays is the look-ahead window for the expiring_soon counter
	ExpiringSoonDays int
	// TrendMonths is the number of trailing months in the revenue trend
	TrendMonths int
}

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// LockTTL is how long the generation lock is held at most (seconds)
	LockTTL int
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type MonitoringConfig struct {
	MetricsEnabled    bool
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64
}

type LoggingConfig struct {
	Level  string
	Format string
	// File enables a rotated log file next to stdout when set
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	// FrameOptions sets the X-Frame-Options header (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	ReferrerPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the default rate limit for unauthenticated requests (per IP)
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the rate limit for authenticated requests (per user)
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// JobTimeoutDuration returns the per-run job timeout
func (n *NotificationsConfig) JobTimeoutDuration() time.Duration {
	return time.Duration(n.JobTimeout) * time.Second
}

// LockTTLDuration returns the generation lock TTL
func (r *RedisConfig) LockTTLDuration() time.Duration {
	return time.Duration(r.LockTTL) * time.Second
}

// Location resolves the configured timezone, falling back to UTC
func (a *AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("SUPABASE_JWT_SECRET")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if cfg.Monitoring.SentryDSN == "" {
		cfg.Monitoring.SentryDSN = v.GetString("SENTRY_DSN")
	}
	if cfg.Monitoring.SentryEnvironment == "" {
		cfg.Monitoring.SentryEnvironment = cfg.App.Environment
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail later at runtime
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeBypass:
		if c.App.Environment == "production" {
			return fmt.Errorf("auth.mode=bypass is not allowed in production")
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwtSecret is required when auth.mode=jwt")
		}
	default:
		return fmt.Errorf("invalid auth.mode %q: must be bypass or jwt", c.Auth.Mode)
	}

	switch c.Storage.Mode {
	case "local", "cloud":
	default:
		return fmt.Errorf("invalid storage.mode %q: must be local or cloud", c.Storage.Mode)
	}

	if c.Notifications.ExpiringSoonDays < 0 {
		return fmt.Errorf("notifications.expiringSoonDays must not be negative")
	}
	if c.Notifications.TrendMonths < 1 {
		return fmt.Errorf("notifications.trendMonths must be at least 1")
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source
// In development (or when secrets.source = "environment"), secrets come from env vars
// In staging/production with USE_AZURE_KEY_VAULT=true, secrets come from Azure Key Vault
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	resolve := func(secretName, envVar string, target *string) {
		if value, err := provider.GetSecretOrEnv(ctx, secretName, envVar); err == nil && value != "" {
			*target = value
		}
	}

	resolve("crm-db-host", "DATABASE_HOST", &cfg.Database.Host)
	resolve("crm-db-user", "DATABASE_USER", &cfg.Database.User)
	resolve("crm-db-password", "DATABASE_PASSWORD", &cfg.Database.Password)
	resolve("crm-jwt-secret", "SUPABASE_JWT_SECRET", &cfg.Auth.JWTSecret)
	resolve("crm-smtp-password", "MAIL_PASSWORD", &cfg.Mail.Password)
	resolve("crm-redis-password", "REDIS_PASSWORD", &cfg.Redis.Password)
	resolve("storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString)
	resolve("crm-sentry-dsn", "SENTRY_DSN", &cfg.Monitoring.SentryDSN)

	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Gestionale CRM API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.timezone", "Europe/Rome")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gestionale")
	v.SetDefault("database.user", "gestionale")
	v.SetDefault("database.password", "gestionale")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.autoMigrate", false)

	v.SetDefault("auth.mode", "bypass")
	v.SetDefault("auth.audience", "authenticated")
	v.SetDefault("auth.bypassUserId", "00000000-0000-0000-0000-000000000001")
	v.SetDefault("auth.bypassEmail", "admin@gestionale.com")
	v.SetDefault("auth.bypassFirstName", "Admin")
	v.SetDefault("auth.bypassLastName", "Gestionale")
	v.SetDefault("auth.bypassRole", "owner")

	v.SetDefault("notifications.jobsEnabled", true)
	v.SetDefault("notifications.generateCron", "0 0 6 * * *")
	v.SetDefault("notifications.deliveryCron", "0 */15 * * * *")
	v.SetDefault("notifications.pendingRefreshCron", "@every 5m")
	v.SetDefault("notifications.jobTimeout", 300)
	v.SetDefault("notifications.expiringSoonDays", 60)
	v.SetDefault("notifications.trendMonths", 6)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "noreply@gestionale.com")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockTTL", 600)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "report-archive")

	v.SetDefault("monitoring.metricsEnabled", true)
	v.SetDefault("monitoring.sentrySampleRate", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.maxSizeMB", 100)
	v.SetDefault("logging.maxBackups", 5)
	v.SetDefault("logging.maxAgeDays", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Content-Disposition", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 240)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/ready", "/metrics"})
}
