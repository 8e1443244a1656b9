package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	Path            string        `yaml:"path"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	LogLevel        string        `yaml:"log_level"`
}

// GetDSN returns the connection string for the configured driver
func (c *DBConfig) GetDSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	case "sqlite":
		return c.Path
	default:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
}

// GormLogLevel maps the configured level onto gorm's logger levels
func (c *DBConfig) GormLogLevel() logger.LogLevel {
	switch c.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `yaml:"port"`
	Env             string        `yaml:"env"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	BodyLimit       string        `yaml:"body_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// IsProduction reports whether the service runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// SessionConfig holds the admin session token configuration
type SessionConfig struct {
	SigningKey string        `yaml:"signing_key"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version"`
}

// MailConfig selects and configures the outbound mail relay
type MailConfig struct {
	Provider  string `yaml:"provider"`
	From      string `yaml:"from"`
	FromName  string `yaml:"from_name"`
	SMTPHost  string `yaml:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port"`
	SMTPUser  string `yaml:"smtp_user"`
	SMTPPass  string `yaml:"smtp_pass"`
	AWSRegion string `yaml:"aws_region"`
}

// IdentityConfig configures the external identity provider's admin API
type IdentityConfig struct {
	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Scopes       []string      `yaml:"scopes"`
	Timeout      time.Duration `yaml:"timeout"`
}

// UploadConfig selects where member profile images are stored
type UploadConfig struct {
	Provider      string `yaml:"provider"`
	Folder        string `yaml:"folder"`
	LocalDir      string `yaml:"local_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Region      string `yaml:"s3_region"`
	CloudinaryURL string `yaml:"cloudinary_url"`
	MaxSizeBytes  int64  `yaml:"max_size_bytes"`
}

// EventsConfig configures the audit event stream
type EventsConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
}

// Enabled reports whether a broker is configured
func (c *EventsConfig) Enabled() bool {
	return c.Broker != ""
}

// Config holds all configuration
type Config struct {
	DB       DBConfig       `yaml:"db"`
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Mail     MailConfig     `yaml:"mail"`
	Identity IdentityConfig `yaml:"identity"`
	Upload   UploadConfig   `yaml:"upload"`
	Events   EventsConfig   `yaml:"events"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		DB: DBConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			DBName:          "family_tree",
			SSLMode:         "disable",
			Path:            "family_tree.db",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			LogLevel:        "warn",
		},
		Server: ServerConfig{
			Port:            "8080",
			Env:             "development",
			AllowedOrigins:  []string{"http://localhost:3000"},
			BodyLimit:       "10M",
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			SigningKey: "familytreeadminsecret",
			CookieName: "admin_token",
			TTL:        24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:    "/metrics",
			Version: "1.0.0",
		},
		Mail: MailConfig{
			Provider: "smtp",
			FromName: "Family Tree Team",
			SMTPPort: 587,
		},
		Identity: IdentityConfig{
			Timeout: 10 * time.Second,
		},
		Upload: UploadConfig{
			Provider:      "local",
			Folder:        "members",
			LocalDir:      "uploads",
			PublicBaseURL: "/uploads",
			MaxSizeBytes:  5 << 20,
		},
		Events: EventsConfig{
			Topic: "familytree.admin.audit",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE and finally environment variables (including a .env file).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if cfg.Server.IsProduction() && cfg.Session.SigningKey == Default().Session.SigningKey {
		return nil, fmt.Errorf("SESSION_SIGNING_KEY must be set in production")
	}
	return cfg, nil
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

func applyEnv(cfg *Config) {
	cfg.DB.Driver = getEnv("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.DBName = getEnv("DB_NAME", cfg.DB.DBName)
	cfg.DB.SSLMode = getEnv("DB_SSL_MODE", cfg.DB.SSLMode)
	cfg.DB.Path = getEnv("DB_PATH", cfg.DB.Path)
	cfg.DB.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", cfg.DB.ConnMaxLifetime)
	cfg.DB.LogLevel = getEnv("DB_LOG_LEVEL", cfg.DB.LogLevel)

	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Env = getEnv("APP_ENV", cfg.Server.Env)
	cfg.Server.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.BodyLimit = getEnv("BODY_LIMIT", cfg.Server.BodyLimit)
	cfg.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Session.SigningKey = getEnv("SESSION_SIGNING_KEY", cfg.Session.SigningKey)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.TTL = getEnvAsDuration("SESSION_TTL", cfg.Session.TTL)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)
	cfg.Metrics.Version = getEnv("SERVICE_VERSION", cfg.Metrics.Version)

	cfg.Mail.Provider = getEnv("MAIL_PROVIDER", cfg.Mail.Provider)
	cfg.Mail.From = getEnv("SMTP_FROM", cfg.Mail.From)
	cfg.Mail.FromName = getEnv("MAIL_FROM_NAME", cfg.Mail.FromName)
	cfg.Mail.SMTPHost = getEnv("SMTP_HOST", cfg.Mail.SMTPHost)
	cfg.Mail.SMTPPort = getEnvAsInt("SMTP_PORT", cfg.Mail.SMTPPort)
	cfg.Mail.SMTPUser = getEnv("SMTP_USER", cfg.Mail.SMTPUser)
	cfg.Mail.SMTPPass = getEnv("SMTP_PASS", cfg.Mail.SMTPPass)
	cfg.Mail.AWSRegion = getEnv("AWS_REGION", cfg.Mail.AWSRegion)

	cfg.Identity.BaseURL = getEnv("IDENTITY_BASE_URL", cfg.Identity.BaseURL)
	cfg.Identity.TokenURL = getEnv("IDENTITY_TOKEN_URL", cfg.Identity.TokenURL)
	cfg.Identity.ClientID = getEnv("IDENTITY_CLIENT_ID", cfg.Identity.ClientID)
	cfg.Identity.ClientSecret = getEnv("IDENTITY_CLIENT_SECRET", cfg.Identity.ClientSecret)
	cfg.Identity.Scopes = getEnvAsSlice("IDENTITY_SCOPES", cfg.Identity.Scopes)
	cfg.Identity.Timeout = getEnvAsDuration("IDENTITY_TIMEOUT", cfg.Identity.Timeout)

	cfg.Upload.Provider = getEnv("UPLOAD_PROVIDER", cfg.Upload.Provider)
	cfg.Upload.Folder = getEnv("UPLOAD_FOLDER", cfg.Upload.Folder)
	cfg.Upload.LocalDir = getEnv("UPLOAD_LOCAL_DIR", cfg.Upload.LocalDir)
	cfg.Upload.PublicBaseURL = getEnv("UPLOAD_PUBLIC_BASE_URL", cfg.Upload.PublicBaseURL)
	cfg.Upload.S3Bucket = getEnv("UPLOAD_S3_BUCKET", cfg.Upload.S3Bucket)
	cfg.Upload.S3Region = getEnv("UPLOAD_S3_REGION", getEnv("AWS_REGION", cfg.Upload.S3Region))
	cfg.Upload.CloudinaryURL = getEnv("CLOUDINARY_URL", cfg.Upload.CloudinaryURL)
	cfg.Upload.MaxSizeBytes = int64(getEnvAsInt("UPLOAD_MAX_SIZE_BYTES", int(cfg.Upload.MaxSizeBytes)))

	cfg.Events.Broker = getEnv("KAFKA_BROKER", cfg.Events.Broker)
	cfg.Events.Topic = getEnv("KAFKA_TOPIC", cfg.Events.Topic)
	cfg.Events.Username = getEnv("KAFKA_USERNAME", cfg.Events.Username)
	cfg.Events.Password = getEnv("KAFKA_PASSWORD", cfg.Events.Password)
	cfg.Events.TLS = getEnvAsBool("KAFKA_TLS", cfg.Events.TLS)
}

// LogConfig returns the configuration as zap fields, without secrets
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("mail_provider", c.Mail.Provider),
		zap.String("upload_provider", c.Upload.Provider),
		zap.Bool("identity_enabled", c.Identity.BaseURL != ""),
		zap.Bool("events_enabled", c.Events.Enabled()),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Comma separated list, empty entries dropped
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
