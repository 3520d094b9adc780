package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Mail        MailConfig
	Notify      NotifyConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
	EnablePprof  bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
	// ConnectAttempts bounds how often startup retries an unreachable database.
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

type BufferConfig struct {
	Path           string
	MaxSize        int
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	// Path points at a migrations directory; empty uses the embedded set.
	Path string
}

// MailConfig selects and configures the digest transport.
type MailConfig struct {
	Driver         string
	FromAddress    string
	FromName       string
	SendTimeout    time.Duration
	SMTP           SMTPConfig
	SendGridAPIKey string
	DashboardURL   string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	// TLS selects implicit TLS; otherwise STARTTLS is used when the server offers it.
	TLS bool
}

// NotifyConfig controls the daily notification run.
type NotifyConfig struct {
	Enabled    bool
	Schedule   string
	Timezone   string
	Workers    int
	RunTimeout time.Duration
	// OperatorToken guards the HTTP run-control routes; empty disables them.
	OperatorToken string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "Student Life Organizer"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
			EnablePprof:  getBool("SERVER_ENABLE_PPROF", false),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "studytracker"),
			User:            getString("DB_USER", "studytracker"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
			ConnectAttempts: getInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:  getDuration("DB_CONNECT_BACKOFF", 2*time.Second),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "studytracker"),
			SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/buffer.db"),
			MaxSize:        getInt("BUFFER_MAX_SIZE", 1_000_000),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    os.Getenv("MIGRATIONS_PATH"),
		},
		Mail: MailConfig{
			Driver:      getString("MAIL_DRIVER", "log"),
			FromAddress: getString("MAIL_FROM_ADDRESS", "noreply@studytracker.local"),
			FromName:    getString("MAIL_FROM_NAME", "Student Life Organizer"),
			SendTimeout: getDuration("MAIL_SEND_TIMEOUT", 15*time.Second),
			SMTP: SMTPConfig{
				Host:     os.Getenv("SMTP_HOST"),
				Port:     getString("SMTP_PORT", "587"),
				Username: os.Getenv("SMTP_USERNAME"),
				Password: os.Getenv("SMTP_PASSWORD"),
				TLS:      getBool("SMTP_TLS", false),
			},
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			DashboardURL:   getString("DASHBOARD_URL", "http://127.0.0.1:8080"),
		},
		Notify: NotifyConfig{
			Enabled:       getBool("NOTIFY_ENABLED", true),
			Schedule:      getString("NOTIFY_SCHEDULE", "0 0 8 * * *"),
			Timezone:      getString("NOTIFY_TIMEZONE", "UTC"),
			Workers:       getInt("NOTIFY_WORKERS", 4),
			RunTimeout:    getDuration("NOTIFY_RUN_TIMEOUT", 10*time.Minute),
			OperatorToken: os.Getenv("NOTIFY_OPERATOR_TOKEN"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.DSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the notification pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mail.Driver {
	case "log", "smtp", "sendgrid":
	default:
		errs = append(errs, fmt.Errorf("MAIL_DRIVER: unknown driver %q", c.Mail.Driver))
	}
	if c.Mail.Driver == "smtp" && c.Mail.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST: required for the smtp driver"))
	}
	if c.Mail.Driver == "sendgrid" && c.Mail.SendGridAPIKey == "" {
		errs = append(errs, errors.New("SENDGRID_API_KEY: required for the sendgrid driver"))
	}
	if c.Notify.Workers <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_WORKERS: must be positive, got %d", c.Notify.Workers))
	}
	if _, err := c.Notify.Location(); err != nil {
		errs = append(errs, fmt.Errorf("NOTIFY_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves the timezone notification runs use to decide "today".
func (n NotifyConfig) Location() (*time.Location, error) {
	if n.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(n.Timezone)
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// DSN returns URL when set, otherwise a connection string built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
