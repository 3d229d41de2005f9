package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yml"

type AppConfig struct {
	Port            int    `yaml:"port"`
	GinMode         string `yaml:"gin_mode"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	LockTTL  string `yaml:"lock_ttl"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	AccessTTL string `yaml:"access_ttl"`
}

type OTPConfig struct {
	TTL         string `yaml:"ttl"`
	Length      int    `yaml:"length"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type GoogleConfig struct {
	ClientID string   `yaml:"client_id"`
	Issuers  []string `yaml:"issuers"`
}

type EmailConfig struct {
	SMTPHost   string `yaml:"smtp_host"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Sender     string `yaml:"sender"`
	Workers    int    `yaml:"workers"`
	QueueSize  int    `yaml:"queue_size"`
	MaxRetries int    `yaml:"max_retries"`
}

type AccountsConfig struct {
	LinkProviderByEmail *bool `yaml:"link_provider_by_email"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Google   GoogleConfig   `yaml:"google"`
	Email    EmailConfig    `yaml:"email"`
	Accounts AccountsConfig `yaml:"accounts"`
	Log      LogConfig      `yaml:"log"`
}

type Config struct {
	Port                string
	GinMode             string
	ShutdownTimeout     time.Duration
	DBDriver            string
	DSN                 string
	RedisEnabled        bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	LockTTL             time.Duration
	JWTSecret           string
	JWTIssuer           string
	AccessTTL           time.Duration
	OTP_TTL             time.Duration
	OTP_Length          int
	OTP_MaxAttempts     int
	GoogleClientID      string
	GoogleIssuers       []string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailSender         string
	EmailWorkers        int
	EmailQueueSize      int
	EmailMaxRetries     int
	LinkProviderByEmail bool
	LogLevel            string
	LogFormat           string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads .env (if present), the YAML config file (if present) and
// environment overrides, in that order of increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(env("CONFIG_PATH", defaultConfigPath))
}

// LoadFrom builds a Config from the given YAML path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	file := defaults()
	if err := loadConfigFile(path, file); err != nil {
		return nil, err
	}
	applyEnv(file)
	return build(file)
}

func defaults() *ConfigFile {
	link := true
	return &ConfigFile{
		App:      AppConfig{Port: 8000, GinMode: "release", ShutdownTimeout: "10s"},
		Database: DatabaseConfig{Driver: "postgres"},
		Redis:    RedisConfig{Addr: "localhost:6379", LockTTL: "5s"},
		JWT:      JWTConfig{Issuer: "otpauth", AccessTTL: "30m"},
		OTP:      OTPConfig{TTL: "120s", Length: 6, MaxAttempts: 5},
		Google:   GoogleConfig{Issuers: []string{"accounts.google.com", "https://accounts.google.com"}},
		Email:    EmailConfig{SMTPPort: 587, Workers: 2, QueueSize: 256, MaxRetries: 3},
		Accounts: AccountsConfig{LinkProviderByEmail: &link},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func loadConfigFile(path string, into *ConfigFile) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func applyEnv(f *ConfigFile) {
	f.App.Port = atoi(env("PORT", strconv.Itoa(f.App.Port)), f.App.Port)
	f.App.GinMode = env("GIN_MODE", f.App.GinMode)
	f.Database.Driver = env("DATABASE_DRIVER", f.Database.Driver)
	f.Database.DSN = env("DATABASE_DSN", f.Database.DSN)
	f.Redis.Enabled = env("REDIS_ENABLED", strconv.FormatBool(f.Redis.Enabled)) == "true"
	f.Redis.Addr = env("REDIS_ADDR", f.Redis.Addr)
	f.Redis.Password = env("REDIS_PASSWORD", f.Redis.Password)
	f.Redis.DB = atoi(env("REDIS_DB", strconv.Itoa(f.Redis.DB)), f.Redis.DB)
	f.JWT.Secret = env("JWT_SECRET", f.JWT.Secret)
	f.JWT.Issuer = env("JWT_ISSUER", f.JWT.Issuer)
	f.JWT.AccessTTL = env("JWT_ACCESS_TTL", f.JWT.AccessTTL)
	f.OTP.TTL = env("OTP_TTL", f.OTP.TTL)
	f.Google.ClientID = env("GOOGLE_CLIENT_ID", f.Google.ClientID)
	f.Email.SMTPHost = env("SMTP_HOST", f.Email.SMTPHost)
	f.Email.SMTPPort = atoi(env("SMTP_PORT", strconv.Itoa(f.Email.SMTPPort)), f.Email.SMTPPort)
	f.Email.Username = env("SMTP_USERNAME", f.Email.Username)
	f.Email.Password = env("SMTP_PASSWORD", f.Email.Password)
	f.Email.Sender = env("SENDER_EMAIL", f.Email.Sender)
	if v := os.Getenv("LINK_PROVIDER_BY_EMAIL"); v != "" {
		link := v == "true"
		f.Accounts.LinkProviderByEmail = &link
	}
	f.Log.Level = env("LOG_LEVEL", f.Log.Level)
	f.Log.Format = env("LOG_FORMAT", f.Log.Format)
}

func build(f *ConfigFile) (*Config, error) {
	shutdown, err := time.ParseDuration(f.App.ShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	accTTL, err := time.ParseDuration(f.JWT.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}

	otpTTL, err := time.ParseDuration(f.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	lockTTL, err := time.ParseDuration(f.Redis.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis lock TTL: %w", err)
	}

	link := true
	if f.Accounts.LinkProviderByEmail != nil {
		link = *f.Accounts.LinkProviderByEmail
	}

	cfg := &Config{
		Port:                strconv.Itoa(f.App.Port),
		GinMode:             f.App.GinMode,
		ShutdownTimeout:     shutdown,
		DBDriver:            strings.ToLower(f.Database.Driver),
		DSN:                 f.Database.DSN,
		RedisEnabled:        f.Redis.Enabled,
		RedisAddr:           f.Redis.Addr,
		RedisPassword:       f.Redis.Password,
		RedisDB:             f.Redis.DB,
		LockTTL:             lockTTL,
		JWTSecret:           f.JWT.Secret,
		JWTIssuer:           f.JWT.Issuer,
		AccessTTL:           accTTL,
		OTP_TTL:             otpTTL,
		OTP_Length:          f.OTP.Length,
		OTP_MaxAttempts:     f.OTP.MaxAttempts,
		GoogleClientID:      f.Google.ClientID,
		GoogleIssuers:       f.Google.Issuers,
		SMTPHost:            f.Email.SMTPHost,
		SMTPPort:            f.Email.SMTPPort,
		SMTPUsername:        f.Email.Username,
		SMTPPassword:        f.Email.Password,
		EmailSender:         f.Email.Sender,
		EmailWorkers:        f.Email.Workers,
		EmailQueueSize:      f.Email.QueueSize,
		EmailMaxRetries:     f.Email.MaxRetries,
		LinkProviderByEmail: link,
		LogLevel:            f.Log.Level,
		LogFormat:           f.Log.Format,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run safely with
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("jwt access TTL must be positive"))
	}
	if c.OTP_TTL <= 0 {
		errs = append(errs, errors.New("otp TTL must be positive"))
	}
	if c.OTP_Length < 4 || c.OTP_Length > 10 {
		errs = append(errs, fmt.Errorf("otp length must be between 4 and 10, got %d", c.OTP_Length))
	}
	if c.OTP_MaxAttempts < 1 {
		errs = append(errs, errors.New("otp max attempts must be at least 1"))
	}
	switch c.DBDriver {
	case "memory":
	case "postgres", "sqlite":
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("database dsn is required for driver %s", c.DBDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %s", c.DBDriver))
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, errors.New("redis addr is required when redis is enabled"))
	}
	if c.EmailWorkers < 1 {
		errs = append(errs, errors.New("email workers must be at least 1"))
	}

	return errors.Join(errs...)
}

func atoi(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
