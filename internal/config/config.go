package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gigbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Booking    BookingConfig    `yaml:"booking"`
	Backup     BackupConfig     `yaml:"backup"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// PublicURL is used to build links in notification emails.
	PublicURL string `yaml:"public_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type AuthConfig struct {
	Issuer     string `yaml:"issuer"`
	ClientID   string `yaml:"client_id"`
	RoleClaim  string `yaml:"role_claim"`
	CookieName string `yaml:"cookie_name"`
	// DefaultRole is assigned to first-time users whose token carries no role claim.
	DefaultRole string     `yaml:"default_role"`
	DevTokens   []DevToken `yaml:"dev_tokens"`
}

// DevToken maps a static bearer token to an identity. Only honoured outside production.
type DevToken struct {
	Token string `yaml:"token"`
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type KafkaConfig struct {
	Enabled bool          `yaml:"enabled"`
	Brokers []string      `yaml:"brokers"`
	Topic   string        `yaml:"topic"`
	Timeout time.Duration `yaml:"timeout"`
}

type SMTPConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
}

// Enabled reports whether outbound mail is configured. Without it notifications are only logged.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

type BookingConfig struct {
	// MaxHours caps a single booking request.
	MaxHours float64 `yaml:"max_hours"`
}

type BackupConfig struct {
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML file at configPath after loading an optional .env file.
// ${VAR} references in the YAML are expanded from the environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Auth.Issuer == "" && len(c.Auth.DevTokens) == 0 {
		return errors.New("auth.issuer or auth.dev_tokens is required")
	}
	if c.Auth.Issuer != "" && c.Auth.ClientID == "" {
		return errors.New("auth.client_id is required when auth.issuer is set")
	}
	if c.IsProduction() && len(c.Auth.DevTokens) > 0 {
		return errors.New("auth.dev_tokens are not allowed in production")
	}
	if !models.ValidRole(c.Auth.DefaultRole) {
		return fmt.Errorf("auth.default_role %q is not a valid role", c.Auth.DefaultRole)
	}
	seen := make(map[string]bool)
	for _, t := range c.Auth.DevTokens {
		if t.Token == "" || t.Email == "" {
			return errors.New("dev token requires token and email")
		}
		if seen[t.Token] {
			return fmt.Errorf("duplicate dev token for %s", t.Email)
		}
		seen[t.Token] = true
		if t.Role != "" && !models.ValidRole(t.Role) {
			return fmt.Errorf("dev token for %s has invalid role %q", t.Email, t.Role)
		}
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	if c.SMTP.Enabled() && c.SMTP.From == "" {
		return errors.New("smtp.from is required when smtp.host is set")
	}
	if c.Booking.MaxHours <= 0 {
		return errors.New("booking.max_hours must be positive")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "gigbook"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Auth.RoleClaim == "" {
		c.Auth.RoleClaim = "role"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "gigbook_session"
	}
	if c.Auth.DefaultRole == "" {
		c.Auth.DefaultRole = models.RoleVenue
	}

	if c.Kafka.Timeout == 0 {
		c.Kafka.Timeout = 5 * time.Second
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.Timeout == 0 {
		c.SMTP.Timeout = 10 * time.Second
	}
	if c.SMTP.Retries == 0 {
		c.SMTP.Retries = 2
	}

	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 120
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Booking.MaxHours == 0 {
		c.Booking.MaxHours = 24
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
