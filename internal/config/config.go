// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	ApprovalAutoConfirm      = "auto_confirm"
	ApprovalRequiresApproval = "requires_approval"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingsConfig struct {
	// ApprovalPolicy is auto_confirm or requires_approval.
	ApprovalPolicy string `yaml:"approval_policy"`
	MaxExtensions  int    `yaml:"max_extensions"`
}

type SchedulerConfig struct {
	ExpiryInterval   time.Duration `yaml:"expiry_interval"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	ReminderLead     time.Duration `yaml:"reminder_lead"`
	WaitlistCleanup  string        `yaml:"waitlist_cleanup_cron"`
}

type NotificationsConfig struct {
	InboxEnabled bool `yaml:"inbox_enabled"`
	Email        struct {
		Enabled bool   `yaml:"enabled"`
		Region  string `yaml:"region"`
		Sender  string `yaml:"sender"`
	} `yaml:"email"`
	AMQP struct {
		Exchange string `yaml:"exchange"`
		URL      string `yaml:"-"` // Loaded from environment
	} `yaml:"amqp"`
}

// RateLimitConfig caps booking writes. A zero MaxPerUser disables limiting.
type RateLimitConfig struct {
	Window     time.Duration `yaml:"window"`
	MaxPerUser int           `yaml:"max_per_user"`
	MaxPerIP   int           `yaml:"max_per_ip"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		Timezone        string        `yaml:"timezone"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SecretKey       string        `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database      DatabaseConfig      `yaml:"database"`
	Bookings      BookingsConfig      `yaml:"bookings"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Notifications NotificationsConfig `yaml:"notifications"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

// Default returns the configuration used for any field the YAML file omits.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Environment = "development"
	cfg.App.Port = 8080
	cfg.App.Timezone = "Local"
	cfg.App.ShutdownTimeout = 10 * time.Second
	cfg.Database.Driver = "sqlite"
	cfg.Bookings.ApprovalPolicy = ApprovalRequiresApproval
	cfg.Bookings.MaxExtensions = 2
	cfg.Scheduler.ExpiryInterval = 60 * time.Second
	cfg.Scheduler.ReminderInterval = 30 * time.Second
	cfg.Scheduler.ReminderLead = 5 * time.Minute
	cfg.Scheduler.WaitlistCleanup = "*/15 * * * *"
	cfg.Notifications.InboxEnabled = true
	cfg.Notifications.AMQP.Exchange = "campusbook.events"
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.MaxPerUser = 30
	cfg.RateLimit.MaxPerIP = 120
	return cfg
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Notifications.AMQP.URL = os.Getenv("AMQP_URL")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML over Default. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Bookings.ApprovalPolicy {
	case ApprovalAutoConfirm, ApprovalRequiresApproval:
	default:
		return fmt.Errorf("unsupported approval policy: %s", c.Bookings.ApprovalPolicy)
	}
	if c.Bookings.MaxExtensions < 1 {
		return fmt.Errorf("max extensions must be at least 1")
	}

	if c.Scheduler.ExpiryInterval <= 0 {
		return fmt.Errorf("scheduler expiry interval must be positive")
	}
	if c.Scheduler.ReminderInterval <= 0 {
		return fmt.Errorf("scheduler reminder interval must be positive")
	}
	if c.Scheduler.ReminderLead <= 0 {
		return fmt.Errorf("scheduler reminder lead must be positive")
	}
	if _, err := cron.ParseStandard(c.Scheduler.WaitlistCleanup); err != nil {
		return fmt.Errorf("invalid waitlist cleanup cron %q: %w", c.Scheduler.WaitlistCleanup, err)
	}

	if c.Notifications.Email.Enabled {
		if c.Notifications.Email.Region == "" {
			return fmt.Errorf("email region is required when email is enabled")
		}
		if c.Notifications.Email.Sender == "" {
			return fmt.Errorf("email sender is required when email is enabled")
		}
	}
	if c.Notifications.AMQP.URL != "" && c.Notifications.AMQP.Exchange == "" {
		return fmt.Errorf("amqp exchange is required when AMQP_URL is set")
	}
	if c.RateLimit.MaxPerUser > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	return nil
}

// Location resolves the configured timezone. Booking dates and times are wall
// clock values in this zone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
