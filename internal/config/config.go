package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	LeadsDB   LeadsDBConfig
	RabbitMQ  RabbitMQConfig
	Twilio    TwilioConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Timezone  string
	Env       string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	WebhookBaseURL string
}

// DatabaseConfig holds PostgreSQL configuration for the dashboard database
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// LeadsDBConfig holds the connection string for the external leads database.
// Contacts are queried live from this database and never copied locally.
type LeadsDBConfig struct {
	URL string
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// TwilioConfig holds SMS provider credentials
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// Simulate skips the provider and fakes sends (development only)
	Simulate bool
}

// AuthConfig holds JWT signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// SchedulerConfig holds polling intervals for the background engine
type SchedulerConfig struct {
	BulkPollInterval     time.Duration
	CampaignPollInterval time.Duration
	FollowupPollInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "smsoutreach"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "smsoutreach_db"),
		},
		LeadsDB: LeadsDBConfig{
			URL: getEnv("LEADS_DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_DEFAULT_USER", "guest"),
			Password: getEnv("RABBITMQ_DEFAULT_PASS", "guest"),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
			Simulate:   getEnvAsBool("TWILIO_SIMULATE", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-key"),
			TokenTTL:  time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Scheduler: SchedulerConfig{
			BulkPollInterval:     time.Duration(getEnvAsInt("BULK_POLL_SECONDS", 30)) * time.Second,
			CampaignPollInterval: time.Duration(getEnvAsInt("CAMPAIGN_POLL_SECONDS", 60)) * time.Second,
			FollowupPollInterval: time.Duration(getEnvAsInt("FOLLOWUP_POLL_SECONDS", 60)) * time.Second,
		},
		Timezone: getEnv("DASHBOARD_TIMEZONE", "America/New_York"),
		Env:      getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if !config.Twilio.Simulate && config.Twilio.AccountSID == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID is required unless TWILIO_SIMULATE=true")
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string for the dashboard database
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetRabbitMQURL returns RabbitMQ connection URL
func (c *Config) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}

// Location resolves the dashboard timezone. All send-time-of-day comparisons
// and template date/time substitution use this fixed zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean or returns default
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
