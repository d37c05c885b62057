package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admission AdmissionConfig `mapstructure:"admission"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// AdmissionConfig holds workflow policy configuration
type AdmissionConfig struct {
	MinRegistrationFee float64 `mapstructure:"min_registration_fee"`
	MaxRegistrationFee float64 `mapstructure:"max_registration_fee"`
	UniversityName     string  `mapstructure:"university_name"`
	StudentEmailDomain string  `mapstructure:"student_email_domain"`
	WebhookAPIKey      string  `mapstructure:"webhook_api_key"`
}

// SMTPConfig holds mail relay configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

// DocumentsConfig holds acceptance document generation configuration
type DocumentsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// OutboxConfig holds outbox dispatcher configuration
type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/admission.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.busy_timeout", 5*time.Second)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Admission defaults
	viper.SetDefault("admission.min_registration_fee", 100.0)
	viper.SetDefault("admission.max_registration_fee", 10000.0)
	viper.SetDefault("admission.university_name", "Vertex University")
	viper.SetDefault("admission.student_email_domain", "student.vertexuniv.edu")

	// SMTP defaults
	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "admissions@vertexuniv.edu")
	viper.SetDefault("smtp.from_name", "Admissions Office")

	// Documents defaults
	viper.SetDefault("documents.output_dir", "generated_documents")

	// Outbox defaults
	viper.SetDefault("outbox.poll_interval", 5*time.Second)
	viper.SetDefault("outbox.batch_size", 20)
	viper.SetDefault("outbox.max_attempts", 5)
	viper.SetDefault("outbox.retry_backoff", 30*time.Second)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("admission.webhook_api_key", "ADMISSION_WEBHOOK_API_KEY")
	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.username", "SMTP_USERNAME")
	viper.BindEnv("smtp.password", "SMTP_PASSWORD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Admission.WebhookAPIKey == "" {
		return fmt.Errorf("admission.webhook_api_key is required")
	}
	if c.Admission.StudentEmailDomain == "" {
		return fmt.Errorf("admission.student_email_domain is required")
	}
	if c.Admission.MinRegistrationFee < 0 {
		return fmt.Errorf("admission.min_registration_fee must not be negative")
	}
	if c.Admission.MaxRegistrationFee > 0 && c.Admission.MaxRegistrationFee < c.Admission.MinRegistrationFee {
		return fmt.Errorf("admission.max_registration_fee must not be below the minimum")
	}
	if c.SMTP.From == "" {
		return fmt.Errorf("smtp.from is required")
	}
	return nil
}
