package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	RingCentral   RingCentralConfig   `mapstructure:"ringcentral"`
	Discord       DiscordConfig       `mapstructure:"discord"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
}

// RingCentralConfig holds the provider connection and credentials
type RingCentralConfig struct {
	Server         string `mapstructure:"server"`
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	JWT            string `mapstructure:"jwt"`
	AccountID      string `mapstructure:"account_id"`
	ExtensionID    string `mapstructure:"extension_id"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DiscordConfig holds the notification webhook
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// SchedulerConfig holds polling configuration
type SchedulerConfig struct {
	PollSeconds int `mapstructure:"poll_seconds"`
	PerPage     int `mapstructure:"per_page"`
	MaxPages    int `mapstructure:"max_pages"`
	DaysBack    int `mapstructure:"days_back"`
}

// TranscriptionConfig controls how long we wait for a transcription to appear
type TranscriptionConfig struct {
	Retries      int `mapstructure:"retries"`
	DelaySeconds int `mapstructure:"delay_seconds"`
}

// ServerConfig holds admin HTTP server configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the optional delivery log database
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps configuration keys to the environment variables that set them
var envBindings = []struct {
	key string
	env string
}{
	{"ringcentral.server", "RC_SERVER"},
	{"ringcentral.client_id", "RC_CLIENT_ID"},
	{"ringcentral.client_secret", "RC_CLIENT_SECRET"},
	{"ringcentral.jwt", "RC_JWT"},
	{"ringcentral.account_id", "RC_ACCOUNT_ID"},
	{"ringcentral.extension_id", "RC_EXTENSION_ID"},
	{"ringcentral.timeout_seconds", "HTTP_TIMEOUT_SECONDS"},

	{"discord.webhook_url", "DISCORD_WEBHOOK_URL"},

	{"scheduler.poll_seconds", "POLL_SECONDS"},
	{"scheduler.per_page", "PER_PAGE"},
	{"scheduler.max_pages", "MAX_PAGES"},
	{"scheduler.days_back", "DAYS_BACK"},

	{"transcription.retries", "TRANSCRIPTION_RETRIES"},
	{"transcription.delay_seconds", "TRANSCRIPTION_DELAY_SECONDS"},

	{"server.enabled", "SERVER_ENABLED"},
	{"server.port", "SERVER_PORT"},
	{"server.read_timeout", "SERVER_READ_TIMEOUT"},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT"},

	{"database.enabled", "DB_ENABLED"},
	{"database.host", "DB_HOST"},
	{"database.port", "DB_PORT"},
	{"database.user", "DB_USER"},
	{"database.password", "DB_PASSWORD"},
	{"database.dbname", "DB_NAME"},

	{"log.level", "LOG_LEVEL"},
	{"log.format", "LOG_FORMAT"},
}

// LoadConfig loads configuration from a .env file, config.yaml and the environment.
// Environment variables win over the config file.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.RingCentral.Server = strings.TrimRight(strings.TrimSpace(cfg.RingCentral.Server), "/")
	return &cfg, nil
}

// loadDotEnv populates the process environment from path when it exists.
// Variables already set in the environment are left alone.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ringcentral.server", "https://platform.ringcentral.com")
	v.SetDefault("ringcentral.account_id", "~")
	v.SetDefault("ringcentral.timeout_seconds", 30)

	v.SetDefault("scheduler.poll_seconds", 60)
	v.SetDefault("scheduler.per_page", 50)
	v.SetDefault("scheduler.max_pages", 10)
	v.SetDefault("scheduler.days_back", 14)

	v.SetDefault("transcription.retries", 6)
	v.SetDefault("transcription.delay_seconds", 2)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars(v *viper.Viper) error {
	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.env, err)
		}
	}
	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// PollInterval is the delay between polling cycles
func (c *SchedulerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// Lookback is the window before start-up used as the listing lower bound
func (c *SchedulerConfig) Lookback() time.Duration {
	return time.Duration(c.DaysBack) * 24 * time.Hour
}

// Delay is the wait between transcription lookups
func (c *TranscriptionConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

// Timeout is the per-call timeout for provider requests
func (c *RingCentralConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var missing []string
	require := func(value, env string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}

	require(c.RingCentral.ClientID, "RC_CLIENT_ID")
	require(c.RingCentral.ClientSecret, "RC_CLIENT_SECRET")
	require(c.RingCentral.JWT, "RC_JWT")
	require(c.RingCentral.ExtensionID, "RC_EXTENSION_ID")
	require(c.Discord.WebhookURL, "DISCORD_WEBHOOK_URL")
	if c.Database.Enabled {
		require(c.Database.Host, "DB_HOST")
		require(c.Database.User, "DB_USER")
		require(c.Database.DBName, "DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if c.RingCentral.Server == "" {
		return fmt.Errorf("RC_SERVER must not be empty")
	}
	if c.RingCentral.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.Scheduler.PollSeconds <= 0 {
		return fmt.Errorf("POLL_SECONDS must be greater than 0")
	}
	if c.Scheduler.PerPage <= 0 {
		return fmt.Errorf("PER_PAGE must be greater than 0")
	}
	if c.Scheduler.MaxPages <= 0 {
		return fmt.Errorf("MAX_PAGES must be greater than 0")
	}
	if c.Scheduler.DaysBack < 0 {
		return fmt.Errorf("DAYS_BACK must not be negative")
	}
	if c.Transcription.Retries <= 0 {
		return fmt.Errorf("TRANSCRIPTION_RETRIES must be greater than 0")
	}
	if c.Transcription.DelaySeconds < 0 {
		return fmt.Errorf("TRANSCRIPTION_DELAY_SECONDS must not be negative")
	}
	if c.Server.Enabled && c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required when the admin server is enabled")
	}

	return nil
}
