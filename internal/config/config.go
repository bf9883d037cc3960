package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the setup command
type Config struct {
	OAuth  OAuthConfig  `mapstructure:"oauth"`
	Sheets SheetsConfig `mapstructure:"sheets"`
	Log    LogConfig    `mapstructure:"log"`
}

// OAuthConfig holds the installed-app OAuth2 settings
type OAuthConfig struct {
	ClientSecretFile string `mapstructure:"client_secret_file"`
	TokenFile        string `mapstructure:"token_file"`
	CallbackHost     string `mapstructure:"callback_host"`
	CallbackPort     int    `mapstructure:"callback_port"`
	OpenBrowser      bool   `mapstructure:"open_browser"`
}

// SheetsConfig holds spreadsheet provisioning settings
type SheetsConfig struct {
	Title      string `mapstructure:"title"`
	ConfigFile string `mapstructure:"config_file"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from environment variables and an optional config file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("setup")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("oauth.client_secret_file", "client_secret.json")
	v.SetDefault("oauth.token_file", "token.json")
	v.SetDefault("oauth.callback_host", "localhost")
	v.SetDefault("oauth.callback_port", 0)
	v.SetDefault("oauth.open_browser", true)

	v.SetDefault("sheets.title", "Workout App Database")
	v.SetDefault("sheets.config_file", "sheets_config.json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func bindEnvVars(v *viper.Viper) {
	// OAuth
	v.BindEnv("oauth.client_secret_file", "GOOGLE_CLIENT_SECRET_FILE")
	v.BindEnv("oauth.token_file", "GOOGLE_TOKEN_FILE")
	v.BindEnv("oauth.callback_host", "OAUTH_CALLBACK_HOST")
	v.BindEnv("oauth.callback_port", "OAUTH_CALLBACK_PORT")
	v.BindEnv("oauth.open_browser", "OAUTH_OPEN_BROWSER")

	// Sheets
	v.BindEnv("sheets.title", "SHEETS_TITLE")
	v.BindEnv("sheets.config_file", "SHEETS_CONFIG_FILE")

	// Logging
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OAuth.ClientSecretFile == "" || c.OAuth.TokenFile == "" {
		return fmt.Errorf("client secret file and token file are required")
	}

	if c.OAuth.CallbackPort < 0 || c.OAuth.CallbackPort > 65535 {
		return fmt.Errorf("callback port %d is out of range", c.OAuth.CallbackPort)
	}

	if c.Sheets.Title == "" {
		return fmt.Errorf("spreadsheet title is required")
	}

	if c.Sheets.ConfigFile == "" {
		return fmt.Errorf("spreadsheet config file is required")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// ConfigureLogging applies the log settings to the standard logrus logger
func (c *LogConfig) ConfigureLogging() {
	if c.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
