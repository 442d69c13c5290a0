package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	// Privileged/server-only store credentials. Either a credentials file path
	// or a base64 service account JSON. Absence is not fatal at load time: the
	// server starts and the store-backed endpoints answer with explicit errors.
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	ClientURL string `mapstructure:"CLIENT_URL"`

	// Public endpoint settings consumed by the session client.
	APIBaseURL   string `mapstructure:"API_BASE_URL"`
	APIPublicKey string `mapstructure:"API_PUBLIC_KEY"`

	// Optional profile cache.
	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Optional domain-event queue.
	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue string `mapstructure:"RABBITMQ_QUEUE"`

	// Optional welcome mail.
	SMTPUser   string `mapstructure:"SMTP_USER"`
	SMTPPass   string `mapstructure:"SMTP_PASS"`
	MailSender string `mapstructure:"MAIL_SENDER"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("RABBITMQ_QUEUE", "voicenotes.events")

	for _, key := range []string{
		"PORT",
		"GIN_MODE",
		"FIREBASE_PROJECT_ID",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"CLIENT_URL",
		"API_BASE_URL",
		"API_PUBLIC_KEY",
		"REDIS_ADDRESS",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"RABBITMQ_URL",
		"RABBITMQ_QUEUE",
		"SMTP_USER",
		"SMTP_PASS",
		"MAIL_SENDER",
	} {
		viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	return &cfg, nil
}

// StoreConfigured reports whether a privileged store credential is present.
// Without one the server still starts, but every store-backed endpoint fails
// with an explicit initialization error.
func (c *Config) StoreConfigured() bool {
	return c.GoogleApplicationCredentials != "" || c.FirebaseServiceAccountJSONBase64 != ""
}

// MailConfigured reports whether the welcome-mail sender can be used.
func (c *Config) MailConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != "" && c.MailSender != ""
}
