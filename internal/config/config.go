/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables with an
 * optional .env file, providing a centralized and straightforward way to
 * manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the commission-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	NotificationExchange      string `mapstructure:"NOTIFICATION_EXCHANGE"`
	NotificationQueue         string `mapstructure:"NOTIFICATION_QUEUE"`
	PaymentWebhookSecret      string `mapstructure:"PAYMENT_WEBHOOK_SECRET"`
	TelegramAPIBaseURL        string `mapstructure:"TELEGRAM_API_BASE_URL"`
	SaleTxMaxRetries          int    `mapstructure:"SALE_TX_MAX_RETRIES"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix      string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	WebhookRateLimitPerMinute int    `mapstructure:"WEBHOOK_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("NOTIFICATION_EXCHANGE", "commission.notifications")
	viper.SetDefault("NOTIFICATION_QUEUE", "commission_service.notification_tasks")
	viper.SetDefault("TELEGRAM_API_BASE_URL", "https://api.telegram.org")
	viper.SetDefault("SALE_TX_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "commission:rate_limit")
	viper.SetDefault("WEBHOOK_RATE_LIMIT_PER_MINUTE", 0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFICATION_EXCHANGE")
	_ = viper.BindEnv("NOTIFICATION_QUEUE")
	_ = viper.BindEnv("PAYMENT_WEBHOOK_SECRET", "PAYMENT_WEBHOOK_SECRET", "PAYMENT_WEBHOOK_TOKEN")
	_ = viper.BindEnv("TELEGRAM_API_BASE_URL")
	_ = viper.BindEnv("SALE_TX_MAX_RETRIES")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("WEBHOOK_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if config.SaleTxMaxRetries < 1 {
		config.SaleTxMaxRetries = 1
	}

	return
}
