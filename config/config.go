package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisStashDB         int    `mapstructure:"REDIS_STASH_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Payment gateway configuration.
	PaymentProvider  string `mapstructure:"PAYMENT_PROVIDER"` // "link" or "stripe"
	PaymentAPIBase   string `mapstructure:"PAYMENT_API_BASE"`
	PaymentClientID  string `mapstructure:"PAYMENT_CLIENT_ID"`
	PaymentAPIKey    string `mapstructure:"PAYMENT_API_KEY"`
	PaymentReturnURL string `mapstructure:"PAYMENT_RETURN_URL"`
	PaymentCancelURL string `mapstructure:"PAYMENT_CANCEL_URL"`
	StripeKey        string `mapstructure:"STRIPE_KEY"`
	PaymentCurrency  string `mapstructure:"PAYMENT_CURRENCY"`

	// Reconciliation timing (seconds).
	PollIntervalSeconds int `mapstructure:"POLL_INTERVAL_SECONDS"`
	PollTimeoutSeconds  int `mapstructure:"POLL_TIMEOUT_SECONDS"`

	// Session lifetimes (minutes).
	SessionTTLMinutes int `mapstructure:"SESSION_TTL_MINUTES"`
	StashTTLMinutes   int `mapstructure:"STASH_TTL_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_STASH_DB", 1)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinicbook")
	viper.SetDefault("PAYMENT_PROVIDER", "link")
	viper.SetDefault("PAYMENT_CURRENCY", "vnd")
	viper.SetDefault("POLL_INTERVAL_SECONDS", 2)
	viper.SetDefault("POLL_TIMEOUT_SECONDS", 120)
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("STASH_TTL_MINUTES", 15)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
