package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	StoreDriver       string `mapstructure:"STORE_DRIVER"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr                string `mapstructure:"REDIS_ADDR"`
	RedisPassword            string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB             int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB              int    `mapstructure:"REDIS_LOCK_DB"`
	RedisNotificationQueueDB int    `mapstructure:"REDIS_NOTIFICATION_QUEUE_DB"`

	// External collaborators.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	StripeKey               string `mapstructure:"STRIPE_KEY"`

	// Booking request lifecycle.
	RequestTTL          time.Duration `mapstructure:"REQUEST_TTL"`
	AutoBookWindow      time.Duration `mapstructure:"AUTO_BOOK_WINDOW"`
	ClientConfirmWindow time.Duration `mapstructure:"CLIENT_CONFIRM_WINDOW"`
	SweepInterval       time.Duration `mapstructure:"SWEEP_INTERVAL"`

	// Late arrival risk.
	RiskPollInterval  time.Duration `mapstructure:"RISK_POLL_INTERVAL"`
	RiskLookahead     time.Duration `mapstructure:"RISK_LOOKAHEAD"`
	RiskWaitCooldown  time.Duration `mapstructure:"RISK_WAIT_COOLDOWN"`
	RiskAlertDedupTTL time.Duration `mapstructure:"RISK_ALERT_DEDUP_TTL"`

	// Work status alerts.
	WorkAlertInterval time.Duration `mapstructure:"WORK_ALERT_INTERVAL"`
	WorkAlertLead     time.Duration `mapstructure:"WORK_ALERT_LEAD"`

	MitigationLeaseTTL time.Duration `mapstructure:"MITIGATION_LEASE_TTL"`
}

var AppConfig Config

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "glowbook")
	viper.SetDefault("STORE_DRIVER", "mongo")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_NOTIFICATION_QUEUE_DB", 2)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("STRIPE_KEY", "")

	viper.SetDefault("REQUEST_TTL", "30m")
	viper.SetDefault("AUTO_BOOK_WINDOW", "5m")
	viper.SetDefault("CLIENT_CONFIRM_WINDOW", "15m")
	viper.SetDefault("SWEEP_INTERVAL", "15s")

	viper.SetDefault("RISK_POLL_INTERVAL", "30s")
	viper.SetDefault("RISK_LOOKAHEAD", "3h")
	viper.SetDefault("RISK_WAIT_COOLDOWN", "30s")
	viper.SetDefault("RISK_ALERT_DEDUP_TTL", "10m")

	viper.SetDefault("WORK_ALERT_INTERVAL", "30s")
	viper.SetDefault("WORK_ALERT_LEAD", "15m")

	viper.SetDefault("MITIGATION_LEASE_TTL", "2m")
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
}

// Validate rejects timing combinations the booking request lifecycle cannot honour.
func (c Config) Validate() error {
	if c.AutoBookWindow <= 0 || c.RequestTTL <= 0 {
		return fmt.Errorf("REQUEST_TTL and AUTO_BOOK_WINDOW must be positive")
	}
	if c.AutoBookWindow >= c.RequestTTL {
		return fmt.Errorf("AUTO_BOOK_WINDOW (%s) must be shorter than REQUEST_TTL (%s)", c.AutoBookWindow, c.RequestTTL)
	}
	if c.ClientConfirmWindow <= 0 {
		return fmt.Errorf("CLIENT_CONFIRM_WINDOW must be positive")
	}
	for name, d := range map[string]time.Duration{
		"SWEEP_INTERVAL":      c.SweepInterval,
		"RISK_POLL_INTERVAL":  c.RiskPollInterval,
		"WORK_ALERT_INTERVAL": c.WorkAlertInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
