package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string `mapstructure:"PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	RazorpayKeyID         string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayWebhookSecret string `mapstructure:"RAZORPAY_WEBHOOK_SECRET"`

	ZeptoAPIURL   string `mapstructure:"ZEPTO_API_URL"`
	ZeptoAPIToken string `mapstructure:"ZEPTO_API_TOKEN"`
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUser      string `mapstructure:"SMTP_USER"`
	SMTPPass      string `mapstructure:"SMTP_PASS"`
	SenderEmail   string `mapstructure:"SENDER_EMAIL"`
	SenderName    string `mapstructure:"SENDER_NAME"`
	SupportEmail  string `mapstructure:"SUPPORT_EMAIL"`

	BaseURL   string `mapstructure:"BASE_URL"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	AdminSetupSecret  string        `mapstructure:"ADMIN_SETUP_SECRET"`
	AdminVerifyURL    string        `mapstructure:"ADMIN_VERIFY_URL"`

	CronSecret     string `mapstructure:"CRON_SECRET"`
	BrainHealthURL string `mapstructure:"BRAIN_HEALTH_URL"`

	RedisURL string `mapstructure:"REDIS_URL"`

	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding headers are believed.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	StandardCredits      int           `mapstructure:"STANDARD_CREDITS"`
	PremiumMonthlyLimit  int           `mapstructure:"PREMIUM_MONTHLY_LIMIT"`
	PremiumDuration      time.Duration `mapstructure:"PREMIUM_DURATION"`
	ReferralBonusCredits int           `mapstructure:"REFERRAL_BONUS_CREDITS"`
	DefaultOrderAmount   int64         `mapstructure:"DEFAULT_ORDER_AMOUNT"`
	MinOrderAmount       int64         `mapstructure:"MIN_ORDER_AMOUNT"`
	OrderCurrency        string        `mapstructure:"ORDER_CURRENCY"`

	MagicLinkRateLimit int           `mapstructure:"MAGIC_LINK_RATE_LIMIT"`
	OrderRateLimit     int           `mapstructure:"ORDER_RATE_LIMIT"`
	RateLimitWindow    time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
}

var defaults = map[string]interface{}{
	"PORT":                   "8080",
	"GIN_MODE":               "debug",
	"LOG_LEVEL":              "info",
	"ZEPTO_API_URL":          "https://api.zeptomail.in/",
	"SMTP_PORT":              587,
	"SENDER_EMAIL":           "order@jyoti.app",
	"SENDER_NAME":            "JyotAI",
	"SUPPORT_EMAIL":          "support@jyoti.app",
	"SESSION_COOKIE_NAME":    "session",
	"SESSION_TTL":            "120h",
	"BRAIN_HEALTH_URL":       "https://jyotai-ai-brain.onrender.com/health",
	"STANDARD_CREDITS":       3,
	"PREMIUM_MONTHLY_LIMIT":  20,
	"PREMIUM_DURATION":       "720h",
	"REFERRAL_BONUS_CREDITS": 1,
	"DEFAULT_ORDER_AMOUNT":   49900,
	"MIN_ORDER_AMOUNT":       100,
	"ORDER_CURRENCY":         "INR",
	"MAGIC_LINK_RATE_LIMIT":  5,
	"ORDER_RATE_LIMIT":       10,
	"RATE_LIMIT_WINDOW":      "1m",
}

// optional keys that have no default but must still be bound for AutomaticEnv + Unmarshal.
var optional = []string{
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"RAZORPAY_KEY_ID",
	"RAZORPAY_KEY_SECRET",
	"RAZORPAY_WEBHOOK_SECRET",
	"ZEPTO_API_TOKEN",
	"SMTP_HOST",
	"SMTP_USER",
	"SMTP_PASS",
	"BASE_URL",
	"CLIENT_URL",
	"ADMIN_SETUP_SECRET",
	"ADMIN_VERIFY_URL",
	"CRON_SECRET",
	"REDIS_URL",
	"TRUSTED_PROXIES",
}

// LoadConfig loads configuration from environment variables using Viper.
// When CONFIG_FILE is set, the named YAML file is read first and the environment overrides it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range optional {
		_ = v.BindEnv(key)
	}

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ClientURL == "" {
		cfg.ClientURL = cfg.BaseURL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	if c.RazorpayWebhookSecret == "" {
		return errors.New("RAZORPAY_WEBHOOK_SECRET is required")
	}
	if c.BaseURL == "" {
		return errors.New("BASE_URL is required")
	}
	if c.StandardCredits < 0 || c.PremiumMonthlyLimit <= 0 {
		return errors.New("STANDARD_CREDITS must be >= 0 and PREMIUM_MONTHLY_LIMIT must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
