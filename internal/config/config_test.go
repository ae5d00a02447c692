package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_PROJECT_ID", "jyotai-test")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_test_secret")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "whsec")
	t.Setenv("BASE_URL", "https://www.jyoti.app///")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://www.jyoti.app", cfg.BaseURL)
	assert.Equal(t, cfg.BaseURL, cfg.ClientURL)
	assert.Equal(t, "session", cfg.SessionCookieName)
	assert.Equal(t, 120*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.StandardCredits)
	assert.Equal(t, 20, cfg.PremiumMonthlyLimit)
	assert.Equal(t, 720*time.Hour, cfg.PremiumDuration)
	assert.Equal(t, int64(49900), cfg.DefaultOrderAmount)
	assert.Equal(t, 5, cfg.MagicLinkRateLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Empty(t, cfg.TrustedProxies)
	assert.False(t, cfg.IsRelease())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GIN_MODE", "release")
	t.Setenv("PREMIUM_MONTHLY_LIMIT", "30")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("SESSION_COOKIE_NAME", "__session")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsRelease())
	assert.Equal(t, 30, cfg.PremiumMonthlyLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "__session", cfg.SessionCookieName)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
}

func TestLoadConfigRequiresKeys(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{name: "project", unset: "FIREBASE_PROJECT_ID", wantErr: "FIREBASE_PROJECT_ID"},
		{name: "razorpay key", unset: "RAZORPAY_KEY_ID", wantErr: "RAZORPAY_KEY_ID"},
		{name: "webhook secret", unset: "RAZORPAY_WEBHOOK_SECRET", wantErr: "RAZORPAY_WEBHOOK_SECRET"},
		{name: "base url", unset: "BASE_URL", wantErr: "BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
