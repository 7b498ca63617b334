package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "store", cfg.OrderNumberStrategy)
	assert.Equal(t, 5, cfg.OrderNumberMaxAttempts)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.AMQPURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ORDER_NUMBER_STRATEGY", "redis")
	t.Setenv("STORE_TIMEZONE", "Europe/Paris")
	t.Setenv("JWT_EXPIRATION_HOURS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.OrderNumberStrategy)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := &Config{JWTSecret: "x", OrderNumberStrategy: "uuid", OrderNumberMaxAttempts: 5}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadTimezone(t *testing.T) {
	cfg := &Config{JWTSecret: "x", OrderNumberStrategy: "store", OrderNumberMaxAttempts: 5, StoreTimezone: "Mars/Olympus"}
	assert.Error(t, cfg.Validate())
}
