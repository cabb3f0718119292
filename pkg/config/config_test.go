package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quote-builder/pkg/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 120*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.Quote.DefaultMargin.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 2*time.Second, cfg.Quote.ExtractionPause)
	assert.Equal(t, 30, cfg.Quote.ValidityDays)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("AI_PROVIDER", "Gemini")
	v.Set("QUOTE_DEFAULT_MARGIN", "22.5")
	v.Set("QUOTE_EXTRACTION_PAUSE", "1.5")
	v.Set("AI_TIMEOUT", "45s")
	v.Set("HTTP_PORT", "9090")
	v.Set("DB_HOST", "db")
	v.Set("DB_PASSWORD", "p@ss word")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.True(t, cfg.Quote.DefaultMargin.Equal(decimal.RequireFromString("22.5")))
	assert.Equal(t, 1500*time.Millisecond, cfg.Quote.ExtractionPause)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "postgres://postgres:p%40ss%20word@db:5432/quote_builder?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("AI_PROVIDER", "openai")
	_, err := config.FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("QUOTE_DEFAULT_MARGIN", "lots")
	_, err = config.FromViper(v)
	assert.Error(t, err)
}
