package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "10,20")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 20}, cfg.AdminIDs)
	assert.Equal(t, 5, cfg.DailyRequestLimit)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, PolicyWarn, cfg.LongTextPolicy)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, 280, cfg.PlatformLimits()["twitter"])
}

func TestNew_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_, err := New()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DailyRequestLimit:     5,
			GenerationMaxAttempts: 3,
			GenerationTimeout:     time.Second,
			StorageBackend:        BackendMemory,
			LongTextPolicy:        PolicySplit,
			LLMProvider:           ProviderYandex,
		}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.DailyRequestLimit = 0
	assert.Error(t, c.Validate())

	c = base()
	c.StorageBackend = "firebase"
	assert.Error(t, c.Validate())

	c = base()
	c.LongTextPolicy = "truncate"
	assert.Error(t, c.Validate())

	c = base()
	c.LLMProvider = "other"
	assert.Error(t, c.Validate())
}
