package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const (
	PolicyWarn  = "warn"
	PolicySplit = "split"
)

type Config struct {
	TelegramBotToken  string  `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	AdminIDs          []int64 `env:"ADMIN_IDS" envSeparator:","`
	AdminListFilePath string  `env:"ADMIN_LIST_FILE_PATH" envDefault:"data/admins.json"`

	// Subscription gate
	ChannelUsername string `env:"CHANNEL_USERNAME"`
	ChannelLink     string `env:"CHANNEL_LINK"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENROUTER_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"deepseek/deepseek-chat-v3-0324:free"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Generation
	GenerationTimeout     time.Duration `env:"GENERATION_TIMEOUT" envDefault:"30s"`
	Temperature           float32       `env:"GENERATION_TEMPERATURE" envDefault:"0.7"`
	GenerationMaxAttempts int           `env:"GENERATION_MAX_ATTEMPTS" envDefault:"3"`

	// Quota and platforms
	DailyRequestLimit int    `env:"DAILY_REQUEST_LIMIT" envDefault:"5"`
	TwitterMaxChars   int    `env:"TWITTER_MAX_CHARS" envDefault:"280"`
	LinkedInMaxChars  int    `env:"LINKEDIN_MAX_CHARS" envDefault:"3000"`
	InstagramMaxChars int    `env:"INSTAGRAM_MAX_CHARS" envDefault:"2200"`
	DialectEnabled    bool   `env:"DIALECT_STEP_ENABLED" envDefault:"false"`
	LongTextPolicy    string `env:"LONG_TEXT_POLICY" envDefault:"warn"`

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	UsersFilePath  string `env:"USERS_FILE_PATH" envDefault:"data/users.json"`
	PostsFilePath  string `env:"POSTS_FILE_PATH" envDefault:"data/posts.jsonl"`
	BoltPath       string `env:"BOLT_PATH" envDefault:"data/bot.db"`
	RedisURL       string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"social-poster"`

	// Runtime
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"15m"`
	MaxConcurrentUpdates int           `env:"MAX_CONCURRENT_UPDATES" envDefault:"32"`
	BroadcastRate        float64       `env:"BROADCAST_RATE_PER_SECOND" envDefault:"25"`
	MetricsAddr          string        `env:"METRICS_ADDR" envDefault:":9090"`
	DailyReportCron      string        `env:"DAILY_REPORT_CRON" envDefault:"5 0 * * *"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR" envDefault:"logs"`
}

// New parses the environment and validates the result.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DailyRequestLimit <= 0 {
		return fmt.Errorf("DAILY_REQUEST_LIMIT must be positive, got %d", c.DailyRequestLimit)
	}
	if c.GenerationMaxAttempts <= 0 {
		return fmt.Errorf("GENERATION_MAX_ATTEMPTS must be positive, got %d", c.GenerationMaxAttempts)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	switch c.StorageBackend {
	case BackendFile, BackendBolt, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
	switch c.LongTextPolicy {
	case PolicyWarn, PolicySplit:
	default:
		return fmt.Errorf("unknown long text policy: %s", c.LongTextPolicy)
	}
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderYandex:
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
	return nil
}

// PlatformLimits maps platform keys to their character limits.
func (c *Config) PlatformLimits() map[string]int {
	return map[string]int{
		"twitter":   c.TwitterMaxChars,
		"linkedin":  c.LinkedInMaxChars,
		"instagram": c.InstagramMaxChars,
	}
}
