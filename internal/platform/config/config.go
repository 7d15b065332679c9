package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the environment
// (with an optional .env file for local runs).
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// MTProto reader
	TGAPIID       int    `env:"TG_API_ID,required"`
	TGAPIHash     string `env:"TG_API_HASH,required"`
	TGPhone       string `env:"TG_PHONE"`
	TG2FAPassword string `env:"TG_2FA_PASSWORD"`
	TGSessionPath string `env:"TG_SESSION_PATH" envDefault:"./tg.session"`

	// Monitored channels: @usernames, t.me links or numeric ids.
	SourceChannels []string `env:"SOURCE_CHANNELS,required" envSeparator:","`

	// Bot delivery
	BotToken        string  `env:"BOT_TOKEN,required"`
	AggregatorChat  string  `env:"AGGREGATOR_CHAT,required"`
	ImportantChat   string  `env:"IMPORTANT_CHAT"`
	PersonalChatIDs []int64 `env:"PERSONAL_CHAT_IDS" envSeparator:","`

	// LLM + embeddings
	LLMAPIKey           string `env:"LLM_API_KEY,required"`
	LLMModel            string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL          string `env:"LLM_BASE_URL"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	RateLimitRPS        int    `env:"RATE_LIMIT_RPS" envDefault:"2"`

	// Dedup
	SimilarityThreshold float32 `env:"SIMILARITY_THRESHOLD" envDefault:"0.85"`
	DedupWindowMinutes  int     `env:"DEDUP_WINDOW_MINUTES" envDefault:"360"`
	DedupScanLimit      int     `env:"DEDUP_SCAN_LIMIT" envDefault:"1000"`

	// Admission
	ImportanceThreshold  string `env:"IMPORTANCE_THRESHOLD" envDefault:"medium"`
	MinInformativeLength int    `env:"MIN_INFORMATIVE_LENGTH" envDefault:"280"`

	// Polling
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	ReaderFetchLimit int           `env:"READER_FETCH_LIMIT" envDefault:"20"`

	// Enrichment
	OCREnabled            bool          `env:"OCR_ENABLED" envDefault:"true"`
	LinkEnrichmentEnabled bool          `env:"LINK_ENRICHMENT_ENABLED" envDefault:"true"`
	WebFetchRPS           float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	WebFetchTimeout       time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"30s"`
	MaxLinksPerMessage    int           `env:"MAX_LINKS_PER_MESSAGE" envDefault:"3"`
	MaxContentLength      int           `env:"MAX_CONTENT_LENGTH" envDefault:"5000"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// Load reads configuration from the environment. A missing .env file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks constraints env tags cannot express. Called by Load;
// failure is fatal at startup.
func (c *Config) Validate() error {
	channels := make([]string, 0, len(c.SourceChannels))

	for _, ch := range c.SourceChannels {
		ch = strings.TrimSpace(ch)
		if ch != "" {
			channels = append(channels, ch)
		}
	}

	c.SourceChannels = channels
	if len(c.SourceChannels) == 0 {
		return errors.New("SOURCE_CHANNELS must name at least one channel")
	}

	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD %v outside (0, 1]", c.SimilarityThreshold)
	}

	if c.DedupWindowMinutes <= 0 {
		return fmt.Errorf("DEDUP_WINDOW_MINUTES must be positive, got %d", c.DedupWindowMinutes)
	}

	if c.DedupScanLimit <= 0 {
		return fmt.Errorf("DEDUP_SCAN_LIMIT must be positive, got %d", c.DedupScanLimit)
	}

	switch strings.ToLower(c.ImportanceThreshold) {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("IMPORTANCE_THRESHOLD %q is not one of low, medium, high", c.ImportanceThreshold)
	}

	return nil
}

// DedupWindow returns the recency window as a duration.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMinutes) * time.Minute
}
