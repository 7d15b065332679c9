package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testErrLoad = "Load() error = %v"

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv("POSTGRES_DSN", "postgres://localhost/test")
	t.Setenv("TG_API_ID", "12345")
	t.Setenv("TG_API_HASH", "abcdef123456")
	t.Setenv("SOURCE_CHANNELS", "@alpha_calls,@degen_news")
	t.Setenv("BOT_TOKEN", "123456:ABC-DEF")
	t.Setenv("AGGREGATOR_CHAT", "-1001234567890")
	t.Setenv("LLM_API_KEY", "sk-test")
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("POSTGRES_DSN")
	os.Unsetenv("TG_API_ID")
	os.Unsetenv("TG_API_HASH")
	os.Unsetenv("SOURCE_CHANNELS")
	os.Unsetenv("BOT_TOKEN")
	os.Unsetenv("AGGREGATOR_CHAT")
	os.Unsetenv("LLM_API_KEY")

	_, err := Load()
	require.Error(t, err, "expected error for missing required env vars")
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err, testErrLoad, err)

	assert.Equal(t, "postgres://localhost/test", cfg.PostgresDSN)
	assert.Equal(t, 12345, cfg.TGAPIID)
	assert.Equal(t, []string{"@alpha_calls", "@degen_news"}, cfg.SourceChannels)
	assert.Equal(t, "-1001234567890", cfg.AggregatorChat)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	os.Unsetenv("APP_ENV")
	os.Unsetenv("LLM_MODEL")
	os.Unsetenv("SIMILARITY_THRESHOLD")
	os.Unsetenv("DEDUP_WINDOW_MINUTES")
	os.Unsetenv("DEDUP_SCAN_LIMIT")
	os.Unsetenv("IMPORTANCE_THRESHOLD")
	os.Unsetenv("POLL_INTERVAL")
	os.Unsetenv("HEALTH_PORT")
	os.Unsetenv("TG_SESSION_PATH")

	cfg, err := Load()
	require.NoError(t, err, testErrLoad, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.InDelta(t, 0.85, cfg.SimilarityThreshold, 1e-6)
	assert.Equal(t, 360, cfg.DedupWindowMinutes)
	assert.Equal(t, 1000, cfg.DedupScanLimit)
	assert.Equal(t, "medium", cfg.ImportanceThreshold)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 8080, cfg.HealthPort)
	assert.Equal(t, "./tg.session", cfg.TGSessionPath)
	assert.Equal(t, 6*time.Hour, cfg.DedupWindow())
}

func TestLoad_PersonalChatIDs(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("PERSONAL_CHAT_IDS", "111,222,333")

	cfg, err := Load()
	require.NoError(t, err, testErrLoad, err)

	assert.Equal(t, []int64{111, 222, 333}, cfg.PersonalChatIDs)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SourceChannels:      []string{"@alpha_calls"},
			SimilarityThreshold: 0.85,
			DedupWindowMinutes:  360,
			DedupScanLimit:      1000,
			ImportanceThreshold: "medium",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "blank channels trimmed away", mutate: func(c *Config) {
			c.SourceChannels = []string{"  ", ""}
		}, wantErr: true},
		{name: "threshold above one", mutate: func(c *Config) {
			c.SimilarityThreshold = 1.5
		}, wantErr: true},
		{name: "threshold zero", mutate: func(c *Config) {
			c.SimilarityThreshold = 0
		}, wantErr: true},
		{name: "negative window", mutate: func(c *Config) {
			c.DedupWindowMinutes = -1
		}, wantErr: true},
		{name: "zero scan limit", mutate: func(c *Config) {
			c.DedupScanLimit = 0
		}, wantErr: true},
		{name: "unknown tier", mutate: func(c *Config) {
			c.ImportanceThreshold = "critical"
		}, wantErr: true},
		{name: "tier case insensitive", mutate: func(c *Config) {
			c.ImportanceThreshold = "HIGH"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_TrimsChannelWhitespace(t *testing.T) {
	cfg := &Config{
		SourceChannels:      []string{" @alpha_calls ", "", "@degen_news"},
		SimilarityThreshold: 0.85,
		DedupWindowMinutes:  360,
		DedupScanLimit:      1000,
		ImportanceThreshold: "low",
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"@alpha_calls", "@degen_news"}, cfg.SourceChannels)
}
