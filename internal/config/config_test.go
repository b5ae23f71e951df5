package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
  author_ids: [42]
  mod_chat_id: -100
database:
  driver: sqlite
  database: bot.db
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "America/New_York", cfg.System.Timezone)
	assert.Equal(t, "@every 1m", cfg.Scheduler.ReminderInterval)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.CheckTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.LeaseTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Telegram.IsAuthor(42))
	assert.False(t, cfg.Telegram.IsAuthor(7))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: ""
  author_ids: [42]
  mod_chat_id: -100
database:
  driver: oracle
  database: bot
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "from-file"
  author_ids: [1]
  mod_chat_id: -100
database:
  driver: sqlite
  database: bot.db
`)
	t.Setenv("BOT_TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.BotToken)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	s := SystemConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, s.Location())
}
