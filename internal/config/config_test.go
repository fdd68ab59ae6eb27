package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RC_CLIENT_ID", "client")
	t.Setenv("RC_CLIENT_SECRET", "secret")
	t.Setenv("RC_JWT", "signed.jwt.assertion")
	t.Setenv("RC_EXTENSION_ID", "101")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/api/webhooks/1/abc")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://platform.ringcentral.com", cfg.RingCentral.Server)
	assert.Equal(t, "~", cfg.RingCentral.AccountID)
	assert.Equal(t, "101", cfg.RingCentral.ExtensionID)
	assert.Equal(t, 30*time.Second, cfg.RingCentral.Timeout())
	assert.Equal(t, 60*time.Second, cfg.Scheduler.PollInterval())
	assert.Equal(t, 50, cfg.Scheduler.PerPage)
	assert.Equal(t, 10, cfg.Scheduler.MaxPages)
	assert.Equal(t, 14*24*time.Hour, cfg.Scheduler.Lookback())
	assert.Equal(t, 6, cfg.Transcription.Retries)
	assert.Equal(t, 2*time.Second, cfg.Transcription.Delay())
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RC_SERVER", "https://platform.devtest.ringcentral.com/")
	t.Setenv("RC_ACCOUNT_ID", "12345")
	t.Setenv("POLL_SECONDS", "15")
	t.Setenv("PER_PAGE", "2")
	t.Setenv("MAX_PAGES", "3")
	t.Setenv("DAYS_BACK", "1")
	t.Setenv("SERVER_ENABLED", "false")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://platform.devtest.ringcentral.com", cfg.RingCentral.Server)
	assert.Equal(t, "12345", cfg.RingCentral.AccountID)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.PollInterval())
	assert.Equal(t, 2, cfg.Scheduler.PerPage)
	assert.Equal(t, 3, cfg.Scheduler.MaxPages)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Lookback())
	assert.False(t, cfg.Server.Enabled)
}

func TestValidateReportsEveryMissingVariable(t *testing.T) {
	for _, name := range []string{"RC_CLIENT_ID", "RC_CLIENT_SECRET", "RC_JWT", "RC_EXTENSION_ID", "DISCORD_WEBHOOK_URL"} {
		t.Setenv(name, "")
	}

	cfg, err := load(viper.New())
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	for _, name := range []string{"RC_CLIENT_ID", "RC_CLIENT_SECRET", "RC_JWT", "RC_EXTENSION_ID", "DISCORD_WEBHOOK_URL"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateRanges(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)

	cfg.Scheduler.MaxPages = 0
	assert.ErrorContains(t, cfg.Validate(), "MAX_PAGES")

	cfg.Scheduler.MaxPages = 10
	cfg.Transcription.Retries = 0
	assert.ErrorContains(t, cfg.Validate(), "TRANSCRIPTION_RETRIES")

	cfg.Transcription.Retries = 6
	cfg.Database.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "DB_USER")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "relay",
		Password: "pass",
		DBName:   "voicemail",
	}

	assert.Equal(t, "relay:pass@tcp(localhost:3306)/voicemail?charset=utf8mb4&parseTime=True&loc=UTC", cfg.GetDSN())
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RC_EXTENSION_ID=from-file\nDOTENV_ONLY_KEY=loaded\n"), 0o600))
	t.Setenv("RC_EXTENSION_ID", "from-env")
	t.Cleanup(func() { os.Unsetenv("DOTENV_ONLY_KEY") })

	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "from-env", os.Getenv("RC_EXTENSION_ID"))
	assert.Equal(t, "loaded", os.Getenv("DOTENV_ONLY_KEY"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
