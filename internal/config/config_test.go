package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDefault checks that defaults produce a valid configuration.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, DefaultQuota, cfg.Quota)
	require.InDelta(t, DefaultToneFrequencyHz, cfg.Tone.FrequencyHz, 0.001)
	require.Equal(t, DefaultBeepInterval, cfg.Tone.BeepInterval)
	require.Equal(t, DefaultSampleRate, cfg.Tone.SampleRate)
	require.Equal(t, DefaultFeedbackDelay, cfg.FeedbackDelay)
	require.Equal(t, DefaultTelegramAPIBase, cfg.Telegram.APIBase)
	require.Equal(t, DefaultRegistryFilename, cfg.RegistryFile)
}

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	require.Error(t, Validate(nil))

	// Bad listen address.
	cfg := &Config{
		ListenAddress: "bad:address",
	}

	require.Error(t, Validate(cfg))

	// Bad alarm time.
	cfg = &Config{
		AlarmTime: "25:99",
	}

	require.Error(t, Validate(cfg))

	// Negative tone frequency.
	cfg = new(Config)
	cfg.Tone.FrequencyHz = -440

	require.Error(t, Validate(cfg))

	// Valid alarm time with everything else defaulted.
	cfg = &Config{
		AlarmTime: "07:30",
	}

	require.NoError(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := Default()
	cfg.AlarmTime = "06:45"
	cfg.Quota = 3
	cfg.Telegram.BotToken = "123:abc"
	cfg.Camera.Command = "fswebcam"
	cfg.Camera.Args = []string{"--no-banner"}
	cfg.StatusInterval = 10 * time.Second

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.AlarmTime, loaded.AlarmTime)
	require.Equal(t, cfg.Quota, loaded.Quota)
	require.Equal(t, cfg.Telegram.BotToken, loaded.Telegram.BotToken)
	require.Equal(t, cfg.Camera.Command, loaded.Camera.Command)
	require.Equal(t, cfg.Camera.Args, loaded.Camera.Args)
	require.Equal(t, cfg.StatusInterval, loaded.StatusInterval)

	// Permissions stay tight: the file carries the bot token.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadMissingFile ensures a missing settings file is an error.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
