package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for the wakeup-alarm daemon.
type Config struct {
	// ListenAddress is the address the HTTP control surface binds to.
	ListenAddress string `yaml:"listen_addr"`
	// AlarmTime optionally pre-arms the alarm at startup ("HH:MM", 24-hour).
	// Empty means the daemon starts idle and waits for an arm request.
	AlarmTime string `yaml:"alarm_time"`
	// Quota is how many correct answers are required to silence the alarm.
	Quota uint `yaml:"quota"`
	// Tone configures the synthesized alarm sound.
	Tone ToneConfig `yaml:"tone"`
	// FeedbackDelay is how long the "correct" feedback stays on screen
	// before the next challenge appears.
	FeedbackDelay time.Duration `yaml:"feedback_delay"`
	// StatusInterval is the cadence of the observability status tick while armed.
	StatusInterval time.Duration `yaml:"status_interval"`
	// Telegram configures the escalation delivery collaborator.
	Telegram TelegramConfig `yaml:"telegram"`
	// Camera configures the still-image capture collaborator.
	Camera CameraConfig `yaml:"camera"`
	// RegistryFile is the path to the persisted subscriber registry JSON.
	RegistryFile string `yaml:"registry_file"`
}

// ToneConfig describes the alarm tone synthesis parameters.
type ToneConfig struct {
	// FrequencyHz is the sine frequency of the alarm tone.
	FrequencyHz float64 `yaml:"frequency_hz"`
	// BeepInterval is the duration of each on/off half-cycle of the beep gate.
	BeepInterval time.Duration `yaml:"beep_interval"`
	// SampleRate is the audio output sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`
}

// TelegramConfig describes the delivery collaborator endpoint.
type TelegramConfig struct {
	// APIBase is the Bot API base URL; overridable for tests.
	APIBase string `yaml:"api_base"`
	// BotToken authenticates against the Bot API. Empty disables delivery.
	BotToken string `yaml:"bot_token"`
	// Caption is the text attached to escalation photos.
	Caption string `yaml:"caption"`
	// Timeout bounds each HTTP call to the Bot API.
	Timeout time.Duration `yaml:"timeout"`
}

// CameraConfig describes the external capture program.
type CameraConfig struct {
	// Command is the capture executable; empty disables capture.
	Command string `yaml:"command"`
	// Args are passed to the command; the output path is appended last.
	Args []string `yaml:"args"`
	// Timeout bounds a single capture attempt.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "wakeup-alarm.yaml"

	// DefaultListenAddress is where the control surface listens by default.
	DefaultListenAddress = "127.0.0.1:8793"

	// DefaultQuota is the number of correct answers required to silence the alarm.
	DefaultQuota uint = 10

	// DefaultToneFrequencyHz is high enough to grab attention and low enough
	// to render cleanly on small speakers.
	DefaultToneFrequencyHz = 880.0

	// DefaultBeepInterval is the on/off half-cycle of the beep gate
	// (4000 samples at 44.1 kHz).
	DefaultBeepInterval = 90 * time.Millisecond

	// DefaultSampleRate is the audio output sample rate.
	DefaultSampleRate = 44100

	// DefaultFeedbackDelay lets the user perceive the "correct" feedback
	// before the next question appears.
	DefaultFeedbackDelay = 700 * time.Millisecond

	// DefaultStatusInterval is the cadence of the armed status tick.
	DefaultStatusInterval = 30 * time.Second

	// DefaultTelegramAPIBase is the production Bot API endpoint.
	DefaultTelegramAPIBase = "https://api.telegram.org"

	// DefaultCaption is attached to escalation photos.
	DefaultCaption = "Can't wake up! Wrong answer to the challenge."

	// DefaultTimeout is the default duration for network and capture operations.
	DefaultTimeout = 5 * time.Second

	// DefaultRegistryFilename is the default subscriber registry path.
	DefaultRegistryFilename = "wakeup-alarm-recipients.json"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errQuotaRequired is returned when the challenge quota is zero.
	errQuotaRequired = errors.New("challenge quota must be positive")
	// errBadFrequency is returned when the tone frequency is not positive.
	errBadFrequency = errors.New("tone frequency must be positive")
)

// Default returns a configuration populated with all default values.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file carries the bot token.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// applying defaults for anything left unset.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.AlarmTime != "" {
		if _, err := time.Parse("15:04", cfg.AlarmTime); err != nil {
			return fmt.Errorf("invalid alarm time %q: %w", cfg.AlarmTime, err)
		}
	}

	if cfg.Quota == 0 {
		return errQuotaRequired
	}

	if cfg.Tone.FrequencyHz <= 0 {
		return errBadFrequency
	}

	if _, err := url.ParseRequestURI(cfg.Telegram.APIBase); err != nil {
		return fmt.Errorf("invalid Telegram API base: %w", err)
	}

	return nil
}

// applyDefaults fills unset fields with default values.
func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if cfg.Quota == 0 {
		cfg.Quota = DefaultQuota
	}

	if cfg.Tone.FrequencyHz == 0 {
		cfg.Tone.FrequencyHz = DefaultToneFrequencyHz
	}

	if cfg.Tone.BeepInterval <= 0 {
		cfg.Tone.BeepInterval = DefaultBeepInterval
	}

	if cfg.Tone.SampleRate <= 0 {
		cfg.Tone.SampleRate = DefaultSampleRate
	}

	if cfg.FeedbackDelay <= 0 {
		cfg.FeedbackDelay = DefaultFeedbackDelay
	}

	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}

	if cfg.Telegram.APIBase == "" {
		cfg.Telegram.APIBase = DefaultTelegramAPIBase
	}

	if cfg.Telegram.Caption == "" {
		cfg.Telegram.Caption = DefaultCaption
	}

	if cfg.Telegram.Timeout <= 0 {
		cfg.Telegram.Timeout = DefaultTimeout
	}

	if cfg.Camera.Timeout <= 0 {
		cfg.Camera.Timeout = DefaultTimeout
	}

	if cfg.RegistryFile == "" {
		cfg.RegistryFile = DefaultRegistryFilename
	}
}
