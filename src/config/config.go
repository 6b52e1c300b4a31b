package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultTargetLang = "English"
	DefaultHotkey     = "Alt+F3"

	FileName    = "config.json"
	PathEnvVar  = "GPTTRANS_CONFIG"
	envFileName = ".env"

	defaultRequestTimeoutSec = 120
	DefaultInstancePort      = 49517
)

var ErrInvalidConfig = errors.New("invalid config")

type LoadOptions struct {
	// Path of the JSON file. Empty resolves via ResolvePath.
	Path string
	// EnvFile is loaded into the process environment before overrides are
	// read. Empty means ".env" next to the executable.
	EnvFile string
	Logger  *zap.SugaredLogger
}

// Config holds the connection and behavior settings shared across the app.
// It contains no reference types, so assignment yields an independent copy.
type Config struct {
	BaseURL    string
	Provider   Provider
	APIKey     string
	Model      string
	TargetLang string
	Hotkey     Hotkey
}

func Defaults() Config {
	return Config{
		Provider:   ProviderOpenAI,
		Model:      DefaultModel,
		TargetLang: DefaultTargetLang,
		Hotkey:     MustParseHotkey(DefaultHotkey),
	}
}

// EffectiveBaseURL returns the configured base URL or the provider default.
func (c Config) EffectiveBaseURL() string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return c.Provider.DefaultBaseURL()
}

// MissingAPIKey reports whether the provider needs a key that is not set.
func (c Config) MissingAPIKey() bool {
	return c.Provider.RequiresAPIKey() && strings.TrimSpace(c.APIKey) == ""
}

// Validate checks structural shape only. Reachability and credentials are
// discovered when a request is made.
func (c Config) Validate() error {
	if !c.Provider.Valid() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.Hotkey.IsZero() {
		return fmt.Errorf("%w: hotkey has no key", ErrInvalidConfig)
	}
	return nil
}

// fileRecord is the on-disk shape. The openai_* keys are accepted on read
// for files written by older releases.
type fileRecord struct {
	BaseURL      string `json:"base_url,omitempty"`
	Provider     string `json:"provider,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	Model        string `json:"model,omitempty"`
	TargetLang   string `json:"target_lang,omitempty"`
	Hotkey       string `json:"hotkey,omitempty"`
	LegacyAPIKey string `json:"openai_api_key,omitempty"`
	LegacyModel  string `json:"openai_model,omitempty"`
}

func toRecord(c Config) fileRecord {
	return fileRecord{
		BaseURL:    c.BaseURL,
		Provider:   string(c.Provider),
		APIKey:     c.APIKey,
		Model:      c.Model,
		TargetLang: c.TargetLang,
		Hotkey:     c.Hotkey.String(),
	}
}

type envOverrides struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	Model      string `env:"OPENAI_MODEL"`
	TargetLang string `env:"TARGET_LANG"`
}

// LoadWithOptions merges defaults, the JSON file, .env and environment
// overrides, in that order. Problems with the file are logged and the
// affected fields keep their defaults.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	LoadDotenv(opts.EnvFile)

	cfg := Defaults()
	path := opts.Path
	if path == "" {
		path = ResolvePath()
	}
	if path != "" {
		if err := mergeFile(&cfg, path, logger); err != nil {
			logger.Warnw("config file ignored, using defaults", "path", path, "error", err)
		}
	}

	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}
	if v := strings.TrimSpace(ov.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(ov.Model); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(ov.TargetLang); v != "" {
		cfg.TargetLang = v
	}

	return &cfg, nil
}

func mergeFile(cfg *Config, path string, logger *zap.SugaredLogger) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.BaseURL = strings.TrimSpace(rec.BaseURL)
	if p, err := ParseProvider(rec.Provider); err == nil {
		cfg.Provider = p
	} else {
		logger.Warnw("unknown provider in config file", "provider", rec.Provider)
	}
	cfg.APIKey = firstNonEmpty(rec.APIKey, rec.LegacyAPIKey)
	if m := firstNonEmpty(rec.Model, rec.LegacyModel); m != "" {
		cfg.Model = m
	}
	if l := strings.TrimSpace(rec.TargetLang); l != "" {
		cfg.TargetLang = l
	}
	if rec.Hotkey != "" {
		if hk, err := ParseHotkey(rec.Hotkey); err == nil {
			cfg.Hotkey = hk
		} else {
			logger.Warnw("invalid hotkey in config file", "hotkey", rec.Hotkey, "error", err)
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// LoadDotenv loads a .env file into the process environment without
// overriding variables that are already set.
func LoadDotenv(path string) {
	if path == "" {
		path = besideExecutable(envFileName)
	}
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// ResolvePath returns GPTTRANS_CONFIG when set, else config.json next to
// the executable.
func ResolvePath() string {
	if p := strings.TrimSpace(os.Getenv(PathEnvVar)); p != "" {
		return p
	}
	return besideExecutable(FileName)
}

func besideExecutable(name string) string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(execPath), name)
}

// Runtime holds process settings read from the environment only.
type Runtime struct {
	EnableFileLogging bool   `env:"ENABLE_FILE_LOGGING" envDefault:"false"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeoutSec int    `env:"REQUEST_TIMEOUT_SEC" envDefault:"120"`
	HotkeyBackend     string `env:"HOTKEY_BACKEND" envDefault:"register"`
	AutoCopy          bool   `env:"AUTO_COPY" envDefault:"false"`
	InstancePort      int    `env:"GPTTRANS_PORT" envDefault:"49517"`
}

func DefaultRuntime() Runtime {
	return Runtime{
		LogLevel:          "info",
		RequestTimeoutSec: defaultRequestTimeoutSec,
		HotkeyBackend:     "register",
		InstancePort:      DefaultInstancePort,
	}
}

// LoadRuntime parses runtime settings. On a parse error the defaults are
// returned together with the error.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return DefaultRuntime(), fmt.Errorf("parse runtime settings: %w", err)
	}
	if rt.RequestTimeoutSec <= 0 {
		rt.RequestTimeoutSec = defaultRequestTimeoutSec
	}
	if rt.InstancePort < 1024 || rt.InstancePort > 65535 {
		rt.InstancePort = DefaultInstancePort
	}
	return rt, nil
}

func (r Runtime) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutSec) * time.Second
}
