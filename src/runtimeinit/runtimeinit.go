package runtimeinit

import (
	"fmt"

	"go.uber.org/zap"

	"gpttrans/src/clipboard"
	"gpttrans/src/config"
	"gpttrans/src/llm"
	"gpttrans/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	// LogPath overrides where file logging writes.
	LogPath string
	// Logger is used as-is when set; otherwise one is built from the
	// runtime settings.
	Logger *zap.SugaredLogger
	// SkipClipboard leaves Runtime.Clipboard nil.
	SkipClipboard bool
}

// Runtime is everything the resident app and the CLI share.
type Runtime struct {
	Settings  config.Runtime
	Logger    *zap.SugaredLogger
	Store     *config.Store
	Client    *llm.Client
	Clipboard *clipboard.Gateway
}

// Bootstrap loads settings and configuration and builds the shared
// services. A missing API key is not an error here; the coordinator
// reports it per hotkey press.
func Bootstrap(opts Options) (*Runtime, error) {
	config.LoadDotenv(opts.LoadOptions.EnvFile)

	settings, settingsErr := config.LoadRuntime()

	logger := opts.Logger
	if logger == nil {
		logger = logutil.New(logutil.Options{
			EnableFileLogging: settings.EnableFileLogging,
			Level:             settings.LogLevel,
			Path:              opts.LogPath,
		})
	}
	if settingsErr != nil {
		logger.Warnw("invalid runtime settings, using defaults", "error", settingsErr)
	}

	loadOpts := opts.LoadOptions
	if loadOpts.Path == "" {
		loadOpts.Path = config.ResolvePath()
	}
	loadOpts.Logger = logger
	cfg, err := config.LoadWithOptions(loadOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rt := &Runtime{
		Settings: settings,
		Logger:   logger,
		Store:    config.NewStore(*cfg, config.FilePersister{Path: loadOpts.Path}),
		Client:   llm.New(logger, settings.RequestTimeout()),
	}

	if !opts.SkipClipboard {
		src, err := clipboard.NewSystemSource()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		rt.Clipboard = clipboard.New(src, logger)
	}

	logger.Infow("configuration loaded",
		"config_path", loadOpts.Path,
		"provider", cfg.Provider,
		"base_url", cfg.EffectiveBaseURL(),
		"model", cfg.Model,
		"target_lang", cfg.TargetLang,
		"hotkey", cfg.Hotkey.String(),
		"api_key", logutil.RedactKey(cfg.APIKey),
		"request_timeout", settings.RequestTimeout(),
		"hotkey_backend", settings.HotkeyBackend)
	return rt, nil
}
