package gui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"gpttrans/src/config"
)

const pingTimeout = 10 * time.Second

// settingsForm holds the raw text of the settings window fields.
type settingsForm struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	TargetLang string
	Hotkey     string
}

func formFromConfig(cfg config.Config) settingsForm {
	return settingsForm{
		Provider:   cfg.Provider.String(),
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		TargetLang: cfg.TargetLang,
		Hotkey:     cfg.Hotkey.String(),
	}
}

// toConfig parses the form. Blank model and language fall back to defaults.
func (f settingsForm) toConfig() (config.Config, error) {
	provider, err := config.ParseProvider(f.Provider)
	if err != nil {
		return config.Config{}, err
	}
	hk, err := config.ParseHotkey(f.Hotkey)
	if err != nil {
		return config.Config{}, err
	}
	cfg := config.Config{
		Provider:   provider,
		BaseURL:    strings.TrimSpace(f.BaseURL),
		APIKey:     strings.TrimSpace(f.APIKey),
		Model:      strings.TrimSpace(f.Model),
		TargetLang: strings.TrimSpace(f.TargetLang),
		Hotkey:     hk,
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = config.DefaultTargetLang
	}
	return cfg, nil
}

func providerOptions() []string {
	opts := make([]string, 0, len(config.Providers))
	for _, p := range config.Providers {
		opts = append(opts, p.String())
	}
	return opts
}

// showSettings opens the settings window, or focuses it when already open.
func (s *Surface) showSettings() {
	if s.settings != nil {
		s.settings.Show()
		s.settings.RequestFocus()
		return
	}

	w := s.app.NewWindow("GPTTrans Settings")
	s.settings = w
	w.SetOnClosed(func() { s.settings = nil })

	current := formFromConfig(s.store.Snapshot())

	baseURL := widget.NewEntry()
	baseURL.SetText(current.BaseURL)
	provider := widget.NewSelect(providerOptions(), func(v string) {
		if p, err := config.ParseProvider(v); err == nil {
			baseURL.SetPlaceHolder(p.DefaultBaseURL())
		}
	})
	provider.SetSelected(current.Provider)

	apiKey := widget.NewPasswordEntry()
	apiKey.SetText(current.APIKey)
	model := widget.NewEntry()
	model.SetText(current.Model)
	targetLang := widget.NewEntry()
	targetLang.SetText(current.TargetLang)
	hotkey := widget.NewEntry()
	hotkey.SetText(current.Hotkey)
	hotkey.SetPlaceHolder(config.DefaultHotkey)

	read := func() settingsForm {
		return settingsForm{
			Provider:   provider.Selected,
			BaseURL:    baseURL.Text,
			APIKey:     apiKey.Text,
			Model:      model.Text,
			TargetLang: targetLang.Text,
			Hotkey:     hotkey.Text,
		}
	}

	testBtn := widget.NewButton("Test", func() {
		cfg, err := read().toConfig()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		s.testConnection(w, cfg)
	})
	saveBtn := widget.NewButton("Save", func() {
		cfg, err := read().toConfig()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		prev := s.store.Snapshot()
		if err := s.store.Replace(cfg); err != nil {
			s.logger.Errorw("failed to save settings", "error", err)
			var pe *config.PersistError
			if errors.As(err, &pe) {
				err = fmt.Errorf("settings were not saved: %w", err)
			}
			dialog.ShowError(err, w)
			return
		}
		s.logger.Infow("settings saved", "provider", cfg.Provider, "model", cfg.Model, "hotkey", cfg.Hotkey.String())
		if s.opts.OnSaved != nil {
			s.opts.OnSaved(prev, cfg)
		}
		w.Close()
	})
	saveBtn.Importance = widget.HighImportance
	cancelBtn := widget.NewButton("Cancel", w.Close)

	form := widget.NewForm(
		widget.NewFormItem("Provider", provider),
		widget.NewFormItem("Base URL", baseURL),
		widget.NewFormItem("API key", apiKey),
		widget.NewFormItem("Model", model),
		widget.NewFormItem("Target language", targetLang),
		widget.NewFormItem("Hotkey", hotkey),
	)
	buttons := container.NewHBox(testBtn, layout.NewSpacer(), cancelBtn, saveBtn)

	w.SetContent(container.NewPadded(container.NewVBox(form, buttons)))
	w.Resize(fyne.NewSize(480, 0))
	w.Show()
}

func (s *Surface) testConnection(w fyne.Window, cfg config.Config) {
	if s.opts.Pinger == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		err := s.opts.Pinger.Ping(ctx, cfg)
		fyne.Do(func() {
			if err != nil {
				s.logger.Warnw("connection test failed", "provider", cfg.Provider, "error", err)
				dialog.ShowError(err, w)
				return
			}
			msg := fmt.Sprintf("%s is reachable.", cfg.Provider)
			if base := cfg.EffectiveBaseURL(); base != "" {
				msg = fmt.Sprintf("%s at %s is reachable.", cfg.Provider, base)
			}
			dialog.ShowInformation("Connection OK", msg, w)
		})
	}()
}
