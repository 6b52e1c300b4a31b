package gui

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpttrans/src/config"
	"gpttrans/src/messages"
)

func TestSettingsFormRoundTrip(t *testing.T) {
	cfg := config.Defaults()
	cfg.Provider = config.ProviderOllama
	cfg.BaseURL = "http://gpu-box:11434"
	cfg.Model = "llama3.2"
	cfg.TargetLang = "German"
	cfg.Hotkey = config.MustParseHotkey("Ctrl+Shift+T")

	got, err := formFromConfig(cfg).toConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSettingsFormTrimsAndDefaults(t *testing.T) {
	got, err := settingsForm{
		Provider: "stub",
		BaseURL:  "  ",
		APIKey:   " sk-1 ",
		Hotkey:   "alt+f3",
	}.toConfig()
	require.NoError(t, err)

	assert.Equal(t, config.ProviderStub, got.Provider)
	assert.Empty(t, got.BaseURL)
	assert.Equal(t, "sk-1", got.APIKey)
	assert.Equal(t, config.DefaultModel, got.Model)
	assert.Equal(t, config.DefaultTargetLang, got.TargetLang)
	assert.Equal(t, "Alt+F3", got.Hotkey.String())
}

func TestSettingsFormRejectsBadInput(t *testing.T) {
	_, err := settingsForm{Provider: "bard", Hotkey: "Alt+F3"}.toConfig()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = settingsForm{Provider: "openai", Hotkey: "Alt+"}.toConfig()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestProviderOptionsListsEveryKind(t *testing.T) {
	assert.Equal(t, []string{"openai-compatible", "ollama-native", "stub-free-provider"}, providerOptions())
}

func TestSurfaceAppliesMessages(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var copied string
	s := New(messages.NewQueue(), config.NewStore(config.Defaults(), nil), Options{
		App:      a,
		CopyText: func(text string) bool { copied = text; return true },
	})

	s.apply([]messages.Message{
		messages.SetLoading{Loading: true},
		messages.ShowText{Text: ""},
		messages.AppendText{Text: "Hel"},
		messages.AppendText{Text: "lo"},
	})
	assert.Equal(t, "Hello", s.output.Text)
	assert.True(t, s.progress.Visible())

	s.apply([]messages.Message{messages.SetLoading{Loading: false}})
	assert.False(t, s.progress.Visible())

	s.opts.CopyText(s.output.Text)
	assert.Equal(t, "Hello", copied)

	s.apply([]messages.Message{messages.OpenSettings{}})
	require.NotNil(t, s.settings)
	s.settings.Close()
	assert.Nil(t, s.settings)
}
