package main

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gpttrans/src/config"
	"gpttrans/src/hotkey"
)

// hotkeyBinder owns the active listener and swaps it when the settings
// window saves a new combination.
type hotkeyBinder struct {
	mu         sync.Mutex
	backend    string
	newBackend func(name string, logger *zap.SugaredLogger) (hotkey.Backend, error)
	onPress    func()
	notifier   notifier
	logger     *zap.SugaredLogger
	listener   *hotkey.Listener
}

func newHotkeyBinder(backend string, onPress func(), n notifier, logger *zap.SugaredLogger) *hotkeyBinder {
	return &hotkeyBinder{
		backend:    backend,
		newBackend: hotkey.NewBackend,
		onPress:    onPress,
		notifier:   n,
		logger:     logger,
	}
}

// bind releases the current combination and registers hk. A failure is
// reported to the user; the app keeps running without a hotkey.
func (b *hotkeyBinder) bind(hk config.Hotkey) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listener != nil {
		b.listener.Close()
		b.listener = nil
	}

	backend, err := b.newBackend(b.backend, b.logger)
	if err != nil {
		b.logger.Errorw("hotkey backend unavailable", "backend", b.backend, "error", err)
		b.notifier.Notify(fmt.Sprintf("Hotkey disabled: %v", err))
		return false
	}
	l := hotkey.New(hk, backend, b.logger)
	if err := l.Start(b.onPress); err != nil {
		b.notifier.Notify(fmt.Sprintf("Hotkey %s unavailable: %v. Use the tray menu or pick another hotkey in Settings.", hk, err))
		return false
	}
	b.listener = l
	return true
}

func (b *hotkeyBinder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener != nil {
		b.listener.Close()
		b.listener = nil
	}
}
