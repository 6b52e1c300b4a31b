package hotkey

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"gpttrans/src/config"
)

type State int32

const (
	Unregistered State = iota
	Registered
	Listening
)

func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	case Listening:
		return "listening"
	}
	return "unregistered"
}

// Backend binds one combination with the OS and calls fire for every
// key-down of it, from a goroutine it owns.
type Backend interface {
	Register(hk config.Hotkey, fire func()) error
	Unregister() error
}

// RegistrationError means the combination could not be bound, usually
// because another program already owns it.
type RegistrationError struct {
	Combo string
	Err   error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register hotkey %s: %v", e.Combo, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// NewBackend returns the backend named by HOTKEY_BACKEND.
func NewBackend(name string, logger *zap.SugaredLogger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "register":
		return &registerBackend{}, nil
	case "hook":
		return newHookBackend(logger), nil
	}
	return nil, fmt.Errorf("unknown hotkey backend %q (want register or hook)", name)
}

// Listener delivers one callback per hotkey press.
type Listener struct {
	hk      config.Hotkey
	backend Backend
	logger  *zap.SugaredLogger
	state   atomic.Int32
	once    sync.Once
}

func New(hk config.Hotkey, backend Backend, logger *zap.SugaredLogger) *Listener {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Listener{hk: hk, backend: backend, logger: logger}
}

func (l *Listener) State() State { return State(l.state.Load()) }

// Start binds the combination and calls onPress for every press until
// Close. onPress runs on the backend goroutine and must not block.
func (l *Listener) Start(onPress func()) error {
	combo := l.hk.String()
	if l.hk.IsZero() {
		return &RegistrationError{Combo: combo, Err: config.ErrInvalidConfig}
	}

	l.state.Store(int32(Registered))
	err := l.backend.Register(l.hk, func() {
		if l.State() == Unregistered {
			return
		}
		onPress()
	})
	if err != nil {
		l.state.Store(int32(Unregistered))
		l.logger.Errorw("hotkey registration failed", "hotkey", combo, "error", err)
		return &RegistrationError{Combo: combo, Err: err}
	}

	l.state.Store(int32(Listening))
	l.logger.Infow("hotkey listening", "hotkey", combo)
	return nil
}

// Close releases the combination. Further presses are ignored.
func (l *Listener) Close() {
	l.once.Do(func() {
		l.state.Store(int32(Unregistered))
		if err := l.backend.Unregister(); err != nil {
			l.logger.Warnw("hotkey unregister failed", "hotkey", l.hk.String(), "error", err)
		}
	})
}
