package hotkey

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpttrans/src/config"
)

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		// Modifier keys
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"win", []uint16{91, 92}},
		{"cmd", []uint16{91, 92}},
		{"super", []uint16{91, 92}},

		// Letter keys
		{"q", []uint16{81}},
		{"e", []uint16{69}},
		{"T", []uint16{84}},

		// Number keys
		{"0", []uint16{48}},
		{"9", []uint16{57}},

		// Function keys
		{"f1", []uint16{112}},
		{"F3", []uint16{114}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},

		// Special keys
		{"space", []uint16{32}},
		{"Enter", []uint16{13}},
		{"escape", []uint16{27}},
		{"PageDown", []uint16{34}},

		{"f25", nil},
		{"f1x", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			assert.Equal(t, tt.expected, keyNameToRawcodes(tt.keyName))
		})
	}
}

func TestParseHotkey(t *testing.T) {
	assert.Equal(t, []string{"ctrl", "alt", "q"}, parseHotkey("Ctrl+Alt+Q"))
	assert.Equal(t, []string{"cmd", "space"}, parseHotkey("Win+Space"))
	assert.Equal(t, []string{"alt", "f3"}, parseHotkey(config.MustParseHotkey("alt+f3").String()))
}

func TestComboTracker(t *testing.T) {
	var states []keyState
	for _, name := range parseHotkey("Alt+F3") {
		states = append(states, keyState{name: name, rawcodes: keyNameToRawcodes(name)})
	}
	tr := newComboTracker(states)

	assert.False(t, tr.down(164)) // left alt
	assert.True(t, tr.down(114))  // F3 completes the combination
	assert.False(t, tr.down(114), "auto-repeat while F3 is held does not fire")

	tr.up(114)
	assert.True(t, tr.down(114), "second F3 press with alt still held fires")
	assert.False(t, tr.down(164), "alt repeat does not fire")

	tr.up(114)
	tr.up(164)
	assert.False(t, tr.down(114))
	assert.True(t, tr.down(165), "right alt counts too")
}

func TestToRegisterCombo(t *testing.T) {
	mods, _, err := toRegisterCombo(config.MustParseHotkey("Ctrl+Shift+T"))
	require.NoError(t, err)
	assert.Len(t, mods, 2)

	_, _, err = toRegisterCombo(config.MustParseHotkey("Alt+PageUp"))
	require.Error(t, err)
}

type fakeBackend struct {
	mu          sync.Mutex
	fire        func()
	err         error
	unregisters int
}

func (f *fakeBackend) Register(_ config.Hotkey, fire func()) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.fire = fire
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Unregister() error {
	f.mu.Lock()
	f.unregisters++
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) press() {
	f.mu.Lock()
	fire := f.fire
	f.mu.Unlock()
	fire()
}

func TestListenerOneEmissionPerPress(t *testing.T) {
	b := &fakeBackend{}
	l := New(config.MustParseHotkey("Alt+F3"), b, nil)
	assert.Equal(t, Unregistered, l.State())

	var presses atomic.Int32
	require.NoError(t, l.Start(func() { presses.Add(1) }))
	assert.Equal(t, Listening, l.State())

	b.press()
	b.press()
	assert.Equal(t, int32(2), presses.Load())

	l.Close()
	l.Close()
	assert.Equal(t, Unregistered, l.State())
	assert.Equal(t, 1, b.unregisters)

	b.press()
	assert.Equal(t, int32(2), presses.Load(), "presses after Close are ignored")
}

func TestListenerRegistrationFailure(t *testing.T) {
	owned := errors.New("hotkey already registered")
	l := New(config.MustParseHotkey("Alt+F3"), &fakeBackend{err: owned}, nil)

	err := l.Start(func() { t.Fatal("must not fire") })

	var re *RegistrationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Alt+F3", re.Combo)
	assert.ErrorIs(t, err, owned)
	assert.Equal(t, Unregistered, l.State())
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("", nil)
	require.NoError(t, err)
	assert.IsType(t, &registerBackend{}, b)

	b, err = NewBackend("HOOK", nil)
	require.NoError(t, err)
	assert.IsType(t, &hookBackend{}, b)

	_, err = NewBackend("xinput", nil)
	require.Error(t, err)
}
