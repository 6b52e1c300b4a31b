package hotkey

import (
	"fmt"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
	"go.uber.org/zap"

	"gpttrans/src/config"
)

// hookBackend watches raw key events through a low-level keyboard hook.
// It never claims the combination, so it works even when another program
// registered it, and the keystroke still reaches the focused window.
type hookBackend struct {
	logger *zap.SugaredLogger
	mu     sync.Mutex
	events chan gohook.Event
}

func newHookBackend(logger *zap.SugaredLogger) *hookBackend {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &hookBackend{logger: logger}
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

func (b *hookBackend) Register(hk config.Hotkey, fire func()) error {
	var states []keyState
	for _, name := range parseHotkey(hk.String()) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return fmt.Errorf("key %q has no raw code", name)
		}
		states = append(states, keyState{name: name, rawcodes: codes})
	}

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("keyboard hook unavailable")
	}
	b.mu.Lock()
	b.events = evChan
	b.mu.Unlock()

	go b.watch(evChan, newComboTracker(states), fire)
	return nil
}

func (b *hookBackend) watch(evChan chan gohook.Event, tracker *comboTracker, fire func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorw("hotkey hook goroutine panicked", "panic", r)
		}
	}()
	for ev := range evChan {
		switch ev.Kind {
		case gohook.KeyDown:
			if tracker.down(ev.Rawcode) {
				fire()
			}
		case gohook.KeyUp:
			tracker.up(ev.Rawcode)
		}
	}
	b.logger.Debugw("keyboard hook channel closed")
}

func (b *hookBackend) Unregister() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.events != nil {
		gohook.End()
		b.events = nil
	}
	return nil
}

// comboTracker detects when every key of a combination is held down. The
// last key is the trigger: after a match it has to be released before the
// combination fires again, while modifiers may stay held.
type comboTracker struct {
	states []keyState
	fired  bool
}

func newComboTracker(states []keyState) *comboTracker {
	return &comboTracker{states: states}
}

// down records a key press and reports whether the combination completed.
func (t *comboTracker) down(code uint16) bool {
	t.mark(code, true)
	if t.fired {
		return false
	}
	for i := range t.states {
		if !t.states[i].pressed {
			return false
		}
	}
	t.fired = true
	return true
}

func (t *comboTracker) up(code uint16) {
	t.mark(code, false)
	if n := len(t.states); n > 0 && !t.states[n-1].pressed {
		t.fired = false
	}
}

func (t *comboTracker) mark(code uint16, pressed bool) {
	for i := range t.states {
		for _, rc := range t.states[i].rawcodes {
			if rc == code {
				t.states[i].pressed = pressed
				break
			}
		}
	}
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// Windows virtual key codes, as reported in gohook rawcodes.
var rawcodes = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"esc":       {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33}, // VK_PRIOR
	"pagedown":  {34}, // VK_NEXT
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

var rawcodeAliases = map[string]string{
	"win":    "cmd",
	"super":  "cmd",
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes
// (both left and right variants for modifiers).
func keyNameToRawcodes(keyName string) []uint16 {
	name := strings.ToLower(strings.TrimSpace(keyName))
	if alias, ok := rawcodeAliases[name]; ok {
		name = alias
	}
	if codes, ok := rawcodes[name]; ok {
		return codes
	}

	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // 0x41..0x5A
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48} // 0x30..0x39
		}
	}

	var n int
	if _, err := fmt.Sscanf(name, "f%d", &n); err == nil && fmt.Sprintf("f%d", n) == name && n >= 1 && n <= 24 {
		return []uint16{uint16(111 + n)} // VK_F1 = 112
	}
	return nil
}
