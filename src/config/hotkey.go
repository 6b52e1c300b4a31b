package config

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of hotkey modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModWin
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModWin, "Win"},
}

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"win":     ModWin,
	"super":   ModWin,
	"cmd":     ModWin,
	"meta":    ModWin,
}

var namedKeys = map[string]string{
	"space":     "Space",
	"enter":     "Enter",
	"return":    "Enter",
	"esc":       "Esc",
	"escape":    "Esc",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"insert":    "Insert",
	"ins":       "Insert",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pgup":      "PageUp",
	"pagedown":  "PageDown",
	"pgdn":      "PageDown",
	"left":      "Left",
	"right":     "Right",
	"up":        "Up",
	"down":      "Down",
}

// Hotkey describes a global key combination such as Alt+F3.
type Hotkey struct {
	Mods Modifier
	Key  string
}

// ParseHotkey parses a "+"-separated combination. Modifier and key names are
// case-insensitive; the key is normalized to its canonical spelling.
func ParseHotkey(s string) (Hotkey, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	var hk Hotkey
	for i, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Hotkey{}, fmt.Errorf("%w: hotkey %q has an empty segment", ErrInvalidConfig, s)
		}
		if i < len(parts)-1 {
			mod, ok := modifierAliases[strings.ToLower(part)]
			if !ok {
				return Hotkey{}, fmt.Errorf("%w: hotkey %q: unknown modifier %q", ErrInvalidConfig, s, part)
			}
			hk.Mods |= mod
			continue
		}
		key, ok := normalizeKey(part)
		if !ok {
			return Hotkey{}, fmt.Errorf("%w: hotkey %q: unknown key %q", ErrInvalidConfig, s, part)
		}
		hk.Key = key
	}
	return hk, nil
}

// MustParseHotkey is ParseHotkey for compile-time constants.
func MustParseHotkey(s string) Hotkey {
	hk, err := ParseHotkey(s)
	if err != nil {
		panic(err)
	}
	return hk
}

func normalizeKey(k string) (string, bool) {
	lower := strings.ToLower(k)
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return strings.ToUpper(k), true
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return k, true
		}
		return "", false
	}
	if name, ok := namedKeys[lower]; ok {
		return name, true
	}
	if lower[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(lower[1:], "%d", &n); err == nil && fmt.Sprintf("f%d", n) == lower && n >= 1 && n <= 24 {
			return fmt.Sprintf("F%d", n), true
		}
	}
	return "", false
}

// Has reports whether m is part of the combination.
func (h Hotkey) Has(m Modifier) bool { return h.Mods&m != 0 }

// IsZero reports whether the descriptor names no key.
func (h Hotkey) IsZero() bool { return h.Key == "" }

func (h Hotkey) String() string {
	var b strings.Builder
	for _, m := range modifierNames {
		if h.Has(m.mod) {
			b.WriteString(m.name)
			b.WriteByte('+')
		}
	}
	b.WriteString(h.Key)
	return b.String()
}

func (h Hotkey) MarshalText() ([]byte, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: hotkey without key", ErrInvalidConfig)
	}
	return []byte(h.String()), nil
}

func (h *Hotkey) UnmarshalText(text []byte) error {
	parsed, err := ParseHotkey(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
