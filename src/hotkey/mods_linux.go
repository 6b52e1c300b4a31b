package hotkey

import (
	"golang.design/x/hotkey"

	"gpttrans/src/config"
)

// X11 maps Alt to Mod1 and the Super key to Mod4.
func platformModifier(m config.Modifier) hotkey.Modifier {
	switch m {
	case config.ModCtrl:
		return hotkey.ModCtrl
	case config.ModAlt:
		return hotkey.Mod1
	case config.ModShift:
		return hotkey.ModShift
	}
	return hotkey.Mod4
}
