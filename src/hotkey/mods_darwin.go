package hotkey

import (
	"golang.design/x/hotkey"

	"gpttrans/src/config"
)

func platformModifier(m config.Modifier) hotkey.Modifier {
	switch m {
	case config.ModCtrl:
		return hotkey.ModCtrl
	case config.ModAlt:
		return hotkey.ModOption
	case config.ModShift:
		return hotkey.ModShift
	}
	return hotkey.ModCmd
}
