package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"gpttrans/src/config"
)

// registerBackend claims the combination system-wide. Registration fails
// when another program already owns it.
type registerBackend struct {
	mu   sync.Mutex
	hk   *hotkey.Hotkey
	stop chan struct{}
}

var registerKeys = map[string]hotkey.Key{
	"Space":  hotkey.KeySpace,
	"Enter":  hotkey.KeyReturn,
	"Esc":    hotkey.KeyEscape,
	"Tab":    hotkey.KeyTab,
	"Delete": hotkey.KeyDelete,
	"Left":   hotkey.KeyLeft,
	"Right":  hotkey.KeyRight,
	"Up":     hotkey.KeyUp,
	"Down":   hotkey.KeyDown,

	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
	"F13": hotkey.KeyF13, "F14": hotkey.KeyF14, "F15": hotkey.KeyF15, "F16": hotkey.KeyF16,
	"F17": hotkey.KeyF17, "F18": hotkey.KeyF18, "F19": hotkey.KeyF19, "F20": hotkey.KeyF20,
}

func toRegisterCombo(hk config.Hotkey) ([]hotkey.Modifier, hotkey.Key, error) {
	key, ok := registerKeys[hk.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key %q is not supported by the register backend, try HOTKEY_BACKEND=hook", hk.Key)
	}
	var mods []hotkey.Modifier
	for _, m := range []config.Modifier{config.ModCtrl, config.ModAlt, config.ModShift, config.ModWin} {
		if hk.Has(m) {
			mods = append(mods, platformModifier(m))
		}
	}
	return mods, key, nil
}

func (b *registerBackend) Register(desc config.Hotkey, fire func()) error {
	mods, key, err := toRegisterCombo(desc)
	if err != nil {
		return err
	}
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return err
	}

	stop := make(chan struct{})
	b.mu.Lock()
	b.hk, b.stop = hk, stop
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-hk.Keydown():
				fire()
			}
		}
	}()
	return nil
}

func (b *registerBackend) Unregister() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hk == nil {
		return nil
	}
	close(b.stop)
	err := b.hk.Unregister()
	b.hk, b.stop = nil, nil
	return err
}
