package clipboard

import (
	"fmt"
	"time"

	"github.com/micmonay/keybd_event"
)

const (
	// Lets the user release the hotkey modifiers before Ctrl+C is sent.
	releaseDelay = 150 * time.Millisecond
	// Gives the foreground application time to fill the clipboard.
	copySettleDelay = 200 * time.Millisecond
)

// CopySelection sends Ctrl+C to the foreground window so the current
// selection lands on the clipboard.
func CopySelection() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("init key bonding: %w", err)
	}
	time.Sleep(releaseDelay)

	kb.SetKeys(keybd_event.VK_C)
	kb.HasCTRL(true)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send ctrl+c: %w", err)
	}
	time.Sleep(copySettleDelay)
	return nil
}
