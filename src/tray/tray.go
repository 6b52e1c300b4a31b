package tray

import (
	"runtime"
	"sync/atomic"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"gpttrans/src/messages"
)

const (
	Title         = "GPTTrans"
	TooltipIdle   = "GPTTrans: ready"
	TooltipBusy   = "GPTTrans: translating…"
	settingsLabel = "Settings…"
	showLabel     = "Show translation"
	quitLabel     = "Quit"
)

type menuEntry struct {
	title   string
	tooltip string
	action  messages.TrayAction
}

var menu = []menuEntry{
	{showLabel, "Show the last translation", messages.TrayShowWindow},
	{settingsLabel, "Edit provider, model and hotkey", messages.TrayOpenSettings},
	{quitLabel, "Quit GPTTrans", messages.TrayQuit},
}

// Tray owns the notification-area icon. Every menu click becomes one call
// of onAction.
type Tray struct {
	onAction func(messages.TrayAction)
	logger   *zap.SugaredLogger
	ready    atomic.Bool
}

func New(onAction func(messages.TrayAction), logger *zap.SugaredLogger) *Tray {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Tray{onAction: onAction, logger: logger}
}

// Run shows the icon and blocks until Quit. It pins itself to one OS
// thread since the native tray APIs are thread-affine.
func (t *Tray) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the icon and makes Run return.
func (t *Tray) Quit() {
	if t.ready.Load() {
		systray.Quit()
	}
}

// SetBusy switches the tooltip between idle and translating. Safe from any
// goroutine; ignored until the tray is ready.
func (t *Tray) SetBusy(busy bool) {
	if !t.ready.Load() {
		return
	}
	systray.SetTooltip(tooltip(busy))
}

func tooltip(busy bool) string {
	if busy {
		return TooltipBusy
	}
	return TooltipIdle
}

func (t *Tray) onReady() {
	systray.SetIcon(platformIcon())
	systray.SetTitle(Title)
	systray.SetTooltip(tooltip(false))

	for i, entry := range menu {
		if entry.action == messages.TrayQuit && i > 0 {
			systray.AddSeparator()
		}
		item := systray.AddMenuItem(entry.title, entry.tooltip)
		go t.pump(item.ClickedCh, entry.action)
	}
	t.ready.Store(true)
	t.logger.Infow("tray ready")
}

func (t *Tray) pump(clicked <-chan struct{}, action messages.TrayAction) {
	for range clicked {
		t.logger.Debugw("tray menu clicked", "action", action.String())
		t.emit(action)
	}
}

func (t *Tray) emit(action messages.TrayAction) {
	if t.onAction != nil {
		t.onAction(action)
	}
}

func (t *Tray) onExit() {
	t.ready.Store(false)
	t.logger.Infow("tray exited")
}
