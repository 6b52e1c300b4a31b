package gui

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"gpttrans/src/config"
	"gpttrans/src/messages"
	"gpttrans/src/tray"
)

const (
	appID         = "com.gpttrans.app"
	drainInterval = 100 * time.Millisecond
)

// Pinger checks that a provider is reachable with the given settings.
type Pinger interface {
	Ping(ctx context.Context, cfg config.Config) error
}

type Options struct {
	// App defaults to a new desktop application.
	App    fyne.App
	Logger *zap.SugaredLogger
	Pinger Pinger
	// CopyText backs the Copy button.
	CopyText func(text string) bool
	// OnSaved runs after the settings window stored a new configuration.
	OnSaved func(prev, next config.Config)
}

// Surface renders the output window and the settings window. Everything it
// shows arrives through the message queue.
type Surface struct {
	app    fyne.App
	queue  *messages.Queue
	store  *config.Store
	opts   Options
	logger *zap.SugaredLogger

	state    State
	win      fyne.Window
	output   *widget.Entry
	progress *widget.ProgressBarInfinite
	settings fyne.Window
}

func New(queue *messages.Queue, store *config.Store, opts Options) *Surface {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := opts.App
	if a == nil {
		a = app.NewWithID(appID)
	}
	a.SetIcon(fyne.NewStaticResource("gpttrans.png", tray.IconPNG()))

	s := &Surface{app: a, queue: queue, store: store, opts: opts, logger: logger}
	s.buildWindow()
	return s
}

func (s *Surface) buildWindow() {
	s.win = s.app.NewWindow("GPTTrans")
	s.win.Resize(fyne.NewSize(560, 360))

	s.output = widget.NewMultiLineEntry()
	s.output.Wrapping = fyne.TextWrapWord
	s.output.SetPlaceHolder("Copy some text or an image, then press the hotkey.")

	s.progress = widget.NewProgressBarInfinite()
	s.progress.Stop()
	s.progress.Hide()

	copyBtn := widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), func() {
		if s.opts.CopyText == nil || s.output.Text == "" {
			return
		}
		if !s.opts.CopyText(s.output.Text) {
			s.logger.Warnw("copy button failed to write clipboard")
		}
	})
	settingsBtn := widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), s.showSettings)
	hideBtn := widget.NewButton("Hide", s.win.Hide)

	buttons := container.NewHBox(settingsBtn, layout.NewSpacer(), copyBtn, hideBtn)
	s.win.SetContent(container.NewBorder(s.progress, buttons, nil, nil, s.output))
	s.win.SetCloseIntercept(s.win.Hide)
}

// Run drains the queue on every post, and at least every 100ms, then blocks
// in the fyne main loop until Quit. It must be called from the main goroutine.
func (s *Surface) Run(ctx context.Context) {
	go s.drain(ctx)
	s.app.Run()
}

// Quit stops the fyne main loop.
func (s *Surface) Quit() {
	fyne.Do(s.app.Quit)
}

func (s *Surface) drain(ctx context.Context) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.queue.NotifyCh():
		}
		msgs := s.queue.Drain()
		if len(msgs) == 0 {
			continue
		}
		fyne.Do(func() { s.apply(msgs) })
	}
}

// apply must run on the UI goroutine.
func (s *Surface) apply(msgs []messages.Message) {
	eff := s.state.Apply(msgs)
	if eff.TextChanged {
		s.output.SetText(s.state.Text)
	}
	if eff.LoadingChanged {
		if s.state.Loading {
			s.progress.Show()
			s.progress.Start()
		} else {
			s.progress.Stop()
			s.progress.Hide()
		}
	}
	if eff.Raise {
		s.win.Show()
		s.win.RequestFocus()
	}
	if eff.OpenSettings {
		s.showSettings()
	}
}
