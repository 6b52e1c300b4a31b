package eventloop

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gpttrans/src/clipboard"
	"gpttrans/src/config"
	"gpttrans/src/llm"
	"gpttrans/src/logutil"
	"gpttrans/src/messages"
	"gpttrans/src/worker"
)

// User-visible notices.
const (
	NoticeBusy         = "Translation in progress, please wait."
	NoticeMissingKey   = "Missing API key. Set OPENAI_API_KEY or open Settings."
	NoticeEmpty        = "Clipboard is empty."
	NoticeTranslating  = "Translating…"
	NoticeCopied       = "Translation copied to clipboard."
	NoticeWriteFailed  = "Translated. Failed to write clipboard."
	defaultDeadline    = 120 * time.Second
	defaultTrayBacklog = 8
)

type Translator interface {
	Stream(ctx context.Context, req llm.Request, onFragment func(string)) (string, error)
}

type Clipboard interface {
	Capture() clipboard.Payload
	WriteText(s string) bool
}

type Notifier interface {
	Notify(msg string)
}

type ConfigSource interface {
	Snapshot() config.Config
}

type Options struct {
	Display  messages.Sink
	Notifier Notifier
	Logger   *zap.SugaredLogger
	// Deadline bounds one translation. Zero means 120s.
	Deadline time.Duration
	// BeforeCapture runs on the loop goroutine right before the clipboard
	// is read.
	BeforeCapture func()
	// OnBusyChange is called on the loop goroutine whenever a translation
	// starts or finishes.
	OnBusyChange func(busy bool)
}

// Loop is the single-threaded coordinator for hotkey and tray events. All
// state below is owned by the Run goroutine.
type Loop struct {
	cfg        ConfigSource
	translator Translator
	clip       Clipboard
	display    messages.Sink
	notifier   Notifier
	logger     *zap.SugaredLogger

	pool          *worker.Pool
	busy          bool
	lastText      string
	results       chan result
	hotkeyCh      chan struct{}
	trayCh        chan messages.TrayAction
	done          chan struct{}
	deadline      time.Duration
	beforeCapture func()
	onBusyChange  func(bool)
}

type result struct {
	text   string
	err    error
	cancel context.CancelFunc
}

func New(cfg ConfigSource, translator Translator, clip Clipboard, opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	display := opts.Display
	if display == nil {
		display = discardSink{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}

	return &Loop{
		cfg:           cfg,
		translator:    translator,
		clip:          clip,
		display:       display,
		notifier:      notifier,
		logger:        logger,
		pool:          worker.New(1, logger),
		results:       make(chan result, 1),
		hotkeyCh:      make(chan struct{}, 4),
		trayCh:        make(chan messages.TrayAction, defaultTrayBacklog),
		done:          make(chan struct{}),
		deadline:      deadline,
		beforeCapture: opts.BeforeCapture,
		onBusyChange:  opts.OnBusyChange,
	}
}

// HotkeyPressed queues one hotkey event. It never blocks; presses beyond
// the small backlog are dropped.
func (l *Loop) HotkeyPressed() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
		l.logger.Warnw("hotkey backlog full, press dropped")
	}
}

// TrayAction queues a tray intent. It returns immediately once the loop
// has stopped.
func (l *Loop) TrayAction(a messages.TrayAction) {
	select {
	case l.trayCh <- a:
	case <-l.done:
	}
}

// Deadline returns the per-translation deadline.
func (l *Loop) Deadline() time.Duration { return l.deadline }

// Run processes events until ctx is cancelled or Quit is chosen. Quit
// returns nil; in-flight translations are cancelled, not drained.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer close(l.done)
	defer l.pool.Close()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleHotkey(ctx)
		case a := <-l.trayCh:
			if l.handleTray(a) {
				return nil
			}
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.onBusyChange != nil {
		l.onBusyChange(b)
	}
}

func (l *Loop) notice(msg string) {
	l.notifier.Notify(msg)
}

func (l *Loop) handleTray(a messages.TrayAction) (quit bool) {
	l.logger.Infow("tray action", "action", a.String())
	switch a {
	case messages.TrayQuit:
		return true
	case messages.TrayOpenSettings:
		l.display.Post(messages.OpenSettings{})
	case messages.TrayShowWindow:
		if l.busy {
			l.display.Post(messages.ShowWindow{})
		} else {
			l.display.Post(messages.ShowText{Text: l.lastText})
		}
	}
	return false
}

func (l *Loop) handleHotkey(ctx context.Context) {
	if l.busy {
		l.logger.Infow("hotkey ignored, translation in progress")
		l.notice(NoticeBusy)
		return
	}

	cfg := l.cfg.Snapshot()
	if cfg.MissingAPIKey() {
		l.logger.Warnw("hotkey ignored, API key missing", "provider", cfg.Provider)
		l.notice(NoticeMissingKey)
		return
	}

	if l.beforeCapture != nil {
		l.beforeCapture()
	}
	payload := l.clip.Capture()
	if payload.Kind == clipboard.Empty {
		l.logger.Infow("hotkey ignored, clipboard empty")
		l.notice(NoticeEmpty)
		return
	}

	req := llm.NewRequest(cfg, payload.Text, payload.Image, payload.MIME)
	l.logger.Infow("translation started",
		"payload", payload.String(),
		"provider", cfg.Provider,
		"model", cfg.Model,
		"target_lang", cfg.TargetLang,
		"api_key", logutil.RedactKey(cfg.APIKey))

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	l.setBusy(true)
	l.display.Post(messages.SetLoading{Loading: true})
	l.display.Post(messages.ShowText{Text: ""})
	l.notice(NoticeTranslating)

	submitted := l.pool.Submit(jobCtx, func(jobCtx context.Context) {
		l.translate(ctx, jobCtx, req, cancel)
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		l.display.Post(messages.SetLoading{Loading: false})
		l.notice(NoticeBusy)
	}
}

// translate runs on the worker. Fragments go straight to the display; the
// outcome is handed back to the loop goroutine.
func (l *Loop) translate(parent, jobCtx context.Context, req llm.Request, cancel context.CancelFunc) {
	res := result{cancel: cancel}
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("translation panicked: %v", r)
		}
		select {
		case l.results <- res:
		case <-parent.Done():
			cancel()
		}
	}()

	res.text, res.err = l.translator.Stream(jobCtx, req, func(fragment string) {
		if fragment != "" {
			l.display.Post(messages.AppendText{Text: fragment})
		}
	})
}

func (l *Loop) handleResult(res result) {
	defer func() {
		if res.cancel != nil {
			res.cancel()
		}
		l.setBusy(false)
		l.display.Post(messages.SetLoading{Loading: false})
	}()

	if res.err != nil {
		msg := res.err.Error()
		l.logger.Errorw("translation failed", "error", res.err)
		l.notice("Error: " + msg)
		l.display.Post(messages.AppendText{Text: "\n[error] " + msg})
		return
	}

	l.logger.Infow("translation finished", "chars", len([]rune(res.text)), "preview", logutil.Preview(res.text, 80))
	if l.clip.WriteText(res.text) {
		l.notice(NoticeCopied)
	} else {
		l.logger.Warnw("failed to write translation to clipboard")
		l.notice(NoticeWriteFailed)
	}
	l.display.Post(messages.ShowText{Text: res.text})
	l.lastText = res.text
}

type discardSink struct{}

func (discardSink) Post(messages.Message) {}

type discardNotifier struct{}

func (discardNotifier) Notify(string) {}
