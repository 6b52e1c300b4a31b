package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gpttrans/src/clipboard"
	"gpttrans/src/config"
	"gpttrans/src/eventloop"
	"gpttrans/src/gui"
	"gpttrans/src/messages"
	"gpttrans/src/notification"
	"gpttrans/src/runtimeinit"
	"gpttrans/src/singleinstance"
	"gpttrans/src/tray"
)

const startupPingTimeout = 10 * time.Second

func main() {
	enableDPIAwareness()

	if err := run(); err != nil {
		notification.ShowBlockingError("GPTTrans", err.Error())
		os.Exit(1)
	}
}

func run() error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{})
	if err != nil {
		return err
	}
	logger := rt.Logger
	defer func() { _ = logger.Sync() }()
	logMonitorConfiguration(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := messages.NewQueue()
	notifier := notification.New(logger)

	var loop *eventloop.Loop
	trayIcon := tray.New(func(a messages.TrayAction) { loop.TrayAction(a) }, logger)

	loopOpts := eventloop.Options{
		Display:      queue,
		Notifier:     notifier,
		Logger:       logger,
		Deadline:     rt.Settings.RequestTimeout(),
		OnBusyChange: trayIcon.SetBusy,
	}
	if rt.Settings.AutoCopy {
		loopOpts.BeforeCapture = func() {
			if err := clipboard.CopySelection(); err != nil {
				logger.Warnw("failed to copy selection", "error", err)
			}
		}
	}
	loop = eventloop.New(rt.Store, rt.Client, rt.Clipboard, loopOpts)

	resident := singleinstance.NewServer(rt.Settings.InstancePort, residentHandler(loop), logger)
	if err := resident.Start(ctx); err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			return showResident(ctx, rt.Settings.InstancePort, logger)
		}
		return err
	}
	defer resident.Close()

	binder := newHotkeyBinder(rt.Settings.HotkeyBackend, loop.HotkeyPressed, notifier, logger)
	binder.bind(rt.Store.Snapshot().Hotkey)

	surface := gui.New(queue, rt.Store, gui.Options{
		Logger:   logger,
		Pinger:   rt.Client,
		CopyText: rt.Clipboard.WriteText,
		OnSaved: func(prev, next config.Config) {
			if prev.Hotkey != next.Hotkey {
				binder.bind(next.Hotkey)
			}
		},
	})

	go trayIcon.Run()
	go startupCheck(ctx, rt.Store.Snapshot(), rt.Client, notifier, logger)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			logger.Infow("signal received", "signal", s.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		err := loop.Run(ctx)
		logger.Infow("event loop stopped", "error", err)
		binder.Close()
		trayIcon.Quit()
		// Any in-flight request is abandoned once the fyne loop returns.
		surface.Quit()
	}()

	logger.Infow("GPTTrans started", "hotkey", rt.Store.Snapshot().Hotkey.String())
	surface.Run(ctx)
	return nil
}

// residentLoop is the part of the event loop later launches can reach.
type residentLoop interface {
	HotkeyPressed()
	TrayAction(a messages.TrayAction)
}

func residentHandler(loop residentLoop) singleinstance.Handler {
	return func(cmd singleinstance.Command) error {
		switch cmd {
		case singleinstance.CmdShow:
			loop.TrayAction(messages.TrayShowWindow)
		case singleinstance.CmdTrigger:
			loop.HotkeyPressed()
		default:
			return fmt.Errorf("unsupported command %s", cmd)
		}
		return nil
	}
}

// showResident asks the instance that owns the port to raise its window.
func showResident(ctx context.Context, port int, logger *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := singleinstance.NewClient(port).Send(ctx, singleinstance.CmdShow); err != nil {
		return fmt.Errorf("GPTTrans port %d is in use by another program: %w", port, err)
	}
	logger.Infow("GPTTrans already running, window raised", "port", port)
	return nil
}

type pinger interface {
	Ping(ctx context.Context, cfg config.Config) error
}

type notifier interface {
	Notify(msg string)
}

// startupCheck reports an unreachable provider once, without blocking
// startup.
func startupCheck(ctx context.Context, cfg config.Config, p pinger, n notifier, logger *zap.SugaredLogger) {
	if cfg.MissingAPIKey() {
		n.Notify(eventloop.NoticeMissingKey)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	err := p.Ping(ctx, cfg)
	if msg := startupNotice(cfg, err); msg != "" {
		logger.Warnw("startup check failed", "provider", cfg.Provider, "error", err)
		n.Notify(msg)
		return
	}
	logger.Infow("startup check succeeded", "provider", cfg.Provider)
}

func startupNotice(cfg config.Config, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s is unreachable: %v", cfg.Provider, err)
}
