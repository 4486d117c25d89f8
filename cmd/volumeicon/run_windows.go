//go:build windows

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-ole/go-ole"

	"github.com/urraka/volumeicon/internal/audio"
	"github.com/urraka/volumeicon/internal/config"
	"github.com/urraka/volumeicon/internal/health"
	"github.com/urraka/volumeicon/internal/icons"
	"github.com/urraka/volumeicon/internal/ipc"
	"github.com/urraka/volumeicon/internal/logging"
	"github.com/urraka/volumeicon/internal/status"
	"github.com/urraka/volumeicon/internal/tray"
)

// shutdownGrace bounds how long run waits for the status server to stop.
const shutdownGrace = 2 * time.Second

const sFalse = 1

// app is handed to the window procedure. Every field is touched only on the
// UI thread.
type app struct {
	bridge     *audio.Bridge
	monitor    *audio.Monitor
	controller *status.Controller
}

func (a *app) HandleSignal() {
	if a.controller == nil {
		return
	}
	a.controller.Handle(a.bridge.Take())
}

func (a *app) HandleClose() {
	if a.controller == nil {
		return
	}
	if err := a.controller.Stop(); err != nil {
		log.Warn("removing tray icon failed", logging.KeyError, err)
	}
}

func runTray(ctx context.Context, cfg *config.Config) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ln, err := ipc.Listen(cfg.PipeName)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return fmt.Errorf("volumeicon is already running")
		}
		return err
	}
	serving := false
	defer func() {
		if !serving {
			ln.Close()
		}
	}()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	a := &app{}
	w, err := tray.New(a)
	if err != nil {
		return err
	}
	a.bridge = audio.NewBridge(w.Wake)
	defer a.bridge.Close()

	enum, err := audio.NewEnumerator()
	if err != nil {
		w.Destroy()
		return err
	}
	a.monitor = audio.NewMonitor(enum, a.bridge)
	defer a.monitor.Dispose()
	if err := a.monitor.Initialize(); err != nil {
		w.Destroy()
		return fmt.Errorf("initialize audio: %w", err)
	}

	table, err := buildIcons(cfg)
	if err != nil {
		w.Destroy()
		return err
	}
	defer table.Destroy()

	hm := health.NewMonitor()
	a.controller = status.New(a.monitor, table, w, hm, status.Options{
		TooltipFormat: cfg.TooltipFormat,
		MuteIcon:      cfg.MuteIcon,
	})
	if err := a.controller.Start(); err != nil {
		w.Destroy()
		return err
	}
	defer a.controller.Stop()

	srv := ipc.NewServer(version)
	srv.Handle(ipc.TypeStatus, func(context.Context, json.RawMessage) (any, error) {
		return a.controller.Snapshot(), nil
	})
	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	srvDone := make(chan error, 1)
	serving = true
	go func() { srvDone <- srv.Serve(srvCtx, ln) }()

	quit := make(chan struct{})
	defer close(quit)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.Info("shutdown signal received", "signal", sig.String())
			w.Close()
		case <-ctx.Done():
			w.Close()
		case <-quit:
		}
	}()

	log.Info("volumeicon running", logging.KeyEndpoint, a.monitor.EndpointID(), "pipe", cfg.PipeName)
	loopErr := w.Run()

	cancel()
	select {
	case err := <-srvDone:
		if err != nil {
			log.Warn("status server stopped with error", logging.KeyError, err)
		}
	case <-time.After(shutdownGrace):
		log.Warn("status server did not stop in time")
	}

	log.Info("volumeicon stopped")
	return loopErr
}

func buildIcons(cfg *config.Config) (*icons.Table, error) {
	factory, err := icons.NewHICONFactory()
	if err != nil {
		return nil, err
	}
	defer factory.Close()
	return icons.Build(factory, cfg.ForegroundColor())
}
