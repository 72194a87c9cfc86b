package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"aerofly-bridge/internal/bridge"
	"aerofly-bridge/internal/config"
	"aerofly-bridge/internal/logbuf"
	"aerofly-bridge/internal/shutdown"
	"aerofly-bridge/internal/simapi"
	"aerofly-bridge/internal/state"
	"aerofly-bridge/internal/udp"
	"aerofly-bridge/internal/ws"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./aerofly-bridge.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := logbuf.New(2000)
	logOut := []io.Writer{os.Stderr, logs}
	if cfg.Log.File != "" {
		logOut = append(logOut, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: 1,
		})
	}
	log.SetOutput(io.MultiWriter(logOut...))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Bind both ports up front: a port already in use must abort
	// startup with a clear diagnostic, not limp along half-running.
	listener, err := udp.NewListener(cfg.UDP.Listen)
	if err != nil {
		log.Fatalf("udp listen failed: %v", err)
	}
	defer listener.Close()

	wsLn, err := net.Listen("tcp", cfg.WS.Listen)
	if err != nil {
		log.Fatalf("ws listen failed on %s: %v", cfg.WS.Listen, err)
	}

	store := state.NewStore()
	hub := ws.NewHub()
	status := bridge.NewStatus()

	writer := simapi.NewWriter(simapi.Config{
		Dir:      cfg.SimAPI.Dir,
		ATCID:    cfg.SimAPI.ATCID,
		Interval: cfg.SimAPI.WriteInterval,
		Status: func(writing bool) {
			w := writing
			hub.BroadcastStatus(ws.StatusUpdate{FileWriting: &w})
		},
	})

	monitor := ws.NewMonitor(hub, ws.MonitorConfig{
		Timeout:  cfg.Liveness.Timeout,
		Period:   cfg.Liveness.Period,
		LastData: store.LastData,
	})

	var notifier shutdown.Notifier = shutdown.NopNotifier{}
	if cfg.Shutdown.Command != "" {
		notifier = shutdown.NewCommandNotifier(cfg.Shutdown.Command, cfg.Shutdown.Args)
	}

	br := bridge.New(listener, store, hub, writer, monitor, status, bridge.Config{})
	status.SetStatic(cfg.UDP.Listen, cfg.WS.Listen, writer.Path())

	srv := ws.NewServer(hub)
	srv.Logs = logs
	srv.OnRadio = br.StageRadio
	var stopOnce sync.Once
	srv.OnShutdown = func() {
		stopOnce.Do(func() {
			// Best effort; the bridge's own shutdown does not wait on it.
			go notifier.Notify(context.Background())
			cancel()
		})
	}
	srv.Status = func(now time.Time) any {
		return status.Snapshot(now, hub.ClientCount(), monitor.Connected(), store.LastData())
	}

	log.Printf("aerofly-bridge starting")
	log.Printf("udp listen=%s ws listen=%s", cfg.UDP.Listen, cfg.WS.Listen)
	log.Printf("simapi file=%s", writer.Path())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx, wsLn); err != nil && ctx.Err() == nil {
			log.Printf("ws server stopped: %v", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	if err := br.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("ingress loop stopped: %v", err)
	}

	// Unblock the server and monitor, then let the close frames and the
	// HTTP shutdown finish before the process exits.
	cancel()
	wg.Wait()

	log.Printf("aerofly-bridge stopping")
}
