//go:build linux

// halfqwerty-ibus is the IBus input method engine for Half-QWERTY typing.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/halfqwerty-ibus
//  2. Run: halfqwerty-ibus -install
//  3. Restart IBus: ibus restart
//  4. Enable via ibus-setup or GNOME Settings > Keyboard > Input Sources
//
// IBus starts the binary with -ibus. The engine keeps running until IBus
// stops it or it receives SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"halfqwerty/internal/config"
	"halfqwerty/internal/ibus"
	"halfqwerty/internal/logging"
	"halfqwerty/internal/metrics"
)

const metricsInterval = 30 * time.Second

func main() {
	installFlag := flag.Bool("install", false, "install the IBus component file")
	uninstallFlag := flag.Bool("uninstall", false, "remove the IBus component file")
	flag.Bool("ibus", false, "started by the IBus daemon")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	info := ibus.ComponentInfo{
		BusName:    cfg.IBus.BusName,
		EngineName: cfg.IBus.EngineName,
	}
	switch {
	case *installFlag:
		path, err := ibus.InstallComponent(cfg.IBus.ComponentDir, info)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to install: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Installed %s. Run 'ibus restart' to load.\n", path)
		return
	case *uninstallFlag:
		if err := ibus.UninstallComponent(cfg.IBus.ComponentDir, cfg.IBus.EngineName); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to uninstall: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Uninstalled.")
		return
	}

	if err := run(loader, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "halfqwerty-ibus: %v\n", err)
		os.Exit(1)
	}
}

func run(loader *config.Loader, cfg *config.Config) error {
	logCfg, err := logging.FromSettings(cfg.Logging, "ibus")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer log.Close()
	logging.SetDefault(log)

	lock, err := ibus.AcquireLock(cfg.IBus.LockPath)
	if errors.Is(err, ibus.ErrAlreadyRunning) {
		log.Warn("another engine instance holds the lock", "path", cfg.IBus.LockPath)
		return err
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	m := metrics.NewEngine(metrics.NewRegistry("halfqwerty"))
	crash := logging.NewCrashHandler(filepath.Join(config.DataDir(), "crashes"), "ibus", ibus.Version, log.Logger)
	crash.OnPanic(func(string) { m.Panicked() })

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	defer conn.Close()

	factory := ibus.NewFactory(conn, cfg, crash, log.Logger, m)

	loader.OnChange(factory.Apply)
	if err := loader.Watch(); err != nil {
		log.Warn("config hot reload disabled", "error", err)
	}
	defer loader.Close()
	go func() {
		for err := range loader.Errors() {
			log.Warn("config reload failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsDone := make(chan struct{})
	go func() {
		defer close(metricsDone)
		factory.MetricsLoop(ctx, cfg.IBus.MetricsPath, metricsInterval)
	}()

	log.Info("engine started",
		"bus_name", cfg.IBus.BusName,
		"layout", cfg.Engine.Layout,
		"protocol", cfg.Engine.Protocol)
	err = ibus.Serve(ctx, conn, factory, cfg.IBus.BusName, cfg.TickInterval())
	stop()
	<-metricsDone
	if err != nil {
		return err
	}
	log.Info("engine stopped")
	return nil
}
