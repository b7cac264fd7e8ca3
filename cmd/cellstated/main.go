// Command cellstated runs the cellular service-state tracker against a
// simulated modem and serves it over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/radio-control/cellstate/internal/api"
	"github.com/radio-control/cellstate/internal/audit"
	"github.com/radio-control/cellstate/internal/auth"
	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/config"
	"github.com/radio-control/cellstate/internal/modem/sim"
	"github.com/radio-control/cellstate/internal/notify"
	"github.com/radio-control/cellstate/internal/props"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/telemetry"
	"github.com/radio-control/cellstate/internal/tracker"
)

// Version is set at build time.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "cellstated: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logFile, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.Info("starting cellstated", "version", Version)

	store, err := openProps(cfg.Props)
	if err != nil {
		return err
	}

	policy, err := cfg.Roaming.Policy()
	if err != nil {
		return fmt.Errorf("invalid roaming configuration: %w", err)
	}
	simCfg, err := cfg.Modem.Sim()
	if err != nil {
		return fmt.Errorf("invalid modem configuration: %w", err)
	}

	// A nil *Verifier must not reach the middleware as a non-nil interface.
	var verifier auth.TokenVerifier
	v, err := auth.NewVerifierFromFiles(cfg.Server.AuthSecret, cfg.Server.AuthPublicKeyFile)
	switch {
	case errors.Is(err, auth.ErrNoKey):
		logger.Warn("no API key configured, authentication disabled")
	case err != nil:
		return fmt.Errorf("failed to configure authentication: %w", err)
	default:
		verifier = v
	}

	base := clocksync.NewSystemClock()
	device := clocksync.NewVirtualClock(base, store.Get(props.TimeZone, cfg.Clock.InitialZone))
	modem := sim.New(simCfg, base, logger)
	bus := notify.NewBus()

	var auditLog *audit.Logger
	if cfg.Audit.Dir != "" {
		auditLog, err = audit.NewLogger(cfg.Audit.Dir, audit.Options{
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
			Logger:     logger,
		})
		if err != nil {
			_ = modem.Close()
			return err
		}
		bus.SubscribeAll(auditLog.RecordEvent)
		logger.Info("audit trail enabled", "path", auditLog.Path())
	}

	tr, err := tracker.New(tracker.Options{
		Transport:        modem,
		Radio:            radiolink.NewObserver(modem.RadioState(), logger),
		Props:            store,
		Bus:              bus,
		Clock:            device,
		Setter:           device,
		Policy:           policy,
		Eri:              cfg.Roaming.EriTable(),
		ClockConfig:      cfg.Clock.Engine(),
		QueueSize:        cfg.Tracker.QueueSize,
		SignalPollPeriod: cfg.Tracker.SignalPollPeriod,
		Logger:           logger,
	})
	if err != nil {
		_ = modem.Close()
		return fmt.Errorf("failed to start tracker: %w", err)
	}
	modem.SetListener(tr)

	hub := telemetry.NewHub(cfg.Telemetry, func() interface{} { return tr.Status() }, logger)
	bus.SubscribeAll(hub.PublishNotify)

	opts := api.Options{
		Config:    cfg.Server,
		Tracker:   tr,
		Modem:     modem,
		Telemetry: hub,
		Auth:      auth.NewMiddleware(verifier, logger),
		Clock:     base,
		Logger:    logger,
	}
	if auditLog != nil {
		opts.Audit = auditLog
	}
	server := api.NewServer(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := tr.Dispose(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to dispose tracker: %w", err))
		}
		if err := modem.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close modem: %w", err))
		}
		if auditLog != nil {
			if err := auditLog.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close audit log: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error("cellstated stopped with error", "error", err)
		return err
	}
	logger.Info("cellstated stopped")
	return nil
}

// newLogger builds the JSON logger. With a log file configured, records go
// to stdout and to the rotated file.
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closer, nil
}

func openProps(cfg config.PropsConfig) (props.Store, error) {
	if cfg.File == "" {
		return props.NewMemStore(nil), nil
	}
	store, err := props.OpenFileStore(cfg.File)
	if err != nil {
		return nil, err
	}
	return store, nil
}
