package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nspcc-dev/statetrie/cli/options"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/statemgr"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCommands returns 'serve' command.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:      "serve",
			Usage:     "Restore the final tree version and serve its metrics until interrupted",
			UsageText: "statetrie serve [--config-file file] [--debug]",
			Action:    serve,
			Flags:     options.Common,
		},
	}
}

func serve(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, logLevel, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("could not open DB: %w", err), 1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close DB", zap.Error(err))
		}
	}()

	mgr, err := statemgr.New(cfg.ApplicationConfiguration.Trie, store, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	final := mgr.FinalVersion()
	h, _ := mgr.RootProofHash(final)
	log.Info("final version restored",
		zap.String("version", final),
		zap.Stringer("root", h),
		zap.Strings("persisted", mgr.PersistedVersions()))

	grace, cancel := context.WithCancel(newGraceContext())
	defer cancel()
	return runServices(grace, cfg.ApplicationConfiguration, log, logLevel, ctx.Bool("debug"), ctx.String("config-file"))
}

func runServices(grace context.Context, cfg config.ApplicationConfiguration, log *zap.Logger, logLevel *zap.AtomicLevel, debug bool, configFile string) error {
	prometheus := metrics.NewPrometheusService(cfg.Prometheus, log)
	pprof := metrics.NewPprofService(cfg.Pprof, log)
	if err := prometheus.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	defer prometheus.ShutDown()
	if err := pprof.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Pprof service: %w", err), 1)
	}
	defer pprof.ShutDown()

	sighupCh := make(chan os.Signal, 1)
	signal.Notify(sighupCh, syscall.SIGHUP)
	defer signal.Stop(sighupCh)

	for {
		select {
		case <-sighupCh:
			if debug {
				log.Info("SIGHUP received, but --debug is set, log level is not changed")
				continue
			}
			newCfg, err := config.Load(configFile)
			if err != nil {
				log.Error("SIGHUP received, but failed to reload config", zap.Error(err))
				continue
			}
			lvl := zapcore.InfoLevel
			if l := newCfg.ApplicationConfiguration.LogLevel; l != "" {
				lvl, _ = zapcore.ParseLevel(l) // Validated by config.Load.
			}
			log.Info("SIGHUP received, changing log level", zap.Stringer("level", lvl))
			logLevel.SetLevel(lvl)
		case <-grace.Done():
			log.Info("shutting down")
			return nil
		}
	}
}

// newGraceContext returns a context cancelled on SIGINT or SIGTERM.
func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}
