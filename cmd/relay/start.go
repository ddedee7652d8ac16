package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nyxmora/relay/internal/activity"
	"github.com/nyxmora/relay/internal/config"
	"github.com/nyxmora/relay/internal/corrector"
	"github.com/nyxmora/relay/internal/cron"
	"github.com/nyxmora/relay/internal/dispatch"
	"github.com/nyxmora/relay/internal/gateway"
	"github.com/nyxmora/relay/internal/metrics"
	"github.com/nyxmora/relay/internal/telemetry"
)

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the relay gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return runStart(cfgPath)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func runStart(cfgPath string) error {
	cfg := config.Default()
	if cfgPath == "" {
		if found, ok := resolveConfigPath(); ok {
			cfgPath = found
		}
	}
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := config.Validate(loaded); err != nil {
			return err
		}
		cfg = loaded
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	if cfgPath != "" {
		logger.Info("configuration loaded", "path", cfgPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(promReg)

	reg, err := dispatch.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	dispatcher := dispatch.New(reg,
		dispatch.WithLogger(logger),
		dispatch.WithNormalizer(corrector.New()),
		dispatch.WithMetrics(m),
	)

	gwOpts := []gateway.Option{gateway.WithPrometheus(promReg)}

	if cfg.Cache.Enabled {
		gwOpts = append(gwOpts, gateway.WithResponseCache(cfg.Cache.TTLDuration()))
	}

	var log *activity.Log
	if cfg.Activity.Path != "" {
		log, err = activity.Open(cfg.Activity.Path)
		if err != nil {
			return err
		}
		defer func() { _ = log.Close() }()
		gwOpts = append(gwOpts, gateway.WithActivityLog(log))
	}

	scheduler := cron.NewScheduler(logger)
	if cfg.Report.Schedule != "" {
		job := &cron.UsageReportJob{
			Stats:        dispatcher,
			Logger:       logger,
			ScheduleExpr: cfg.Report.Schedule,
		}
		if log != nil {
			job.Activity = log
		}
		if err := scheduler.RegisterJob(job); err != nil {
			return err
		}
	}
	if log != nil {
		if err := scheduler.RegisterJob(&cron.ActivityPruneJob{Store: log, Logger: logger}); err != nil {
			return err
		}
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	gw := gateway.New(cfg.Gateway, dispatcher, logger, gwOpts...)
	if err := gw.Start(); err != nil {
		return err
	}

	logger.Info("relay started",
		"version", version,
		"providers", reg.Names(),
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := gw.Stop(shutdownCtx); err != nil {
		logger.Error("gateway shutdown failed", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", "error", err)
	}
	return nil
}
