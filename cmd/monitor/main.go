// monitor runs the behavioral monitoring pipeline: observers feed raw
// activity into the classify/accumulate/threshold/alert core.
// Set DATABASE_URL plus either KAFKA_BROKERS (alerts via cmd/worker) or
// ALERT_WEBHOOK_URL (direct delivery).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"insider-sentinel/monitor/internal/alert"
	"insider-sentinel/monitor/internal/alert/producer"
	"insider-sentinel/monitor/internal/alert/webhook"
	"insider-sentinel/monitor/internal/classify"
	"insider-sentinel/monitor/internal/config"
	"insider-sentinel/monitor/internal/db"
	eventrepo "insider-sentinel/monitor/internal/event/repository"
	"insider-sentinel/monitor/internal/logging"
	"insider-sentinel/monitor/internal/monitor"
	"insider-sentinel/monitor/internal/observer"
	"insider-sentinel/monitor/internal/policy"
	"insider-sentinel/monitor/internal/session"
	"insider-sentinel/monitor/internal/telemetry"
	otelx "insider-sentinel/monitor/internal/telemetry/otel"
	"insider-sentinel/monitor/internal/threshold"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	table, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		sugar.Fatalw("policy load failed", "path", cfg.PolicyFile, "error", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelx.NewProviders(ctx, cfg.OTLPEndpoint, "insider-sentinel-monitor", cfg.OTLPInsecure)
	if err != nil {
		sugar.Fatalw("telemetry setup failed", "error", err)
	}
	providers.SetGlobal()
	emitter := otelx.NewEventEmitter(providers.LoggerProvider)

	var notifier alert.Notifier
	switch {
	case len(cfg.AlertKafkaBrokersList()) > 0:
		notifier = producer.NewKafkaNotifier(cfg.AlertKafkaBrokersList(), cfg.AlertKafkaTopic)
		sugar.Infow("alerting via kafka", "topic", cfg.AlertKafkaTopic)
	case cfg.AlertWebhookURL != "":
		notifier = webhook.NewNotifier(cfg.AlertWebhookURL)
		sugar.Infow("alerting via webhook", "url", cfg.AlertWebhookURL)
	default:
		sugar.Fatal("no alert transport: set KAFKA_BROKERS or ALERT_WEBHOOK_URL")
	}

	repo := eventrepo.NewPostgresRepository(conn)
	svc := monitor.NewService(
		classify.New(table.Keywords(), table.DefaultCategory()),
		session.NewTracker(),
		repo,
		threshold.NewEvaluator(repo, table),
		alert.NewCoordinator(notifier, cfg.NotifyTimeoutDuration(), cfg.Device(), sugar),
		table,
		emitter,
		cfg.Device(),
		sugar,
	)

	var wg sync.WaitGroup

	if cfg.WatchPath != "" {
		watcher := observer.NewFileWatcher(cfg.WatchPath, cfg.SubjectID, svc, sugar)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				sugar.Errorw("file watcher exited", "error", err)
			}
		}()
	}

	if cfg.AppProbeCmd != "" {
		apps := observer.NewAppFocusWatch(observer.CommandProbe(cfg.AppProbeCmd), cfg.SubjectID, svc, sugar)
		poller := observer.NewPoller("app-focus", cfg.AppPollIntervalDuration(), apps.Sample, sugar)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	if cfg.DeviceMountsPath != "" {
		devices := observer.NewDeviceWatch(cfg.DeviceMountsPath, cfg.SubjectID, svc, sugar)
		poller := observer.NewPoller("removable-storage", cfg.DevicePollIntervalDuration(), devices.Sample, sugar)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	sugar.Infow("monitor started",
		"subject_id", cfg.SubjectID, "device", cfg.Device(),
		"watch_path", cfg.WatchPath, "policy_file", cfg.PolicyFile)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sugar.Info("shutting down...")
	cancel()
	wg.Wait()

	// Let in-flight async telemetry emits finish before tearing providers down.
	time.Sleep(telemetry.ShutdownDrainDuration)

	if err := notifier.Close(); err != nil {
		sugar.Errorw("notifier close failed", "error", err)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("telemetry shutdown failed", "error", err)
	}
	sugar.Info("monitor stopped")
}
