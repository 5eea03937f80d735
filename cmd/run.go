package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/application"
	"fintrack/config"
	"fintrack/database"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"
	"fintrack/infrastructure"
	"fintrack/infrastructure/observability"
	"fintrack/scheduler"
	"fintrack/server"

	log "github.com/sirupsen/logrus"
)

const serviceName = "fintrack"

// ConfigureLogging sets the logrus formatter and level from the configuration
func ConfigureLogging(cfg *config.Config) {
	if cfg.Environment == "development" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// app holds the long-lived components shared by Run and the one-shot commands
type app struct {
	cfg        *config.Config
	db         *database.DB
	natsClient *infrastructure.NATSClient
	publisher  *infrastructure.NATSEventPublisher
	notifier   interfaces.Notifier
	metrics    *observability.MetricsProvider
	location   *time.Location

	scanner   *application.DueScheduleScanner
	snapshots *application.NetWorthSnapshotJob
	schedules *application.ScheduleService
	forecasts *application.ForecastService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	location, err := scheduler.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return nil, err
	}
	a.location = location

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	log.Info("Database connection established successfully")

	if cfg.NATSEnabled {
		log.WithField("servers", cfg.NATSServerList()).Info("Connecting to event bus...")
		a.natsClient = infrastructure.NewNATSClient(cfg.NATSServerList(), serviceName)
		if err := a.natsClient.Connect(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.publisher = infrastructure.NewNATSEventPublisher(a.natsClient, infrastructure.NewEventSubjectMapper(), serviceName)
		if err := a.publisher.EnsureDomainEventStream(); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to ensure domain event stream: %w", err)
		}
	} else {
		// Events are still delivered to in-process handlers
		a.publisher = infrastructure.NewNATSEventPublisher(nil, infrastructure.NewEventSubjectMapper(), serviceName)
	}

	if cfg.DiscordEnabled() {
		notifier, err := infrastructure.NewDiscordNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken, serviceName)
		if err != nil {
			a.close()
			return nil, err
		}
		a.notifier = notifier
		infrastructure.RegisterCompletionNotifier(a.publisher, notifier)
		log.Info("Discord notifications enabled")
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	a.metrics = observability.GetMetrics()

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, a.publisher)

	scanOpts := []application.ScannerOption{
		application.WithScanPublisher(a.publisher),
		application.WithScanMetrics(a.metrics),
		application.WithScanClock(func() time.Time { return time.Now().In(location) }),
	}
	if a.notifier != nil {
		scanOpts = append(scanOpts, application.WithScanNotifier(a.notifier))
	}

	a.scanner = application.NewDueScheduleScanner(uowFactory, application.DefaultExecutorFactory, scanOpts...)
	a.snapshots = application.NewNetWorthSnapshotJob(uowFactory, a.metrics)
	a.schedules = application.NewScheduleService(uowFactory, application.DefaultExecutorFactory, a.metrics)
	a.forecasts = application.NewForecastService(uowFactory, cfg.ForecastMaxDays,
		application.WithTrendLimits(cfg.TrendMaxPeriods, cfg.TrendMaxSteps))

	return a, nil
}

func (a *app) close() {
	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if a.db != nil {
		log.Info("Closing database connection...")
		a.db.Close()
	}
}

// Run starts the scheduler and HTTP API and blocks until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting fintrack...")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.location)
	scanJob := scheduler.NamedJob{JobName: "due-schedule-scan", Fn: a.scanner.Run}
	if err := sched.AddJob(cfg.ScanCron, scanJob); err != nil {
		return err
	}
	snapshotJob := scheduler.NamedJob{JobName: "net-worth-snapshot", Fn: a.snapshots.Run}
	if err := sched.AddJob(cfg.SnapshotCron, snapshotJob); err != nil {
		return err
	}
	sched.Start()
	if cfg.ScanOnStartup {
		sched.RunNow(scanJob)
	}

	srv := server.New(server.Config{
		Addr:                 cfg.HTTPAddr,
		Schedules:            a.schedules,
		Forecasts:            a.forecasts,
		HealthCheck:          a.db.Ready,
		ForecastDefaultDays:  cfg.ForecastDefaultDays,
		TrendDefaultPeriods:  cfg.TrendDefaultPeriods,
		TrendProjectionSteps: cfg.TrendProjectionSteps,
		Clock:                func() time.Time { return time.Now().In(a.location) },
	})

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down fintrack...")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("Scheduler jobs did not finish before shutdown timeout")
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// ScanOnce runs a single due-schedule scan for today and returns
func ScanOnce(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	defer func() {
		if err := observability.ShutdownGlobalMetrics(context.Background()); err != nil {
			log.WithError(err).Error("Error shutting down metrics")
		}
	}()

	summary, err := a.scanner.ScanOnce(ctx, time.Now().In(a.location))
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"due":        summary.Due,
		"successful": summary.Successful,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
	}).Info("Scan finished")
	return nil
}

// CaptureSnapshot stores today's net-worth snapshot and returns
func CaptureSnapshot(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	snapshot, err := a.snapshots.Capture(ctx, time.Now().In(a.location))
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"captured_on": entities.FormatDate(snapshot.CapturedOn),
		"net_worth":   snapshot.NetWorth.String(),
	}).Info("Snapshot captured")
	return nil
}
