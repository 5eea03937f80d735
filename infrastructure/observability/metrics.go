package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsProvider manages OpenTelemetry metrics for the scheduler and forecasting service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	executionsCounter   metric.Int64Counter
	scanRunsCounter     metric.Int64Counter
	scanDueHist         metric.Int64Histogram
	scanFailuresCounter metric.Int64Counter
	scanDurationHist    metric.Float64Histogram
	netWorthGauge       metric.Float64Gauge
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Info("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Infof("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(MetricPrefix)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.executionsCounter, err = mp.meter.Int64Counter(
		ScheduleExecutionsTotal,
		metric.WithDescription("Total number of recurring schedule executions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create executions counter: %w", err)
	}

	mp.scanRunsCounter, err = mp.meter.Int64Counter(
		ScanRunsTotal,
		metric.WithDescription("Total number of due-schedule scans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create scan runs counter: %w", err)
	}

	mp.scanDueHist, err = mp.meter.Int64Histogram(
		ScanDueSchedules,
		metric.WithDescription("Number of schedules due per scan"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create due schedules histogram: %w", err)
	}

	mp.scanFailuresCounter, err = mp.meter.Int64Counter(
		ScanFailuresTotal,
		metric.WithDescription("Total number of schedules that failed during scans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create scan failures counter: %w", err)
	}

	mp.scanDurationHist, err = mp.meter.Float64Histogram(
		ScanDuration,
		metric.WithDescription("Duration of due-schedule scans in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create scan duration histogram: %w", err)
	}

	mp.netWorthGauge, err = mp.meter.Float64Gauge(
		NetWorthValue,
		metric.WithDescription("Net worth at the latest daily snapshot"),
	)
	if err != nil {
		return fmt.Errorf("failed to create net worth gauge: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordScheduleExecution counts one execution attempt by trigger and outcome
func (mp *MetricsProvider) RecordScheduleExecution(trigger, outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.executionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelTrigger, trigger),
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// RecordScan records the outcome of one scanner tick
func (mp *MetricsProvider) RecordScan(due, successful, failed int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	mp.scanRunsCounter.Add(ctx, 1)
	mp.scanDueHist.Record(ctx, int64(due))
	if failed > 0 {
		mp.scanFailuresCounter.Add(ctx, int64(failed))
	}
	mp.scanDurationHist.Record(ctx, duration.Seconds())
}

// RecordSnapshot records the latest captured net worth
func (mp *MetricsProvider) RecordSnapshot(netWorth float64) {
	if !mp.isEnabled() {
		return
	}

	mp.netWorthGauge.Record(context.Background(), netWorth)
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
