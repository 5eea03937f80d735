package observability

import (
	"context"
	"testing"
	"time"

	"fintrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsProvider_Disabled(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordScheduleExecution("scheduled", "success")
		mp.RecordScan(3, 2, 1, time.Second)
		mp.RecordSnapshot(1234.5)
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_NilIsSafe(t *testing.T) {
	t.Parallel()

	var mp *MetricsProvider
	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() {
		mp.RecordScan(1, 1, 0, time.Millisecond)
	})
}

func TestMetricsProvider_ExporterTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		exporter string
		enabled  bool
		wantErr  bool
	}{
		{exporter: "none", enabled: false},
		{exporter: "console", enabled: true},
		{exporter: "prometheus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.exporter, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewTestConfig()
			cfg.OTelEnabled = true
			cfg.OTelExporterType = tt.exporter
			cfg.OTelExportIntervalMillis = 60000

			mp := NewMetricsProvider(cfg)
			err := mp.Initialize(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, mp.isEnabled())

			mp.RecordScheduleExecution("manual", "success")
			mp.RecordScan(2, 2, 0, 150*time.Millisecond)
			mp.RecordSnapshot(42)

			// Initialize is idempotent
			require.NoError(t, mp.Initialize(context.Background()))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, mp.Shutdown(ctx))
		})
	}
}
