package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

// Prober is implemented by the analyzer; a probe is a minimal end-to-end run
// through the inference pipeline.
type Prober interface {
	Probe(ctx context.Context) error
}

func MonitorAnalyzerHealth(ctx context.Context, healthy *atomic.Bool, prober Prober) {
	ticker := time.NewTicker(time.Second * HEALTHCHECK_TIMER)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := prober.Probe(ctx)
			healthy.Store(err == nil)
			if err != nil {
				slog.Warn("[HealthCheck] Analyzer is unhealthy",
					slog.String("error", err.Error()))
			}
		}
	}
}
