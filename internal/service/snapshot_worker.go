package service

import (
	"context"
	"sync"
	"time"

	"github.com/jeninefer/commercial-view/internal/websocket"
	"github.com/rs/zerolog"
)

// SnapshotWorker is a background worker that periodically recomputes the
// arrears snapshot, captures the KPI series, and runs the alert detectors.
type SnapshotWorker struct {
	portfolioService *PortfolioService
	kpiService       *KPIService
	alertService     *AlertService
	publisher        websocket.EventPublisher
	logger           zerolog.Logger
	interval         time.Duration
	stopCh           chan struct{}
	doneCh           chan struct{}
	mu               sync.Mutex
	running          bool
}

// SnapshotWorkerConfig holds configuration for the snapshot worker
type SnapshotWorkerConfig struct {
	Interval time.Duration // How often to recompute the snapshot
}

// DefaultSnapshotWorkerConfig returns sensible defaults
func DefaultSnapshotWorkerConfig() SnapshotWorkerConfig {
	return SnapshotWorkerConfig{
		Interval: 1 * time.Hour,
	}
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(
	portfolioService *PortfolioService,
	kpiService *KPIService,
	alertService *AlertService,
	publisher websocket.EventPublisher,
	logger zerolog.Logger,
	config SnapshotWorkerConfig,
) *SnapshotWorker {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Hour
	}
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}

	return &SnapshotWorker{
		portfolioService: portfolioService,
		kpiService:       kpiService,
		alertService:     alertService,
		publisher:        publisher,
		logger:           logger.With().Str("component", "snapshot_worker").Logger(),
		interval:         config.Interval,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start begins the background snapshot loop
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting snapshot worker")

	go w.run(ctx)
}

// Stop gracefully stops the snapshot worker
func (w *SnapshotWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping snapshot worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Snapshot worker stopped")
}

// IsRunning reports whether the worker loop is active
func (w *SnapshotWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// run is the main loop for the snapshot worker
func (w *SnapshotWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Run immediately on startup
	w.runOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.runOnce()
		}
	}
}

// runOnce executes one full snapshot cycle: arrears, KPIs, detectors.
func (w *SnapshotWorker) runOnce() {
	startTime := time.Now()

	records, err := w.portfolioService.Recalculate(time.Time{}, 0)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to recalculate arrears snapshot")
		return
	}

	summary, err := w.kpiService.Summary()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to compute KPI summary")
		return
	}
	if err := w.kpiService.CaptureSnapshots(summary, startTime.UTC()); err != nil {
		w.logger.Error().Err(err).Msg("Failed to persist KPI snapshots")
		return
	}

	fired, err := w.alertService.EvaluateAll()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to evaluate alert detectors")
		return
	}

	w.publisher.Publish(websocket.TopicSnapshots, websocket.SnapshotCompleted(summary))

	w.logger.Info().
		Int("loans", len(records)).
		Int("alerts", len(fired)).
		Dur("duration", time.Since(startTime)).
		Msg("Snapshot cycle completed")
}
