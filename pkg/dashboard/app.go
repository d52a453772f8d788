package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/datasource"
	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/livestate"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
	"github.com/leonardobora/eco-dashboard-renault/pkg/storage"
	"github.com/leonardobora/eco-dashboard-renault/pkg/telemetry"
)

// ReferenceSource marks the built-in snapshot served before the first good refresh
const ReferenceSource = "reference"

// App owns the dashboard's view state: the last good snapshot and its subscribers.
// Refresh never fails; when collection breaks it serves the last good snapshot as stale.
type App struct {
	engine  *engine.Engine
	source  datasource.Source
	feeder  livestate.Feeder
	store   storage.Store
	metrics *telemetry.Metrics

	mu      sync.RWMutex
	last    *models.Snapshot
	lastErr error

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(*models.Snapshot)
}

type Option func(*App)

// WithFeeder sets the live state feeder consulted before every refresh
func WithFeeder(f livestate.Feeder) Option {
	return func(a *App) { a.feeder = f }
}

// WithStore persists every good snapshot
func WithStore(s storage.Store) Option {
	return func(a *App) { a.store = s }
}

func WithTelemetry(m *telemetry.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

func NewApp(eng *engine.Engine, src datasource.Source, opts ...Option) *App {
	a := &App{
		engine:      eng,
		source:      src,
		last:        referenceSnapshot(),
		subscribers: make(map[int]func(*models.Snapshot)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func referenceSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Source:      ReferenceSource,
		Metrics:     models.ReferenceMetrics(),
		State:       models.ReferenceState(),
		CollectedAt: time.Now(),
		Stale:       true,
	}
}

// Refresh runs one collection cycle and returns the snapshot to render
func (a *App) Refresh(ctx context.Context) *models.Snapshot {
	snap, err := a.collect(ctx)
	if err != nil {
		klog.ErrorS(err, "Refresh failed, serving last good snapshot", "source", a.source.Name())
		if a.metrics != nil {
			a.metrics.RecordFailure()
		}

		a.mu.Lock()
		a.lastErr = err
		fallback := *a.last
		a.mu.Unlock()

		fallback.Stale = true
		a.notify(&fallback)
		return &fallback
	}

	a.mu.Lock()
	a.last = snap
	a.lastErr = nil
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.Record(snap)
	}
	if a.store != nil {
		stored := *snap
		if err := a.store.SaveSnapshot(ctx, &stored); err != nil {
			klog.ErrorS(err, "Failed to persist snapshot", "id", snap.ID)
		}
	}

	klog.V(2).InfoS("Refreshed metrics",
		"source", snap.Source,
		"consumption", snap.Metrics.CurrentConsumption,
		"emissions", snap.Metrics.AnnualEmissions,
		"trees", snap.Metrics.TreeEquivalent)

	cp := *snap
	a.notify(&cp)
	return &cp
}

func (a *App) collect(ctx context.Context) (*models.Snapshot, error) {
	if a.feeder != nil {
		state, err := a.feeder.Observe(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s feeder: %w", a.feeder.Name(), err)
		}
		if err := a.engine.SetState(state); err != nil {
			return nil, err
		}
	}

	snap, err := a.source.GetMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", a.source.Name(), err)
	}
	return snap, nil
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
// A slow refresh delays the next one; ticks are never run concurrently.
func (a *App) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", interval)
	}

	klog.InfoS("Starting dashboard refresh loop", "interval", interval, "source", a.source.Name())
	a.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			klog.InfoS("Dashboard refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			a.Refresh(ctx)
		}
	}
}

// Current returns a copy of the last good snapshot
func (a *App) Current() *models.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := *a.last
	return &cp
}

// LastError is the error of the most recent refresh, nil after a success
func (a *App) LastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// History lists persisted snapshots, newest first
func (a *App) History(ctx context.Context, limit int) ([]*models.Snapshot, error) {
	if a.store == nil {
		return []*models.Snapshot{}, nil
	}
	return a.store.ListSnapshots(ctx, limit)
}

func (a *App) Engine() *engine.Engine {
	return a.engine
}

func (a *App) Source() datasource.Source {
	return a.source
}

func (a *App) Store() storage.Store {
	return a.store
}

// Subscribe registers fn to receive every rendered snapshot.
// The returned function removes the subscription.
func (a *App) Subscribe(fn func(*models.Snapshot)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	a.subscribers[id] = fn

	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subscribers, id)
	}
}

func (a *App) notify(snap *models.Snapshot) {
	a.subMu.Lock()
	subs := make([]func(*models.Snapshot), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		subs = append(subs, fn)
	}
	a.subMu.Unlock()

	for _, fn := range subs {
		cp := *snap
		fn(&cp)
	}
}
