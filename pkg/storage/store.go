package storage

import (
	"context"
	"errors"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// ErrNotFound is returned when no snapshot matches
var ErrNotFound = errors.New("snapshot not found")

// Store defines the interface for snapshot history
type Store interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	// ListSnapshots returns up to limit snapshots, newest first
	ListSnapshots(ctx context.Context, limit int) ([]*models.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)

	Ping(ctx context.Context) error
	Close() error
}

// New returns a PostgresStore when storage is enabled, a MemoryStore otherwise
func New(cfg *config.Config) (Store, error) {
	if cfg.StorageEnabled {
		store, err := NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return NewMemoryStore(cfg.HistoryLimit), nil
}
