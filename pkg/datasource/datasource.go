package datasource

import (
	"context"
	"fmt"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// Source names, also recorded on every snapshot a source produces
const (
	LocalName  = "local"
	RemoteName = "remote"
)

// Source produces derived metrics for the dashboard
type Source interface {
	GetMetrics(ctx context.Context) (*models.Snapshot, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

// New picks the source implementation once, at startup
func New(cfg *config.Config, eng *engine.Engine) (Source, error) {
	switch cfg.DataSource {
	case config.SourceLocal, "":
		return NewLocalComputeSource(eng), nil
	case config.SourceRemote:
		return NewRemoteFetchSource(cfg.Remote.URL, cfg.Remote.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.DataSource)
	}
}
