package datasource

import (
	"context"

	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// LocalComputeSource evaluates the in-process engine
type LocalComputeSource struct {
	engine *engine.Engine
}

func NewLocalComputeSource(eng *engine.Engine) *LocalComputeSource {
	return &LocalComputeSource{engine: eng}
}

func (l *LocalComputeSource) GetMetrics(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := l.engine.Snapshot()
	snap.Source = l.Name()
	return snap, nil
}

func (l *LocalComputeSource) IsAvailable(ctx context.Context) bool {
	return true
}

func (l *LocalComputeSource) Name() string {
	return LocalName
}
