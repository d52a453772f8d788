package livestate

import (
	"context"
	"fmt"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// Feeder observes how much equipment is currently powered on
type Feeder interface {
	Observe(ctx context.Context) (models.OperationalState, error)
	Name() string
}

// New builds the feeder named in the config. FeederNone returns a nil Feeder.
func New(cfg *config.Config) (Feeder, error) {
	switch cfg.StateFeeder {
	case config.FeederNone, "":
		return nil, nil
	case config.FeederSimulator:
		return NewSimulator(cfg.Infrastructure, cfg.InitialState, cfg.Simulation), nil
	case config.FeederPrometheus:
		f, err := NewPrometheusFeeder(cfg.Prometheus)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.FeederKubernetes:
		f, err := NewKubernetesFeeder(cfg.Kubernetes, cfg.InitialState)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown state feeder: %s", cfg.StateFeeder)
	}
}
