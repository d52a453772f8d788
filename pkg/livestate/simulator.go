package livestate

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// Simulator random-walks the operational state around its starting point.
// Counts always stay within [0, total].
type Simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	infra  models.InfrastructureConfig
	state  models.OperationalState
	params config.SimulationConfig
}

func NewSimulator(infra models.InfrastructureConfig, start models.OperationalState, params config.SimulationConfig) *Simulator {
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		rng:    rand.New(rand.NewSource(seed)),
		infra:  infra,
		state:  start,
		params: params,
	}
}

func (s *Simulator) Observe(ctx context.Context) (models.OperationalState, error) {
	if err := ctx.Err(); err != nil {
		return models.OperationalState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxStep := s.params.WorkstationJitter * float64(s.infra.TotalWorkstations)
	wsDelta := int(math.Round((s.rng.Float64()*2 - 1) * maxStep))
	srvDelta := 0
	if s.params.ServerJitter > 0 {
		srvDelta = s.rng.Intn(2*s.params.ServerJitter+1) - s.params.ServerJitter
	}

	s.state = models.OperationalState{
		ActiveWorkstations: bound(s.state.ActiveWorkstations+wsDelta, s.infra.TotalWorkstations),
		ActiveServers:      bound(s.state.ActiveServers+srvDelta, s.infra.TotalServers),
	}

	klog.V(4).InfoS("Simulated operational state",
		"activeWorkstations", s.state.ActiveWorkstations,
		"activeServers", s.state.ActiveServers)
	return s.state, nil
}

func (s *Simulator) Name() string {
	return config.FeederSimulator
}

func bound(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
