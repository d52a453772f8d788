package engine

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// StatePolicy decides what happens to an operational state with counts
// outside [0, total].
type StatePolicy string

const (
	// PolicyReject refuses the state with an *InvalidStateError
	PolicyReject StatePolicy = "reject"
	// PolicyClamp clamps each count into [0, total]
	PolicyClamp StatePolicy = "clamp"
	// PolicyPassthrough accepts the state unchecked. Savings may go
	// negative when more workstations are active than installed.
	PolicyPassthrough StatePolicy = "passthrough"
)

// ParseStatePolicy converts a config string into a StatePolicy
func ParseStatePolicy(s string) (StatePolicy, error) {
	switch p := StatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyReject, PolicyClamp, PolicyPassthrough:
		return p, nil
	case "":
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown state policy: %s", s)
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used to pick the usage factor
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithStatePolicy sets how out-of-range operational states are handled
func WithStatePolicy(p StatePolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// Engine converts infrastructure configuration, operational state and the
// current hour into derived sustainability metrics. It performs no I/O.
//
// GetMetrics is not idempotent with respect to time: two calls made at
// different wall-clock hours can return different values for the same state.
type Engine struct {
	cfg    models.InfrastructureConfig
	policy StatePolicy
	now    func() time.Time

	mu              sync.RWMutex
	state           models.OperationalState
	lastConsumption float64
}

// New validates cfg and creates an engine holding the initial state
func New(cfg models.InfrastructureConfig, state models.OperationalState, opts ...Option) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		policy: PolicyReject,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.SetState(state); err != nil {
		return nil, err
	}
	e.lastConsumption = e.CurrentConsumption()

	return e, nil
}

// ValidateConfig checks the configuration invariants
func ValidateConfig(cfg models.InfrastructureConfig) error {
	counts := []struct {
		field string
		value int
	}{
		{"total_workstations", cfg.TotalWorkstations},
		{"total_servers", cfg.TotalServers},
		{"total_converged_nodes", cfg.TotalConvergedNodes},
	}
	for _, c := range counts {
		if c.value < 0 {
			return &ConfigurationError{Field: c.field, Value: float64(c.value), Reason: "must not be negative"}
		}
	}

	constants := []struct {
		field string
		value float64
	}{
		{"avg_workstation_watts", cfg.AvgWorkstationWatts},
		{"emission_factor", cfg.EmissionFactor},
		{"tree_sequestration", cfg.TreeSequestration},
		{"energy_tariff", cfg.EnergyTariff},
	}
	for _, c := range constants {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &ConfigurationError{Field: c.field, Value: c.value, Reason: "must be a finite number"}
		}
		if c.value < 0 {
			return &ConfigurationError{Field: c.field, Value: c.value, Reason: "must not be negative"}
		}
	}

	if cfg.TreeSequestration <= 0 {
		return &ConfigurationError{Field: "tree_sequestration", Value: cfg.TreeSequestration, Reason: "must be greater than zero"}
	}

	return nil
}

// UsageFactor returns the fraction of rated workstation draw for an hour of
// the day.
func UsageFactor(hour int) float64 {
	switch {
	case hour >= businessStart && hour <= businessEnd:
		return BusinessHoursFactor
	case hour >= eveningStart && hour <= eveningEnd:
		return EveningFactor
	default:
		return NightFactor
	}
}

// Config returns the infrastructure configuration
func (e *Engine) Config() models.InfrastructureConfig {
	return e.cfg
}

// Policy returns the configured state policy
func (e *Engine) Policy() StatePolicy {
	return e.policy
}

// State returns a consistent copy of the operational state
func (e *Engine) State() models.OperationalState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// SetState replaces the operational state atomically, applying the state
// policy. On error the previous state is kept.
func (e *Engine) SetState(state models.OperationalState) error {
	checked, err := e.checkState(state)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = checked
	return nil
}

func (e *Engine) checkState(state models.OperationalState) (models.OperationalState, error) {
	switch e.policy {
	case PolicyPassthrough:
		return state, nil
	case PolicyClamp:
		state.ActiveWorkstations = clamp(state.ActiveWorkstations, e.cfg.TotalWorkstations)
		state.ActiveServers = clamp(state.ActiveServers, e.cfg.TotalServers)
		return state, nil
	default:
		if state.ActiveWorkstations < 0 || state.ActiveWorkstations > e.cfg.TotalWorkstations {
			return state, &InvalidStateError{Field: "active_workstations", Value: state.ActiveWorkstations, Max: e.cfg.TotalWorkstations}
		}
		if state.ActiveServers < 0 || state.ActiveServers > e.cfg.TotalServers {
			return state, &InvalidStateError{Field: "active_servers", Value: state.ActiveServers, Max: e.cfg.TotalServers}
		}
		return state, nil
	}
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// CurrentConsumption returns the consumption in kWh at the current hour.
// The result is not rounded.
func (e *Engine) CurrentConsumption() float64 {
	return e.consumption(e.State(), e.now().Hour())
}

// ConsumptionAt returns the consumption in kWh at an explicit hour of day
func (e *Engine) ConsumptionAt(hour int) float64 {
	return e.consumption(e.State(), hour)
}

func (e *Engine) consumption(state models.OperationalState, hour int) float64 {
	workstationKW := float64(state.ActiveWorkstations) * e.cfg.AvgWorkstationWatts * UsageFactor(hour) / 1000
	serverKW := float64(state.ActiveServers) * ServerWatts / 1000
	return workstationKW + serverKW
}

// AnnualEmissions projects a consumption figure over a year and converts it
// into kg CO2.
func (e *Engine) AnnualEmissions(consumptionKWh float64) float64 {
	annualKWh := consumptionKWh * HoursPerYear
	return annualKWh * e.cfg.EmissionFactor
}

// TreeEquivalent returns how many trees absorb the given emissions in a year
func (e *Engine) TreeEquivalent(annualEmissionsKg float64) int64 {
	return int64(math.Floor(annualEmissionsKg / e.cfg.TreeSequestration))
}

// PotentialSavings returns the yearly cost of the energy idle workstations
// would use over working hours. It ignores the current consumption.
func (e *Engine) PotentialSavings() float64 {
	return e.savings(e.State())
}

func (e *Engine) savings(state models.OperationalState) float64 {
	idle := float64(state.IdleWorkstations(e.cfg))
	idleKWh := idle * e.cfg.AvgWorkstationWatts * WorkingHoursPerDay * WorkingDaysPerYear / 1000
	return idleKWh * e.cfg.EnergyTariff
}

// LastConsumption returns the consumption computed by the most recent
// GetMetrics call (or by New).
func (e *Engine) LastConsumption() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastConsumption
}

// GetMetrics recomputes the current consumption, records it as the last
// consumption and derives the remaining metrics from it.
func (e *Engine) GetMetrics() models.DerivedMetrics {
	metrics, _, _ := e.evaluate()
	return metrics
}

// Snapshot evaluates the metrics like GetMetrics and returns them together
// with the state and hour they were computed from.
func (e *Engine) Snapshot() *models.Snapshot {
	at := e.now()
	metrics, state, hour := e.evaluateAt(at)
	return &models.Snapshot{
		ID:          uuid.New().String(),
		Metrics:     metrics,
		State:       state,
		Hour:        hour,
		UsageFactor: UsageFactor(hour),
		CollectedAt: at,
	}
}

func (e *Engine) evaluate() (models.DerivedMetrics, models.OperationalState, int) {
	return e.evaluateAt(e.now())
}

func (e *Engine) evaluateAt(at time.Time) (models.DerivedMetrics, models.OperationalState, int) {
	hour := at.Hour()

	// state and cached consumption are read and written under one lock so
	// a concurrent SetState cannot interleave
	e.mu.Lock()
	state := e.state
	current := e.consumption(state, hour)
	e.lastConsumption = current
	e.mu.Unlock()

	emissions := e.AnnualEmissions(current)
	return models.DerivedMetrics{
		CurrentConsumption: current,
		AnnualEmissions:    emissions,
		PotentialSavings:   e.savings(state),
		TreeEquivalent:     e.TreeEquivalent(emissions),
	}, state, hour
}
