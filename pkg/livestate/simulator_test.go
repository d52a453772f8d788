package livestate

import (
	"context"
	"testing"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

func testInfra() models.InfrastructureConfig {
	return models.InfrastructureConfig{
		TotalWorkstations:   5376,
		TotalServers:        90,
		AvgWorkstationWatts: 250,
		EmissionFactor:      0.0817,
		TreeSequestration:   22,
		EnergyTariff:        0.60,
	}
}

func TestSimulatorStaysInRange(t *testing.T) {
	infra := testInfra()
	start := models.OperationalState{ActiveWorkstations: 5370, ActiveServers: 1}
	sim := NewSimulator(infra, start, config.SimulationConfig{Seed: 42, WorkstationJitter: 0.02, ServerJitter: 1})

	for i := 0; i < 1000; i++ {
		state, err := sim.Observe(context.Background())
		if err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
		if state.ActiveWorkstations < 0 || state.ActiveWorkstations > infra.TotalWorkstations {
			t.Fatalf("Workstations out of range at step %d: %d", i, state.ActiveWorkstations)
		}
		if state.ActiveServers < 0 || state.ActiveServers > infra.TotalServers {
			t.Fatalf("Servers out of range at step %d: %d", i, state.ActiveServers)
		}
	}
}

func TestSimulatorStepSize(t *testing.T) {
	infra := testInfra()
	start := models.ReferenceState()
	sim := NewSimulator(infra, start, config.SimulationConfig{Seed: 7, WorkstationJitter: 0.02, ServerJitter: 1})

	prev := start
	for i := 0; i < 100; i++ {
		state, _ := sim.Observe(context.Background())
		if d := state.ActiveWorkstations - prev.ActiveWorkstations; d > 108 || d < -108 {
			t.Errorf("Workstation step too large: %d", d)
		}
		if d := state.ActiveServers - prev.ActiveServers; d > 1 || d < -1 {
			t.Errorf("Server step too large: %d", d)
		}
		prev = state
	}
}

func TestSimulatorSeedIsDeterministic(t *testing.T) {
	params := config.SimulationConfig{Seed: 99, WorkstationJitter: 0.02, ServerJitter: 1}
	a := NewSimulator(testInfra(), models.ReferenceState(), params)
	b := NewSimulator(testInfra(), models.ReferenceState(), params)

	for i := 0; i < 20; i++ {
		sa, _ := a.Observe(context.Background())
		sb, _ := b.Observe(context.Background())
		if sa != sb {
			t.Fatalf("Expected identical walks, step %d: %+v vs %+v", i, sa, sb)
		}
	}
}

func TestSimulatorZeroJitter(t *testing.T) {
	sim := NewSimulator(testInfra(), models.ReferenceState(), config.SimulationConfig{Seed: 1})

	state, err := sim.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if state != models.ReferenceState() {
		t.Errorf("Expected unchanged state, got %+v", state)
	}
}

func TestSimulatorCancelled(t *testing.T) {
	sim := NewSimulator(testInfra(), models.ReferenceState(), config.SimulationConfig{Seed: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Observe(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestNewFeeder(t *testing.T) {
	tests := []struct {
		feeder      string
		kubeconfig  string
		expectName  string
		expectNil   bool
		expectError bool
	}{
		{feeder: config.FeederNone, expectNil: true},
		{feeder: config.FeederSimulator, expectName: "simulator"},
		{feeder: config.FeederPrometheus, expectName: "prometheus"},
		{feeder: config.FeederKubernetes, kubeconfig: "/nonexistent/kubeconfig", expectError: true},
		{feeder: "snmp", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.feeder, func(t *testing.T) {
			cfg := &config.Config{
				StateFeeder:    tt.feeder,
				Infrastructure: testInfra(),
				InitialState:   models.ReferenceState(),
				Prometheus:     config.PrometheusConfig{URL: "http://localhost:9090"},
				Kubernetes:     config.KubernetesConfig{Kubeconfig: tt.kubeconfig},
			}

			f, err := New(cfg)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for feeder %s", tt.feeder)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.expectNil {
				if f != nil {
					t.Errorf("Expected nil feeder, got %s", f.Name())
				}
				return
			}
			if f.Name() != tt.expectName {
				t.Errorf("Expected %s, got %s", tt.expectName, f.Name())
			}
		})
	}
}
