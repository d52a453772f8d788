package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/grid"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// Data sources
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// State feeders
const (
	FeederNone       = "none"
	FeederSimulator  = "simulator"
	FeederPrometheus = "prometheus"
	FeederKubernetes = "kubernetes"
)

// Config holds application configuration
type Config struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`

	// Refresh cadence of the dashboard scheduler
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// Metrics source: local, remote
	DataSource string `yaml:"data_source"`
	// Operational state feeder: none, simulator, prometheus, kubernetes
	StateFeeder string `yaml:"state_feeder"`
	// Out-of-range state handling: reject, clamp, passthrough
	StatePolicy string `yaml:"state_policy"`

	Infrastructure models.InfrastructureConfig `yaml:"infrastructure"`
	InitialState   models.OperationalState     `yaml:"initial_state"`
	// Used when infrastructure.emission_factor is zero
	EmissionSource string          `yaml:"emission_source"`
	Sectors        []models.Sector `yaml:"sectors"`
	// Facility data used by the optimization analysis
	Datacenter models.Datacenter `yaml:"datacenter"`

	Remote     RemoteConfig     `yaml:"remote"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Simulation SimulationConfig `yaml:"simulation"`

	// Storage
	StorageEnabled bool   `yaml:"storage_enabled"`
	DatabaseURL    string `yaml:"database_url"`
	HistoryLimit   int    `yaml:"history_limit"`
}

// RemoteConfig points at another instance serving /api/metrics
type RemoteConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PrometheusConfig holds the PromQL queries returning active equipment counts
type PrometheusConfig struct {
	URL               string        `yaml:"url"`
	WorkstationsQuery string        `yaml:"workstations_query"`
	ServersQuery      string        `yaml:"servers_query"`
	Timeout           time.Duration `yaml:"timeout"`
}

// KubernetesConfig selects the cluster whose Ready nodes count as servers
type KubernetesConfig struct {
	Kubeconfig       string `yaml:"kubeconfig"`
	LabelSelector    string `yaml:"label_selector"`
	UseMetricsServer bool   `yaml:"use_metrics_server"`
}

// SimulationConfig tunes the random walk of the simulator feeder
type SimulationConfig struct {
	Seed              int64   `yaml:"seed"`
	WorkstationJitter float64 `yaml:"workstation_jitter"` // fraction of total per tick
	ServerJitter      int     `yaml:"server_jitter"`      // servers per tick
}

func defaults() *Config {
	return &Config{
		Environment:     "development",
		Host:            "localhost",
		Port:            5000,
		RefreshInterval: 10 * time.Second,
		DataSource:      SourceLocal,
		StateFeeder:     FeederSimulator,
		StatePolicy:     string(engine.PolicyReject),
		Infrastructure: models.InfrastructureConfig{
			TotalWorkstations:   5376,
			TotalServers:        90,
			TotalConvergedNodes: 10,
			AvgWorkstationWatts: 250,
			TreeSequestration:   22,
			EnergyTariff:        0.60,
		},
		InitialState:   models.ReferenceState(),
		EmissionSource: grid.DefaultSource,
		Sectors: []models.Sector{
			{Name: "Administrative", Workstations: 1200, Utilization: 0.68},
			{Name: "Engineering", Workstations: 1500, Utilization: 0.85},
			{Name: "Production", Workstations: 1800, Utilization: 0.82},
			{Name: "Sales", Workstations: 600, Utilization: 0.62},
			{Name: "Support", Workstations: 276, Utilization: 0.78},
		},
		Datacenter: models.Datacenter{
			CurrentPUE:     2.0,
			TargetPUE:      1.5,
			PeakMultiplier: 1.5,
			PeakHours:      []int{18, 19, 20, 21},
			Servers: []models.ServerClass{
				{Name: "hp_proliant", Model: "HP ProLiant DL380 Gen10", Count: 90, PowerWatts: 400, Utilization: 0.35, ConsolidationPercent: 30},
				{Name: "vxrail", Model: "Dell VxRail E560", Count: 10, PowerWatts: 800, Utilization: 0.65},
			},
		},
		Remote: RemoteConfig{
			Timeout: 5 * time.Second,
		},
		Prometheus: PrometheusConfig{
			URL:               "http://localhost:9090",
			WorkstationsQuery: `count(up{job="workstations"} == 1)`,
			ServersQuery:      `count(up{job="servers"} == 1)`,
			Timeout:           10 * time.Second,
		},
		Simulation: SimulationConfig{
			WorkstationJitter: 0.02,
			ServerJitter:      1,
		},
		StorageEnabled: false,
		DatabaseURL:    "host=localhost port=5432 user=ecoti password=devpassword dbname=ecoti sslmode=disable",
		HistoryLimit:   500,
	}
}

// NewConfig creates a configuration from defaults and ECO_* environment
// variables
func NewConfig() *Config {
	cfg := defaults()
	cfg.applyEnv()
	if err := cfg.resolveEmissionFactor(); err != nil {
		klog.ErrorS(err, "Could not resolve emission factor", "source", cfg.EmissionSource)
	}
	return cfg
}

// Load reads a YAML file over the defaults, then applies environment
// variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			klog.V(2).InfoS("Config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.resolveEmissionFactor(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ECO_ENVIRONMENT", c.Environment)
	c.DataSource = getEnv("ECO_DATA_SOURCE", c.DataSource)
	c.StateFeeder = getEnv("ECO_STATE_FEEDER", c.StateFeeder)
	c.StatePolicy = getEnv("ECO_STATE_POLICY", c.StatePolicy)
	c.Host = getEnv("ECO_HOST", c.Host)
	c.Port = getEnvInt("ECO_PORT", c.Port)
	if seconds := getEnvInt("ECO_REFRESH_SECONDS", 0); seconds > 0 {
		c.RefreshInterval = time.Duration(seconds) * time.Second
	}

	c.Remote.URL = getEnv("ECO_REMOTE_URL", c.Remote.URL)
	c.Prometheus.URL = getEnv("ECO_PROMETHEUS_URL", c.Prometheus.URL)
	c.Kubernetes.Kubeconfig = getEnv("ECO_KUBECONFIG", c.Kubernetes.Kubeconfig)

	c.StorageEnabled = getEnvBool("ECO_STORAGE_ENABLED", c.StorageEnabled)
	c.DatabaseURL = getEnv("ECO_DB_CONNECTION", c.DatabaseURL)

	c.EmissionSource = getEnv("ECO_EMISSION_SOURCE", c.EmissionSource)
	c.Infrastructure.EmissionFactor = getEnvFloat("ECO_EMISSION_FACTOR", c.Infrastructure.EmissionFactor)
	c.Infrastructure.TreeSequestration = getEnvFloat("ECO_TREE_SEQUESTRATION", c.Infrastructure.TreeSequestration)
	c.Infrastructure.EnergyTariff = getEnvFloat("ECO_ENERGY_TARIFF", c.Infrastructure.EnergyTariff)

	c.Datacenter.CurrentPUE = getEnvFloat("ECO_PUE_CURRENT", c.Datacenter.CurrentPUE)
	c.Datacenter.TargetPUE = getEnvFloat("ECO_PUE_TARGET", c.Datacenter.TargetPUE)
}

func (c *Config) resolveEmissionFactor() error {
	if c.Infrastructure.EmissionFactor != 0 {
		return nil
	}
	f, err := grid.Lookup(c.EmissionSource)
	if err != nil {
		return err
	}
	c.Infrastructure.EmissionFactor = f.KgCO2PerKWh
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		klog.InfoS("Ignoring invalid integer", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		klog.InfoS("Ignoring invalid number", "key", key, "value", value)
		return defaultValue
	}
	return f
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh interval must be at least 1 second")
	}

	switch c.DataSource {
	case SourceLocal:
	case SourceRemote:
		if c.Remote.URL == "" {
			return fmt.Errorf("ECO_REMOTE_URL must be set when data source is remote")
		}
	default:
		return fmt.Errorf("unknown data source: %s", c.DataSource)
	}

	switch c.StateFeeder {
	case FeederNone, FeederSimulator, FeederKubernetes:
	case FeederPrometheus:
		if c.Prometheus.URL == "" {
			return fmt.Errorf("ECO_PROMETHEUS_URL must be set when state feeder is prometheus")
		}
	default:
		return fmt.Errorf("unknown state feeder: %s", c.StateFeeder)
	}

	if _, err := engine.ParseStatePolicy(c.StatePolicy); err != nil {
		return err
	}
	if err := engine.ValidateConfig(c.Infrastructure); err != nil {
		return err
	}

	if err := validateDatacenter(c.Datacenter); err != nil {
		return err
	}
	for _, sector := range c.Sectors {
		if sector.Workstations < 0 || sector.Utilization < 0 || sector.Utilization > 1 {
			return fmt.Errorf("sector %q: workstations must be >= 0 and utilization within [0, 1]", sector.Name)
		}
	}

	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("ECO_DB_CONNECTION must be set when storage is enabled")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be >= 1")
	}
	return nil
}

func validateDatacenter(dc models.Datacenter) error {
	if dc.CurrentPUE < 1 {
		return fmt.Errorf("datacenter pue_current must be >= 1, got %.2f", dc.CurrentPUE)
	}
	if dc.TargetPUE < 1 || dc.TargetPUE > dc.CurrentPUE {
		return fmt.Errorf("datacenter pue_target must be between 1 and pue_current, got %.2f", dc.TargetPUE)
	}
	if dc.PeakMultiplier < 1 {
		return fmt.Errorf("datacenter peak_multiplier must be >= 1, got %.2f", dc.PeakMultiplier)
	}
	for _, h := range dc.PeakHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("datacenter peak hour %d out of range 0-23", h)
		}
	}
	for _, s := range dc.Servers {
		switch {
		case s.Count < 0 || s.PowerWatts < 0:
			return fmt.Errorf("server class %q: count and power_w must not be negative", s.Name)
		case s.Utilization < 0 || s.Utilization > 1:
			return fmt.Errorf("server class %q: utilization must be within [0, 1]", s.Name)
		case s.ConsolidationPercent < 0 || s.ConsolidationPercent > 100:
			return fmt.Errorf("server class %q: consolidation_percent must be within [0, 100]", s.Name)
		}
	}
	return nil
}
