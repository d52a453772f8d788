package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leonardobora/eco-dashboard-renault/pkg/datasource"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

const namespace = "ecoti"

// Refresh results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics exposes the dashboard's derived metrics as Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	consumptionGauge  prometheus.Gauge
	emissionsGauge    prometheus.Gauge
	savingsGauge      prometheus.Gauge
	treesGauge        prometheus.Gauge
	workstationsGauge prometheus.Gauge
	serversGauge      prometheus.Gauge
	usageFactorGauge  prometheus.Gauge
	refreshCollector  *prometheus.CounterVec
	fallbackCounter   prometheus.Counter
	snapshotTimestamp prometheus.Gauge
}

func New() *Metrics {
	newGauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		registry:          prometheus.NewRegistry(),
		consumptionGauge:  newGauge("current_consumption_kwh", "estimated instantaneous power draw of the estate in kW"),
		emissionsGauge:    newGauge("annual_emissions_kg", "annualized CO2 emissions at the current draw"),
		savingsGauge:      newGauge("potential_savings", "annual savings if idle workstations were powered off"),
		treesGauge:        newGauge("tree_equivalent", "trees needed to absorb the annual emissions"),
		workstationsGauge: newGauge("active_workstations", "workstations currently powered on"),
		serversGauge:      newGauge("active_servers", "servers currently powered on"),
		usageFactorGauge:  newGauge("usage_factor", "time-of-day usage factor applied to workstations"),
		snapshotTimestamp: newGauge("last_snapshot_timestamp_seconds", "unix time of the last good snapshot"),
		refreshCollector: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "dashboard refreshes by result",
			},
			[]string{"result"}),
		fallbackCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_total",
				Help:      "refreshes served from the last good snapshot",
			}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.consumptionGauge,
		m.emissionsGauge,
		m.savingsGauge,
		m.treesGauge,
		m.workstationsGauge,
		m.serversGauge,
		m.usageFactorGauge,
		m.snapshotTimestamp,
		m.refreshCollector,
		m.fallbackCounter,
	)
	return m
}

// Record publishes a successful snapshot
func (m *Metrics) Record(snap *models.Snapshot) {
	m.refreshCollector.WithLabelValues(ResultSuccess).Inc()
	m.consumptionGauge.Set(snap.Metrics.CurrentConsumption)
	m.emissionsGauge.Set(snap.Metrics.AnnualEmissions)
	m.savingsGauge.Set(snap.Metrics.PotentialSavings)
	m.treesGauge.Set(float64(snap.Metrics.TreeEquivalent))
	m.snapshotTimestamp.Set(float64(snap.CollectedAt.Unix()))

	// Remote snapshots carry no state
	if snap.Source != datasource.RemoteName {
		m.workstationsGauge.Set(float64(snap.State.ActiveWorkstations))
		m.serversGauge.Set(float64(snap.State.ActiveServers))
		m.usageFactorGauge.Set(snap.UsageFactor)
	}
}

// RecordFailure counts a failed refresh that fell back to the last good snapshot
func (m *Metrics) RecordFailure() {
	m.refreshCollector.WithLabelValues(ResultFailure).Inc()
	m.fallbackCounter.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the private registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
