package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardobora/eco-dashboard-renault/pkg/dashboard"
	"github.com/leonardobora/eco-dashboard-renault/pkg/datasource"
	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
	"github.com/leonardobora/eco-dashboard-renault/pkg/recommender"
	"github.com/leonardobora/eco-dashboard-renault/pkg/storage"
	"github.com/leonardobora/eco-dashboard-renault/pkg/telemetry"
)

var testSectors = []models.Sector{
	{Name: "Engineering", Workstations: 1500, Utilization: 0.85},
	{Name: "Sales", Workstations: 600, Utilization: 0.62},
}

var testDatacenter = models.Datacenter{
	CurrentPUE:     2.0,
	TargetPUE:      1.5,
	PeakMultiplier: 1.5,
	PeakHours:      []int{18, 19, 20, 21},
	Servers: []models.ServerClass{
		{Name: "hp_proliant", Count: 90, PowerWatts: 400, Utilization: 0.35, ConsolidationPercent: 30},
		{Name: "vxrail", Count: 10, PowerWatts: 800, Utilization: 0.65},
	},
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*Server, *dashboard.App) {
	t.Helper()
	infra := models.InfrastructureConfig{
		TotalWorkstations:   5376,
		TotalServers:        90,
		AvgWorkstationWatts: 250,
		EmissionFactor:      0.0817,
		TreeSequestration:   22,
		EnergyTariff:        0.60,
	}
	eng, err := engine.New(infra, models.ReferenceState(),
		engine.WithClock(func() time.Time { return time.Date(2024, 3, 12, 10, 0, 0, 0, time.Local) }))
	require.NoError(t, err)

	app := dashboard.NewApp(eng, datasource.NewLocalComputeSource(eng),
		dashboard.WithStore(storage.NewMemoryStore(50)),
		dashboard.WithTelemetry(telemetry.New()))
	advisor, err := recommender.New(eng, testDatacenter)
	require.NoError(t, err)
	srv := New(app, testSectors, advisor, telemetry.New())
	t.Cleanup(srv.Close)
	return srv, app
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestMetricsEndpoint(t *testing.T) {
	srv, app := newTestServer(t)

	rec := get(t, srv, "/api/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Ecoti-Stale"))

	app.Refresh(context.Background())
	rec = get(t, srv, "/api/metrics")
	assert.Empty(t, rec.Header().Get("X-Ecoti-Stale"))

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 4)
	assert.InDelta(t, 874, body["current_consumption"], 1e-9)
	assert.InDelta(t, 625514.808, body["annual_emissions"], 1e-6)
	assert.InDelta(t, 352800, body["potential_savings"], 1e-9)
	assert.Equal(t, 28432.0, body["tree_equivalent"])
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, app := newTestServer(t)
	app.Refresh(context.Background())

	env := decode(t, get(t, srv, "/api/snapshot"))
	require.True(t, env.Success)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "local", snap.Source)
	assert.Equal(t, 10, snap.Hour)
	assert.Equal(t, 0.8, snap.UsageFactor)
}

func TestTrendsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query  string
		status int
		points int
	}{
		{"", http.StatusOK, 24},
		{"?period=day", http.StatusOK, 24},
		{"?period=week", http.StatusOK, 7},
		{"?period=month", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, srv, "/api/trends"+tt.query)
			assert.Equal(t, tt.status, rec.Code)

			env := decode(t, rec)
			if tt.status != http.StatusOK {
				assert.False(t, env.Success)
				assert.NotEmpty(t, env.Error)
				return
			}
			var trend models.Trend
			require.NoError(t, json.Unmarshal(env.Data, &trend))
			assert.Len(t, trend.Points, tt.points)
		})
	}
}

func TestSectorsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	env := decode(t, get(t, srv, "/api/sectors"))
	require.True(t, env.Success)

	var data struct {
		Sectors           []models.SectorConsumption `json:"sectors"`
		TotalWorkstations int                        `json:"total_workstations"`
		TotalConsumption  float64                    `json:"total_consumption_kw"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Sectors, 2)
	assert.Equal(t, 2100, data.TotalWorkstations)
	assert.InDelta(t, 420, data.TotalConsumption, 1e-9)
}

func TestRecommendationsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query    string
		status   int
		expected int
	}{
		{"", http.StatusOK, 5},
		{"?limit=2", http.StatusOK, 2},
		{"?limit=10", http.StatusOK, 6},
		{"?category=infrastructure", http.StatusOK, 2},
		{"?category=automation&limit=3", http.StatusOK, 1},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
		{"?category=marketing", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, srv, "/api/recommendations"+tt.query)
			assert.Equal(t, tt.status, rec.Code)

			env := decode(t, rec)
			if tt.status != http.StatusOK {
				assert.False(t, env.Success)
				assert.NotEmpty(t, env.Error)
				return
			}

			var data struct {
				Recommendations []recommender.Recommendation `json:"recommendations"`
				Count           int                          `json:"count"`
				TotalImpact     recommender.Impact           `json:"total_impact"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Len(t, data.Recommendations, tt.expected)
			assert.Equal(t, tt.expected, data.Count)
			assert.InDelta(t, recommender.TotalImpact(data.Recommendations).CostSavings, data.TotalImpact.CostSavings, 1e-6)
		})
	}
}

func TestSavingsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	env := decode(t, get(t, srv, "/api/savings"))
	require.True(t, env.Success)

	var savings recommender.Savings
	require.NoError(t, json.Unmarshal(env.Data, &savings))
	assert.Equal(t, 1176, savings.Workstations.IdleWorkstations)
	assert.Equal(t, 27, savings.Datacenter.Consolidation.ServersToConsolidate)
	assert.InDelta(t, 192720, savings.Datacenter.Cooling.AnnualSavingsKWh, 1e-6)
	require.Len(t, savings.IdleResources, 1)
	assert.Equal(t, "Sales", savings.IdleResources[0].Sector)
	assert.Greater(t, savings.Total.ReductionPercent, 0.0)
	assert.Less(t, savings.Total.ReductionPercent, 100.0)
}

func TestHistoryEndpoint(t *testing.T) {
	srv, app := newTestServer(t)
	for i := 0; i < 3; i++ {
		app.Refresh(context.Background())
	}

	env := decode(t, get(t, srv, "/api/history?limit=2"))
	require.True(t, env.Success)
	var history []models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 2)

	rec := get(t, srv, "/api/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	srv, app := newTestServer(t)
	app.Refresh(context.Background())

	tests := []struct {
		format      string
		status      int
		contentType string
		contains    string
	}{
		{"csv", http.StatusOK, "text/csv", "Metric,Value,Unit"},
		{"", http.StatusOK, "text/csv", "Tree Equivalent,28432,trees"},
		{"json", http.StatusOK, "application/json", `"tree_equivalent": 28432`},
		{"html", http.StatusOK, "text/html; charset=utf-8", "Day Trend"},
		{"xlsx", http.StatusBadRequest, "application/json", `"success":false`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := get(t, srv, "/api/export?format="+tt.format)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Header().Get("Content-Disposition"), "eco_dashboard_data.")
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, app := newTestServer(t)
	app.Refresh(context.Background())

	rec := get(t, srv, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "local", body["source"])
	assert.Len(t, body["endpoints"], len(Endpoints))
}

func TestPrometheusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ecoti_fallback_total")
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/recommendations")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestWebSocketPushesRefreshes(t *testing.T) {
	srv, app := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg pushMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, dashboard.ReferenceSource, msg.Snapshot.Source)

	app.Refresh(context.Background())

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "local", msg.Snapshot.Source)
	assert.InDelta(t, 874, msg.Snapshot.Metrics.CurrentConsumption, 1e-9)
}
