package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/dashboard"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
	"github.com/leonardobora/eco-dashboard-renault/pkg/recommender"
	"github.com/leonardobora/eco-dashboard-renault/pkg/telemetry"
)

const (
	defaultHistoryLimit        = 20
	maxHistoryLimit            = 500
	defaultRecommendationLimit = 5
	writeWait                  = 5 * time.Second
)

var Version = "2.0.0"

// Endpoints served under /api
var Endpoints = []string{
	"/api/metrics",
	"/api/snapshot",
	"/api/trends",
	"/api/sectors",
	"/api/recommendations",
	"/api/savings",
	"/api/history",
	"/api/export",
	"/api/health",
}

// Server exposes the dashboard over HTTP and pushes every refresh to websocket clients
type Server struct {
	app      *dashboard.App
	sectors  []models.Sector
	advisor  *recommender.Recommender
	metrics  *telemetry.Metrics
	router   *mux.Router
	upgrader websocket.Upgrader

	mu          sync.Mutex
	clients     map[*client]bool
	unsubscribe func()
}

// client serializes writes to one websocket connection
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

type pushMessage struct {
	Type     string           `json:"type"`
	Snapshot *models.Snapshot `json:"snapshot"`
}

// New builds the router. metrics may be nil, which disables /metrics.
func New(app *dashboard.App, sectors []models.Sector, advisor *recommender.Recommender, metrics *telemetry.Metrics) *Server {
	s := &Server{
		app:     app,
		sectors: sectors,
		advisor: advisor,
		metrics: metrics,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/trends", s.handleTrends).Methods(http.MethodGet)
	api.HandleFunc("/sectors", s.handleSectors).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", s.handleRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/savings", s.handleSavings).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", s.handleWebSocket)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router = r
	s.unsubscribe = app.Subscribe(s.broadcast)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close drops all websocket clients and stops listening for refreshes
func (s *Server) Close() {
	s.unsubscribe()

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		klog.V(4).InfoS("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "Failed to encode response")
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// handleMetrics serves the flat four-key mapping other instances fetch
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Current()
	if snap.Stale {
		w.Header().Set("X-Ecoti-Stale", "true")
	}
	writeJSON(w, http.StatusOK, snap.Metrics)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.app.Current())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trend, err := s.app.Engine().Trend(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, trend)
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	sectors := s.app.Engine().SectorBreakdown(s.sectors)

	var totalWorkstations int
	var totalKW, totalKWh, totalCO2 float64
	for _, sc := range sectors {
		totalWorkstations += sc.Workstations
		totalKW += sc.ConsumptionKW
		totalKWh += sc.AnnualConsumptionKWh
		totalCO2 += sc.AnnualCO2Kg
	}

	writeData(w, map[string]any{
		"sectors":              sectors,
		"total_workstations":   totalWorkstations,
		"total_consumption_kw": totalKW,
		"total_annual_kwh":     totalKWh,
		"total_co2_kg":         totalCO2,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultRecommendationLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	category, err := recommender.ParseCategory(query.Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs := recommender.Filter(s.advisor.Recommendations(), category, limit)
	writeData(w, map[string]any{
		"recommendations": recs,
		"count":           len(recs),
		"total_impact":    recommender.TotalImpact(recs),
	})
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.advisor.Savings(s.sectors))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	snapshots, err := s.app.History(r.Context(), limit)
	if err != nil {
		klog.ErrorS(err, "Failed to list history")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, snapshots)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	resp := map[string]any{
		"success":   true,
		"version":   Version,
		"source":    s.app.Source().Name(),
		"endpoints": Endpoints,
	}

	if err := s.app.LastError(); err != nil {
		status = "degraded"
		resp["last_error"] = err.Error()
	}
	if store := s.app.Store(); store != nil {
		if err := store.Ping(r.Context()); err != nil {
			status = "degraded"
			resp["storage_error"] = err.Error()
		}
	}

	resp["status"] = status
	writeJSON(w, http.StatusOK, resp)
}
