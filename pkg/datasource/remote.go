package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

const (
	MetricsPath = "/api/metrics"
	HealthPath  = "/api/health"
)

// RemoteFetchSource reads metrics from another instance's /api/metrics
type RemoteFetchSource struct {
	client  *resty.Client
	baseURL string
}

// remoteMetrics mirrors models.DerivedMetrics with every key required
type remoteMetrics struct {
	CurrentConsumption *float64 `json:"current_consumption"`
	AnnualEmissions    *float64 `json:"annual_emissions"`
	PotentialSavings   *float64 `json:"potential_savings"`
	TreeEquivalent     *int64   `json:"tree_equivalent"`
}

func NewRemoteFetchSource(baseURL string, timeout time.Duration) *RemoteFetchSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteFetchSource{
		client:  resty.New().SetTimeout(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *RemoteFetchSource) GetMetrics(ctx context.Context) (*models.Snapshot, error) {
	url := r.baseURL + MetricsPath
	klog.V(4).InfoS("Fetching remote metrics", "url", url)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("remote metrics returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	var body remoteMetrics
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode remote metrics: %w", err)
	}
	metrics, err := body.toMetrics()
	if err != nil {
		return nil, err
	}

	return &models.Snapshot{
		ID:          uuid.New().String(),
		Source:      r.Name(),
		Metrics:     metrics,
		CollectedAt: time.Now(),
	}, nil
}

func (m remoteMetrics) toMetrics() (models.DerivedMetrics, error) {
	var missing []string
	if m.CurrentConsumption == nil {
		missing = append(missing, "current_consumption")
	}
	if m.AnnualEmissions == nil {
		missing = append(missing, "annual_emissions")
	}
	if m.PotentialSavings == nil {
		missing = append(missing, "potential_savings")
	}
	if m.TreeEquivalent == nil {
		missing = append(missing, "tree_equivalent")
	}
	if len(missing) > 0 {
		return models.DerivedMetrics{}, fmt.Errorf("remote metrics missing keys: %s", strings.Join(missing, ", "))
	}

	return models.DerivedMetrics{
		CurrentConsumption: *m.CurrentConsumption,
		AnnualEmissions:    *m.AnnualEmissions,
		PotentialSavings:   *m.PotentialSavings,
		TreeEquivalent:     *m.TreeEquivalent,
	}, nil
}

func (r *RemoteFetchSource) IsAvailable(ctx context.Context) bool {
	resp, err := r.client.R().SetContext(ctx).Get(r.baseURL + HealthPath)
	return err == nil && resp.StatusCode() == http.StatusOK
}

func (r *RemoteFetchSource) Name() string {
	return RemoteName
}
