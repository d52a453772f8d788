package livestate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// PrometheusFeeder reads active equipment counts from PromQL instant queries
type PrometheusFeeder struct {
	client            v1.API
	url               string
	workstationsQuery string
	serversQuery      string
	timeout           time.Duration
}

func NewPrometheusFeeder(cfg config.PrometheusConfig) (*PrometheusFeeder, error) {
	client, err := api.NewClient(api.Config{
		Address: cfg.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusFeeder{
		client:            v1.NewAPI(client),
		url:               cfg.URL,
		workstationsQuery: cfg.WorkstationsQuery,
		serversQuery:      cfg.ServersQuery,
		timeout:           cfg.Timeout,
	}, nil
}

func (p *PrometheusFeeder) Observe(ctx context.Context) (models.OperationalState, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	workstations, err := p.querySum(ctx, p.workstationsQuery)
	if err != nil {
		return models.OperationalState{}, fmt.Errorf("workstations query failed: %w", err)
	}
	servers, err := p.querySum(ctx, p.serversQuery)
	if err != nil {
		return models.OperationalState{}, fmt.Errorf("servers query failed: %w", err)
	}

	return models.OperationalState{
		ActiveWorkstations: int(math.Round(workstations)),
		ActiveServers:      int(math.Round(servers)),
	}, nil
}

func (p *PrometheusFeeder) querySum(ctx context.Context, query string) (float64, error) {
	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		klog.InfoS("Prometheus returned warnings", "query", query, "warnings", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, fmt.Errorf("no data for query: %s", query)
	}

	// Sum all series (one per site or job)
	sum := 0.0
	for _, sample := range vector {
		sum += float64(sample.Value)
	}

	return sum, nil
}

func (p *PrometheusFeeder) Name() string {
	return config.FeederPrometheus
}
