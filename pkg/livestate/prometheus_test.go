package livestate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
)

const vectorTemplate = `{"status":"success","data":{"resultType":"vector","result":[%s]}}`

func sample(site, value string) string {
	return fmt.Sprintf(`{"metric":{"site":"%s"},"value":[1700000000,"%s"]}`, site, value)
}

func newPrometheusServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			http.NotFound(w, r)
			return
		}
		query := r.FormValue("query")
		for key, body := range responses {
			if strings.Contains(query, key) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, vectorTemplate, "")
	}))
}

func newTestPrometheusFeeder(t *testing.T, url string) *PrometheusFeeder {
	t.Helper()
	f, err := NewPrometheusFeeder(config.PrometheusConfig{
		URL:               url,
		WorkstationsQuery: `count(up{job="workstations"} == 1)`,
		ServersQuery:      `count(up{job="servers"} == 1)`,
		Timeout:           2 * time.Second,
	})
	require.NoError(t, err)
	return f
}

func TestPrometheusFeederSumsSeries(t *testing.T) {
	srv := newPrometheusServer(t, map[string]string{
		"workstations": fmt.Sprintf(vectorTemplate, sample("curitiba", "2100")+","+sample("sjp", "2100")),
		"servers":      fmt.Sprintf(vectorTemplate, sample("curitiba", "85")),
	})
	defer srv.Close()

	f := newTestPrometheusFeeder(t, srv.URL)
	state, err := f.Observe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4200, state.ActiveWorkstations)
	assert.Equal(t, 85, state.ActiveServers)
	assert.Equal(t, "prometheus", f.Name())
}

func TestPrometheusFeederNoData(t *testing.T) {
	srv := newPrometheusServer(t, map[string]string{
		"workstations": fmt.Sprintf(vectorTemplate, sample("curitiba", "4200")),
	})
	defer srv.Close()

	f := newTestPrometheusFeeder(t, srv.URL)
	_, err := f.Observe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "servers query failed")
}

func TestPrometheusFeederUnreachable(t *testing.T) {
	srv := newPrometheusServer(t, nil)
	url := srv.URL
	srv.Close()

	f := newTestPrometheusFeeder(t, url)
	_, err := f.Observe(context.Background())
	assert.Error(t, err)
}
