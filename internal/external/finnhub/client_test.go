package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/httputil"
	"github.com/wonny/magicformula/pkg/logger"
)

func newTestClient(t *testing.T, body string, status int) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stock/metric", r.URL.Path)
		assert.Equal(t, "basic", r.URL.Query().Get("metric"))
		assert.Equal(t, "key-1", r.URL.Query().Get("token"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop())
	return NewClient(httpClient, config.ProviderConfig{APIKey: "key-1", BaseURL: server.URL + "/"}, logger.Nop())
}

func TestFetchCurrent(t *testing.T) {
	client := newTestClient(t, `{"symbol":"JPM","metric":{"peBasicExclExtraTTM":12.4,"peTTM":12.9,"roeTTM":0.148}}`, 200)

	m, err := client.FetchCurrent(context.Background(), "JPM")
	require.NoError(t, err)
	assert.Equal(t, 12.4, m.PERatio)
	assert.InDelta(t, 14.8, m.ROIC, 1e-9)
	assert.Equal(t, contracts.SourceFinnhub, m.Source)
}

func TestParseMetric(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		resp    MetricResponse
		wantPE  float64
		wantErr error
	}{
		{"falls back to peTTM", MetricResponse{Metric: &Metric{PETTM: f(15), ROETTM: f(0.2)}}, 15, nil},
		{"negative primary pe uses peTTM", MetricResponse{Metric: &Metric{PEBasicExclExtraTTM: f(-3), PETTM: f(9), ROETTM: f(0.2)}}, 9, nil},
		{"no pe", MetricResponse{Metric: &Metric{ROETTM: f(0.2)}}, 0, contracts.ErrInvalidPayload},
		{"zero roe", MetricResponse{Metric: &Metric{PETTM: f(15), ROETTM: f(0)}}, 0, contracts.ErrInvalidPayload},
		{"missing metric", MetricResponse{}, 0, contracts.ErrNoData},
		{"api error", MetricResponse{Error: "You don't have access to this resource."}, 0, contracts.ErrProviderMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe, _, err := parseMetric(tt.resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPE, pe)
		})
	}
}

func TestFetchCurrent_Unauthorized(t *testing.T) {
	client := newTestClient(t, `{"error":"Invalid API key"}`, http.StatusUnauthorized)

	_, err := client.FetchCurrent(context.Background(), "JPM")

	var pErr *contracts.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "JPM", pErr.Symbol)
}
