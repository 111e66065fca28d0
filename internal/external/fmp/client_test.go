package fmp

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

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop())
	return NewClient(httpClient, config.ProviderConfig{BaseURL: server.URL}, logger.Nop())
}

func TestFetchCurrent(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v3/ratios-ttm/KO": `[{"peRatioTTM":26.3,"returnOnCapitalEmployedTTM":0.172}]`,
	})

	m, err := client.FetchCurrent(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, 26.3, m.PERatio)
	assert.InDelta(t, 17.2, m.ROIC, 1e-9)
	assert.Equal(t, contracts.BasisROCE, m.Basis)
	assert.Equal(t, contracts.SourceFMP, m.Source)
}

func TestFetchCurrent_Failures(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v3/ratios-ttm/EMPTY": `[]`,
		"/api/v3/ratios-ttm/NULL":  `[{"peRatioTTM":null,"returnOnCapitalEmployedTTM":0.1}]`,
		"/api/v3/ratios-ttm/LOCK":  `{"Error Message":"Limit Reach . Please upgrade your plan"}`,
	})

	tests := []struct {
		symbol  string
		wantErr error
	}{
		{"EMPTY", contracts.ErrNoData},
		{"NULL", contracts.ErrInvalidPayload},
		{"LOCK", contracts.ErrProviderMessage},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			_, err := client.FetchCurrent(context.Background(), tt.symbol)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := client.FetchCurrent(context.Background(), "MISSING")
	var pErr *contracts.ProviderError
	assert.ErrorAs(t, err, &pErr)
}

func TestFetchHistorical(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v3/ratios/CAT": `[
			{"symbol":"CAT","date":"2023-12-31","priceEarningsRatio":14.2,"returnOnCapitalEmployed":0.187},
			{"symbol":"CAT","date":"2022-12-31","priceEarningsRatio":18.1,"returnOnCapitalEmployed":-0.01}]`,
	})

	m, err := client.FetchHistorical(context.Background(), "CAT", 2023)
	require.NoError(t, err)
	assert.Equal(t, 14.2, m.PERatio)
	assert.InDelta(t, 18.7, m.ROIC, 1e-9)
	assert.Equal(t, 2023, m.Year)

	_, err = client.FetchHistorical(context.Background(), "CAT", 2022)
	assert.ErrorIs(t, err, contracts.ErrInvalidPayload)

	_, err = client.FetchHistorical(context.Background(), "CAT", 2015)
	assert.ErrorIs(t, err, contracts.ErrNoData)
}
