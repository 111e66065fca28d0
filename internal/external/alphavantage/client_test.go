package alphavantage

import (
	"context"
	"errors"
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

type stubEstimator struct {
	gotROE float64
}

func (s *stubEstimator) EstimateHistoricalPE(symbol string, year int, roe float64) float64 {
	s.gotROE = roe
	return 18.5
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *stubEstimator) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop())
	est := &stubEstimator{}
	return NewClient(httpClient, config.ProviderConfig{BaseURL: server.URL}, est, logger.Nop()), est
}

func TestFetchCurrent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "OVERVIEW", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"Symbol":"AAPL","PERatio":"29.5","ReturnOnEquityTTM":"1.47"}`))
	})

	m, err := client.FetchCurrent(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 29.5, m.PERatio)
	assert.InDelta(t, 147.0, m.ROIC, 1e-9)
	assert.Equal(t, contracts.SourceAlphaVantage, m.Source)
	assert.Equal(t, contracts.BasisROE, m.Basis)
	assert.False(t, m.IsFallback)
}

func TestFetchCurrent_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limit note", 200, `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`, contracts.ErrProviderMessage},
		{"error message", 200, `{"Error Message":"Invalid API call"}`, contracts.ErrProviderMessage},
		{"information", 200, `{"Information":"The **demo** API key is for demo purposes only"}`, contracts.ErrProviderMessage},
		{"pe none", 200, `{"PERatio":"None","ReturnOnEquityTTM":"0.2"}`, contracts.ErrInvalidPayload},
		{"negative roe", 200, `{"PERatio":"12","ReturnOnEquityTTM":"-0.2"}`, contracts.ErrInvalidPayload},
		{"empty object", 200, `{}`, contracts.ErrInvalidPayload},
		{"not json", 200, `<html>`, contracts.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.FetchCurrent(context.Background(), "AAPL")

			var pErr *contracts.ProviderError
			require.True(t, errors.As(err, &pErr))
			assert.Equal(t, contracts.SourceAlphaVantage, pErr.Source)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchCurrent_HTTPStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchCurrent(context.Background(), "AAPL")

	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestFetchHistorical(t *testing.T) {
	client, est := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "INCOME_STATEMENT":
			w.Write([]byte(`{"symbol":"MSFT","annualReports":[
				{"fiscalDateEnding":"2022-06-30","netIncome":"72738000000"},
				{"fiscalDateEnding":"2021-06-30","netIncome":"61271000000"}]}`))
		case "BALANCE_SHEET":
			w.Write([]byte(`{"symbol":"MSFT","annualReports":[
				{"fiscalDateEnding":"2022-06-30","totalShareholderEquity":"166542000000","longTermDebt":"47032000000","shortTermDebt":"2749000000"},
				{"fiscalDateEnding":"2021-06-30","totalShareholderEquity":"141988000000","longTermDebt":"50074000000","shortTermDebt":"None"}]}`))
		default:
			t.Errorf("unexpected function %s", r.URL.Query().Get("function"))
		}
	})

	m, err := client.FetchHistorical(context.Background(), "MSFT", 2022)
	require.NoError(t, err)

	roe := 72738000000.0 / 166542000000.0 * 100
	roic := 72738000000.0 / (166542000000.0 + 47032000000.0 + 2749000000.0) * 100
	assert.InDelta(t, roic, m.ROIC, 1e-9)
	assert.InDelta(t, roe, est.gotROE, 1e-9)
	assert.Equal(t, 18.5, m.PERatio)
	assert.Equal(t, 2022, m.Year)
	assert.Equal(t, contracts.BasisROIC, m.Basis)

	// unparseable short term debt: ROIC falls back to ROE
	m, err = client.FetchHistorical(context.Background(), "MSFT", 2021)
	require.NoError(t, err)
	assert.InDelta(t, 61271000000.0/141988000000.0*100, m.ROIC, 1e-9)
	assert.Equal(t, contracts.BasisROE, m.Basis)

	// missing year
	_, err = client.FetchHistorical(context.Background(), "MSFT", 2019)
	assert.ErrorIs(t, err, contracts.ErrNoData)
}

func TestDerive(t *testing.T) {
	income := []IncomeReport{{FiscalDateEnding: "2020-12-31", NetIncome: "100"}}

	tests := []struct {
		name      string
		balance   BalanceReport
		wantROIC  float64
		wantBasis contracts.ROICBasis
		wantErr   error
	}{
		{
			name:      "missing short term debt counts as zero",
			balance:   BalanceReport{FiscalDateEnding: "2020-12-31", TotalShareholderEquity: "400", LongTermDebt: "100"},
			wantROIC:  20,
			wantBasis: contracts.BasisROIC,
		},
		{
			name:      "negative invested capital falls back to roe",
			balance:   BalanceReport{FiscalDateEnding: "2020-12-31", TotalShareholderEquity: "400", LongTermDebt: "-500"},
			wantROIC:  25,
			wantBasis: contracts.BasisROE,
		},
		{
			name:    "non positive equity is rejected",
			balance: BalanceReport{FiscalDateEnding: "2020-12-31", TotalShareholderEquity: "0", LongTermDebt: "100"},
			wantErr: contracts.ErrInvalidPayload,
		},
		{
			name:    "other year only",
			balance: BalanceReport{FiscalDateEnding: "2019-12-31", TotalShareholderEquity: "400"},
			wantErr: contracts.ErrNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Derive(income, []BalanceReport{tt.balance}, 2020)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantROIC, f.ROIC, 1e-9)
			assert.InDelta(t, 25.0, f.ROE, 1e-9)
			assert.Equal(t, tt.wantBasis, f.Basis)
		})
	}
}
