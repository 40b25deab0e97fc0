package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
	"ContraTrack/internal/service/ratelimit"
	xlogger "ContraTrack/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalysis struct {
	doc      *models.StockDocument
	err      error
	lastOpts models.AnalysisOptions
	lastSym  string
	runs     []models.AnalysisRun
	limit    int
}

func (f *fakeAnalysis) Document(_ context.Context, symbol string) (*models.StockDocument, error) {
	f.lastSym = symbol
	return f.doc, f.err
}

func (f *fakeAnalysis) Analyze(_ context.Context, symbol string, opts models.AnalysisOptions) (*models.AnalysisReport, error) {
	f.lastSym, f.lastOpts = symbol, opts
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisReport{
		Symbol: "AAPL",
		Rule:   opts.Rule,
		Analysis: models.Analysis{
			BuyMeans: map[models.Horizon]decimal.NullDecimal{
				models.Horizon1M: decimal.NewNullDecimal(decimal.NewFromInt(30)),
				models.Horizon1D: {},
			},
			BuyCount: 1,
		},
	}, nil
}

func (f *fakeAnalysis) History(_ context.Context, _ string, limit int) ([]models.AnalysisRun, error) {
	f.limit = limit
	return f.runs, f.err
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *StockHandler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestStock(t *testing.T) {
	svc := &fakeAnalysis{doc: &models.StockDocument{
		Recommendations: []models.DocumentRecommendation{{Ticker: "AAPL", Date: "2024-01-02", Recommendation: "buy"}},
	}}
	h := NewStockHandler(xlogger.Nop(), svc, nil)

	rec, env := serve(t, h, http.MethodGet, "/api/stock/AAPL", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, string(env.Data), `"cramer_recommendations"`)
	assert.Equal(t, "AAPL", svc.lastSym)
}

func TestStockErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domrepo.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{"parse failure", errors.New("parse aapl_data.json: unexpected EOF"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewStockHandler(xlogger.Nop(), &fakeAnalysis{err: tc.err}, nil)
			rec, env := serve(t, h, http.MethodGet, "/api/stock/ZZZ", "")
			assert.Equal(t, tc.status, rec.Code)
			var errs []map[string]interface{}
			require.NoError(t, json.Unmarshal(env.Data, &errs))
			require.Len(t, errs, 1)
			assert.Equal(t, tc.code, errs[0]["code"])
		})
	}
}

func TestAnalysisDefaultsAndOptions(t *testing.T) {
	svc := &fakeAnalysis{}
	h := NewStockHandler(xlogger.Nop(), svc, nil)

	rec, env := serve(t, h, http.MethodGet, "/api/stock/AAPL/analysis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AnalysisOptions{}, svc.lastOpts)
	assert.Equal(t, "private, max-age=15", rec.Header().Get(echo.HeaderCacheControl))

	var rep map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	means := rep["buy_means"].(map[string]interface{})
	assert.Equal(t, "30", means["1m"])
	assert.Nil(t, means["1d"])

	rec, _ = serve(t, h, http.MethodGet, "/api/stock/AAPL/analysis?lookup=nearest&max_gap_days=5&rule=strict&refresh=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AnalysisOptions{Lookup: models.LookupNearest, MaxGapDays: models.GapDays(5), Rule: models.RuleStrict, Refresh: true}, svc.lastOpts)
}

func TestAnalysisExplicitZeroGap(t *testing.T) {
	svc := &fakeAnalysis{}
	h := NewStockHandler(xlogger.Nop(), svc, nil)

	rec, _ := serve(t, h, http.MethodGet, "/api/stock/AAPL/analysis?lookup=nearest&max_gap_days=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastOpts.MaxGapDays)
	assert.Equal(t, 0, *svc.lastOpts.MaxGapDays)
	assert.Equal(t, models.LookupNearest, svc.lastOpts.Lookup)
	assert.Empty(t, svc.lastOpts.Rule)
}

func TestAnalysisValidation(t *testing.T) {
	h := NewStockHandler(xlogger.Nop(), &fakeAnalysis{}, nil)
	for _, q := range []string{"?lookup=fuzzy", "?rule=loose", "?lookup=nearest&max_gap_days=11"} {
		rec, env := serve(t, h, http.MethodGet, "/api/stock/AAPL/analysis"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, http.StatusBadRequest, env.Status, q)
	}
}

func TestHistory(t *testing.T) {
	svc := &fakeAnalysis{runs: []models.AnalysisRun{{RunID: "a"}, {RunID: "b"}}}
	h := NewStockHandler(xlogger.Nop(), svc, nil)

	rec, env := serve(t, h, http.MethodGet, "/api/stock/AAPL/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.limit)
	var list struct {
		Rows  []models.AnalysisRun `json:"rows"`
		Total int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, "a", list.Rows[0].RunID)
}

func TestClassify(t *testing.T) {
	h := NewStockHandler(xlogger.Nop(), &fakeAnalysis{}, nil)

	rec, env := serve(t, h, http.MethodPost, "/api/recommendations/classify", `{"text":"Buy $aapl and $MSFT now"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ClassifyResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []string{"AAPL", "MSFT"}, res.Symbols)
	assert.Equal(t, models.ClassBuy, res.Sentiment)
	assert.True(t, res.IsRecommendation)

	rec, _ = serve(t, h, http.MethodPost, "/api/recommendations/classify", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	svc := &fakeAnalysis{doc: &models.StockDocument{}}
	h := NewStockHandler(xlogger.Nop(), svc, RateLimit(ratelimit.New(0.001, 1)))
	e := echo.New()
	h.RegisterRoutes(e)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stock/AAPL", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
