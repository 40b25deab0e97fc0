package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aaplDoc = `{
  "stock_data": {
    "meta": {"symbol": "AAPL", "currency": "USD", "exchange": "NMS", "company_name": "Apple Inc."},
    "prices": [
      {"date": "2024-01-03", "timestamp": 1704292200, "close": 184.25, "open": 184.22, "high": 185.88, "low": 183.43, "volume": 58414500},
      {"date": "2024-01-02", "timestamp": 1704205800, "close": 185.64, "open": null, "high": null, "low": null, "volume": null},
      {"date": "2024-01-04", "timestamp": 1704378600, "close": null}
    ]
  },
  "cramer_recommendations": [
    {"ticker": "AAPL", "date": "2024-01-02", "recommendation": "buy", "performance": {"1m": 3.1}},
    {"ticker": "aapl", "date": "2024-01-03T20:00:00-05:00", "recommendation": "sell"},
    {"ticker": "AAPL", "date": "2024-01-03", "recommendation": "neutral"},
    {"ticker": "MSFT", "date": "2024-01-02", "recommendation": "buy"},
    {"ticker": "AAPL", "date": "soon", "recommendation": "buy"}
  ]
}`

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestJSONStore_Read(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "aapl_data.json", aaplDoc)
	s := NewJSONStore(dir, nil)
	ctx := context.Background()

	doc, err := s.GetDocument(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", doc.StockData.Meta.CompanyName)
	assert.Len(t, doc.Recommendations, 5)

	pts, err := s.GetSeries(ctx, "aapl")
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, "2024-01-02", pts[0].Date.Format("2006-01-02"))
	assert.True(t, pts[0].Close.Equal(decimal.RequireFromString("185.64")))

	recs, err := s.GetRecommendations(ctx, "$AAPL")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "buy", recs[0].Recommendation)
	assert.Equal(t, "2024-01-03", recs[1].Date.Format("2006-01-02"))
	assert.Equal(t, "neutral", recs[2].Recommendation)
}

func TestJSONStore_Errors(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "bad_data.json", `{"stock_data": [`)
	s := NewJSONStore(dir, nil)

	_, err := s.GetDocument(context.Background(), "NONE")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)

	_, err = s.GetDocument(context.Background(), "BAD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domrepo.ErrNotFound)
}

func TestJSONStore_SaveHistoryKeepsCalls(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "aapl_data.json", aaplDoc)
	s := NewJSONStore(dir, nil)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }
	err := s.SaveHistory(ctx, "AAPL", &models.PriceHistory{
		Meta: models.SymbolMeta{Symbol: "AAPL", Currency: "USD"},
		Bars: []models.Bar{
			{Date: day(2), Close: decimal.NewFromInt(190), Volume: 10},
			{Date: day(1), Close: decimal.NewFromInt(188), Volume: 20},
		},
	})
	require.NoError(t, err)

	pts, err := s.GetSeries(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, "2024-02-01", pts[0].Date.Format("2006-01-02"))
	assert.True(t, pts[1].Close.Equal(decimal.NewFromInt(190)))

	recs, err := s.GetRecommendations(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestJSONStore_SaveRecommendationsMerges(t *testing.T) {
	s := NewJSONStore(t.TempDir(), nil)
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	recs := []models.Recommendation{
		{Ticker: "NVDA", Date: d.AddDate(0, 0, 2), Recommendation: "SELL", Text: "sell $NVDA"},
		{Ticker: "nvda", Date: d, Recommendation: "buy", Text: "buy $NVDA"},
		{Ticker: "", Date: d, Recommendation: "buy"},
	}
	require.NoError(t, s.SaveRecommendations(ctx, recs))
	// second save is a no-op for duplicates
	require.NoError(t, s.SaveRecommendations(ctx, recs[:1]))

	got, err := s.GetRecommendations(ctx, "NVDA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "buy", got[0].Recommendation)
	assert.Equal(t, "sell", got[1].Recommendation)

	// a document created by calls alone has no price section
	pts, err := s.GetSeries(ctx, "NVDA")
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestJSONStore_SaveRecommendationsMatchesStoredDateFormats(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "tsla_data.json", `{
  "cramer_recommendations": [
    {"ticker": "TSLA", "date": "2024-03-05T14:30:00Z", "recommendation": "buy", "text": "buy $TSLA"},
    {"ticker": "TSLA", "date": "Fri Mar 01 15:04:05 +0000 2024", "recommendation": "SELL", "text": "sell $TSLA"}
  ]
}`)
	s := NewJSONStore(dir, nil)
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRecommendations(ctx, []models.Recommendation{
		{Ticker: "TSLA", Date: d, Recommendation: "sell", Text: "sell $TSLA"},
		{Ticker: "TSLA", Date: d.AddDate(0, 0, 2), Recommendation: "buy", Text: "buy $TSLA again"},
	}))

	got, err := s.GetRecommendations(ctx, "TSLA")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, d, got[0].Date)
	assert.Equal(t, d.AddDate(0, 0, 2), got[1].Date)
	assert.Equal(t, d.AddDate(0, 0, 4), got[2].Date)
}
