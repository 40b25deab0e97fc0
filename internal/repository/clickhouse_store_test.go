package repository

import (
	"strings"
	"testing"
	"time"

	"ContraTrack/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCHSchema(t *testing.T) {
	stmts := CHSchema("contratrack")
	require.Len(t, stmts, 4)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS contratrack", stmts[0])
	assert.Contains(t, stmts[1], "contratrack.prices_daily")
	assert.Contains(t, stmts[1], "ReplacingMergeTree(ingested_at)")
	assert.Contains(t, stmts[2], "contratrack.recommendations")
	assert.True(t, strings.Contains(stmts[3], "ORDER BY symbol"))
}

func TestPriceRows(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bars := []models.Bar{{
		Date:   time.Date(2024, 4, 30, 16, 0, 0, 0, time.UTC),
		Open:   decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Close:  decimal.RequireFromString("10.5"),
		Volume: -1,
	}}
	rows := priceRows("AAPL", bars, now)
	require.Len(t, rows, 1)
	r := rows[0]
	require.Len(t, r, 9)
	assert.Equal(t, "AAPL", r[0])
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), r[1])
	open, ok := r[2].(*decimal.Decimal)
	require.True(t, ok)
	assert.True(t, open.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, r[3])
	assert.Equal(t, uint64(0), r[7])
	assert.Equal(t, now, r[8])
}

func TestRecommendationRows(t *testing.T) {
	now := time.Now()
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := recommendationRows([]models.Recommendation{
		{Ticker: "$tsla", Date: d, Recommendation: "BUY", Text: "buy $TSLA"},
		{Ticker: "TSLA", Date: d, Recommendation: "buy", Text: "buy $TSLA"},
		{Ticker: "", Date: d, Recommendation: "buy"},
		{Ticker: "TSLA", Recommendation: "sell"},
	}, now)
	require.Len(t, rows, 2)
	assert.Equal(t, "TSLA", rows[0][0])
	assert.Equal(t, "buy", rows[0][2])
	// identical calls hash identically so the merge collapses them
	assert.Equal(t, rows[0][5], rows[1][5])
}

func TestNullDecimalPointers(t *testing.T) {
	assert.Nil(t, ptrFromNull(decimal.NullDecimal{}))
	assert.False(t, nullFromPtr(nil).Valid)
	d := decimal.NewFromInt(3)
	assert.True(t, nullFromPtr(&d).Decimal.Equal(d))
}
