package series

import (
	"testing"
	"time"

	"ContraTrack/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestNormalizeSortsAndDedupes(t *testing.T) {
	in := []models.PricePoint{
		{Date: time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(3)},
		{Date: day(2024, 1, 1), Close: decimal.NewFromInt(1)},
		{Date: time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC), Close: decimal.NewFromInt(4)},
		{Date: day(2024, 1, 2), Close: decimal.NewFromInt(2)},
	}
	out := Normalize(in)
	require.Len(t, out, 3)
	assert.Equal(t, day(2024, 1, 1), out[0].Date)
	assert.Equal(t, day(2024, 1, 2), out[1].Date)
	assert.Equal(t, day(2024, 1, 3), out[2].Date)
	assert.True(t, out[2].Close.Equal(decimal.NewFromInt(4)), "later duplicate wins")

	// input untouched
	assert.Equal(t, 16, in[0].Date.Hour())
	assert.Nil(t, Normalize(nil))
}

func TestFromDocumentSkipsNullCloses(t *testing.T) {
	prices := []models.DocumentPrice{
		{Date: "2024-01-02", Close: decimal.NewNullDecimal(decimal.RequireFromString("185.64"))},
		{Date: "2024-01-03"},
		{Date: "garbage", Close: decimal.NewNullDecimal(decimal.NewFromInt(1))},
		{Date: "2024-01-04T00:00:00Z", Close: decimal.NewNullDecimal(decimal.RequireFromString("181.91"))},
	}
	out := FromDocument(prices)
	require.Len(t, out, 2)
	assert.Equal(t, "185.64", out[0].Close.String())
	assert.Equal(t, day(2024, 1, 4), out[1].Date)
}

func TestEventsFiltersAndKeepsOrder(t *testing.T) {
	recs := []models.Recommendation{
		{Ticker: "aapl", Date: day(2024, 2, 1), Recommendation: "sell"},
		{Ticker: "TSLA", Date: day(2024, 2, 2), Recommendation: "buy"},
		{Ticker: "AAPL", Date: day(2024, 2, 3), Recommendation: "neutral"},
		{Ticker: "AAPL", Recommendation: "buy"},
		{Ticker: "AAPL", Date: time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), Recommendation: "BUY"},
	}
	evs := Events("AAPL", recs)
	require.Len(t, evs, 2)
	assert.Equal(t, models.ClassSell, evs[0].Class)
	assert.Equal(t, models.ClassBuy, evs[1].Class)
	assert.Equal(t, day(2024, 1, 15), evs[1].Date)
}

func TestVersionsAreStable(t *testing.T) {
	a := []models.PricePoint{{Date: day(2024, 1, 1), Close: decimal.NewFromInt(1)}}
	b := []models.PricePoint{{Date: day(2024, 1, 1), Close: decimal.NewFromInt(2)}}
	assert.Equal(t, Version(a), Version(a))
	assert.NotEqual(t, Version(a), Version(b))

	e1 := []models.RecommendationEvent{{Date: day(2024, 1, 1), Class: models.ClassBuy}}
	e2 := []models.RecommendationEvent{{Date: day(2024, 1, 1), Class: models.ClassSell}}
	assert.NotEqual(t, EventsVersion(e1), EventsVersion(e2))
	assert.Len(t, EventsVersion(nil), 16)
}
