package usecase

import (
	"context"
	"errors"
	"testing"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	err       error
	calls     []string
	intervals []domrepo.Interval
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchHistory(_ context.Context, symbol string, iv domrepo.Interval, _ string) (*models.PriceHistory, error) {
	f.calls = append(f.calls, symbol)
	f.intervals = append(f.intervals, iv)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PriceHistory{
		Meta: models.SymbolMeta{Symbol: symbol},
		Bars: []models.Bar{
			{Date: at(0), Close: decimal.NewFromInt(1)},
			{Date: at(1), Close: decimal.NewFromInt(2)},
		},
	}, nil
}

type fakeSource struct {
	name string
	recs []models.Recommendation
	err  error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Collect(context.Context) ([]models.Recommendation, error) {
	return f.recs, f.err
}

func TestIngest_Run(t *testing.T) {
	fetcher := &fakeFetcher{}
	prices := &fakePrices{}
	recs := &fakeRecs{}
	m := &fakeMetrics{}
	good := &fakeSource{name: "site", recs: []models.Recommendation{
		{Ticker: "AAPL", Date: at(0), Recommendation: "buy"},
		{Ticker: "AAPL", Date: at(1), Recommendation: "sell"},
		{Ticker: "TSLA", Date: at(1), Recommendation: "sell"},
	}}
	bad := &fakeSource{name: "broken", err: errors.New("timeout")}

	uc := NewIngestUseCase(fetcher, nil, prices, recs, m, nil, "", "")
	uc.sources = append(uc.sources, good, bad)

	err := uc.Run(context.Background(), []string{"aapl", "$msft"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "broken")

	assert.Equal(t, []string{"AAPL", "MSFT"}, fetcher.calls)
	assert.Equal(t, domrepo.Interval1d, fetcher.intervals[0])
	require.Contains(t, prices.saved, "AAPL")
	assert.Len(t, prices.saved["AAPL"].Bars, 2)
	assert.Len(t, recs.saved, 3)

	assert.Equal(t, 2, m.ingested["fake/AAPL"])
	assert.Equal(t, 2, m.ingested["site/AAPL"])
	assert.Equal(t, 1, m.ingested["site/TSLA"])
	assert.Contains(t, m.errors, "collect")
}

func TestIngest_PriceFailure(t *testing.T) {
	boom := errors.New("429")
	m := &fakeMetrics{}
	uc := NewIngestUseCase(&fakeFetcher{err: boom}, nil, &fakePrices{}, &fakeRecs{}, m, nil, "1wk", "1y")

	n, err := uc.IngestPrices(context.Background(), "AAPL")
	assert.Zero(t, n)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"fetch"}, m.errors)

	_, err = uc.IngestPrices(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}
