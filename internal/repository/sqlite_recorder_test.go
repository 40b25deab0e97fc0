package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"ContraTrack/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := models.AnalysisRun{
			RunID:            fmt.Sprintf("run-%d", i),
			Symbol:           "aapl",
			Rule:             models.RuleLiteral,
			Lookup:           models.LookupExact,
			BuyMonthMean:     decimal.NewNullDecimal(decimal.RequireFromString("-1.25")),
			InverseEffective: true,
			BuyCount:         i + 1,
			ComputedAt:       base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, r.RecordRun(ctx, run))
	}
	require.NoError(t, r.RecordRun(ctx, models.AnalysisRun{
		RunID: "other", Symbol: "MSFT", Rule: models.RuleStrict, Lookup: models.LookupNearest, ComputedAt: base,
	}))

	runs, err := r.ListRuns(ctx, "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, "AAPL", runs[0].Symbol)
	assert.True(t, runs[0].InverseEffective)
	assert.False(t, runs[0].RuleVerdict)
	assert.Equal(t, 3, runs[0].BuyCount)
	assert.True(t, runs[0].BuyMonthMean.Valid)
	assert.True(t, runs[0].BuyMonthMean.Decimal.Equal(decimal.RequireFromString("-1.25")))
	assert.False(t, runs[0].SellMonthMean.Valid)
	assert.True(t, runs[0].ComputedAt.Equal(base.Add(2*time.Hour)))

	other, err := r.ListRuns(ctx, "msft", 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, models.LookupNearest, other[0].Lookup)
	assert.Equal(t, models.RuleStrict, other[0].Rule)
}

func TestSQLiteRecorder_Overwrite(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	run := models.AnalysisRun{RunID: "x", Symbol: "NVDA", Rule: models.RuleLiteral, Lookup: models.LookupExact, ComputedAt: time.Now()}
	require.NoError(t, r.RecordRun(ctx, run))
	run.SellCount = 4
	require.NoError(t, r.RecordRun(ctx, run))

	runs, err := r.ListRuns(ctx, "NVDA", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 4, runs[0].SellCount)
}
