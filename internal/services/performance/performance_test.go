package performance

import (
	"testing"
	"time"

	"ContraTrack/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func at(offset int) time.Time { return day0.AddDate(0, 0, offset) }

func pt(offset int, close string) models.PricePoint {
	return models.PricePoint{Date: at(offset), Close: decimal.RequireFromString(close)}
}

func buy(offset int) models.RecommendationEvent {
	return models.RecommendationEvent{Date: at(offset), Class: models.ClassBuy}
}

func sell(offset int) models.RecommendationEvent {
	return models.RecommendationEvent{Date: at(offset), Class: models.ClassSell}
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

var absent = decimal.NullDecimal{}

func assertDec(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected %s, got absent", want)
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "expected %s, got %s", want, got.Decimal)
}

// linearSeries closes at 100+d for days 0..30 and at 160 on day 365.
func linearSeries() []models.PricePoint {
	s := make([]models.PricePoint, 0, 32)
	for d := 0; d <= 30; d++ {
		s = append(s, models.PricePoint{Date: at(d), Close: decimal.NewFromInt(int64(100 + d))})
	}
	return append(s, pt(365, "160"))
}

func TestComputeForwardReturn(t *testing.T) {
	s := linearSeries()
	assertDec(t, "1", ComputeForwardReturn(s, buy(0), models.Horizon1D))
	assertDec(t, "7", ComputeForwardReturn(s, buy(0), models.Horizon1W))
	assertDec(t, "30", ComputeForwardReturn(s, buy(0), models.Horizon1M))
	assertDec(t, "60", ComputeForwardReturn(s, buy(0), models.Horizon1Y))

	// falling price gives a negative return
	down := []models.PricePoint{pt(0, "50"), pt(1, "49")}
	assertDec(t, "-2", ComputeForwardReturn(down, sell(0), models.Horizon1D))
}

func TestForwardReturnScaleInvariant(t *testing.T) {
	base := []models.PricePoint{pt(0, "37.13"), pt(1, "38.02"), pt(7, "35.5"), pt(30, "41.999")}
	for _, factor := range []string{"2.5", "0.37", "1000", "3"} {
		f := decimal.RequireFromString(factor)
		scaled := make([]models.PricePoint, len(base))
		for i, p := range base {
			scaled[i] = models.PricePoint{Date: p.Date, Close: p.Close.Mul(f)}
		}
		for _, h := range []models.Horizon{models.Horizon1D, models.Horizon1W, models.Horizon1M} {
			want := ComputeForwardReturn(base, buy(0), h)
			got := ComputeForwardReturn(scaled, buy(0), h)
			require.True(t, want.Valid)
			require.True(t, got.Valid)
			assert.True(t, want.Decimal.Equal(got.Decimal), "factor %s horizon %s: %s vs %s", factor, h, want.Decimal, got.Decimal)
		}
	}
}

func TestForwardReturnAbsentIffDateMissing(t *testing.T) {
	full := []models.PricePoint{pt(0, "100"), pt(30, "110")}
	assert.True(t, ComputeForwardReturn(full, buy(0), models.Horizon1M).Valid)

	noAnchor := []models.PricePoint{pt(1, "100"), pt(30, "110")}
	assert.False(t, ComputeForwardReturn(noAnchor, buy(0), models.Horizon1M).Valid)

	noTarget := []models.PricePoint{pt(0, "100"), pt(29, "110"), pt(31, "111")}
	assert.False(t, ComputeForwardReturn(noTarget, buy(0), models.Horizon1M).Valid)

	assert.False(t, ComputeForwardReturn(nil, buy(0), models.Horizon1M).Valid)
	assert.False(t, ComputeForwardReturn(full, buy(0), models.Horizon("2y")).Valid)
}

func TestForwardReturnZeroAnchorIsAbsent(t *testing.T) {
	s := []models.PricePoint{pt(0, "0"), pt(1, "5")}
	assert.False(t, ComputeForwardReturn(s, buy(0), models.Horizon1D).Valid)
}

func TestForwardReturnIgnoresTimeOfDay(t *testing.T) {
	s := []models.PricePoint{
		{Date: day0.Add(21 * time.Hour), Close: decimal.NewFromInt(100)},
		{Date: at(1).Add(14 * time.Hour), Close: decimal.NewFromInt(103)},
	}
	ev := models.RecommendationEvent{Date: day0.Add(9 * time.Hour), Class: models.ClassBuy}
	assertDec(t, "3", ComputeForwardReturn(s, ev, models.Horizon1D))
}

func TestNearestLookupRollsTargetOnly(t *testing.T) {
	// target day 30 is a weekend; next bar on day 32
	s := []models.PricePoint{pt(0, "100"), pt(32, "120")}
	exact := NewCalculator()
	near := NewCalculator(WithNearestTarget(3))
	ix := NewPriceIndex(s)

	assert.False(t, exact.ForwardReturn(ix, buy(0), models.Horizon1M).Valid)
	assertDec(t, "20", near.ForwardReturn(ix, buy(0), models.Horizon1M))
	assert.Equal(t, models.LookupNearest, near.Lookup().Mode())

	tooFar := NewCalculator(WithNearestTarget(1))
	assert.False(t, tooFar.ForwardReturn(ix, buy(0), models.Horizon1M).Valid)

	// the anchor is never approximated
	assert.False(t, near.ForwardReturn(ix, buy(-1), models.Horizon1M).Valid)
}

func TestLookupFor(t *testing.T) {
	assert.Equal(t, models.LookupExact, LookupFor(models.LookupExact, 5).Mode())
	assert.Equal(t, models.LookupExact, LookupFor("", 5).Mode())
	l := LookupFor(models.LookupNearest, 4)
	require.IsType(t, NearestLookup{}, l)
	assert.Equal(t, 4, l.(NearestLookup).MaxGapDays)
}

func TestAnalyzeEmptyEvents(t *testing.T) {
	a := Analyze(linearSeries(), nil)
	for _, h := range models.Horizons {
		assert.False(t, a.BuyMeans[h].Valid, "buy %s", h)
		assert.False(t, a.SellMeans[h].Valid, "sell %s", h)
	}
	assert.False(t, a.InverseEffective)
	assert.Len(t, a.Aggregates, 2*len(models.Horizons))
}

func TestAnalyzeEmptySeries(t *testing.T) {
	a := Analyze(nil, []models.RecommendationEvent{buy(0), sell(3)})
	for _, h := range models.Horizons {
		assert.False(t, a.BuyMeans[h].Valid)
		assert.False(t, a.SellMeans[h].Valid)
	}
	assert.False(t, a.InverseEffective)
	assert.Equal(t, 1, a.BuyCount)
	assert.Equal(t, 1, a.SellCount)
}

func TestAnalyzeMeanSkipsAbsent(t *testing.T) {
	s := []models.PricePoint{
		pt(0, "100"), pt(30, "110"), // +10
		pt(100, "50"), pt(130, "49"), // -2
		pt(230, "70"), // event on 200 has no anchor
	}
	a := Analyze(s, []models.RecommendationEvent{buy(0), buy(100), buy(200)})
	assertDec(t, "4", a.BuyMeans[models.Horizon1M])
	assert.False(t, a.SellMeans[models.Horizon1M].Valid)

	var agg models.AggregateResult
	for _, r := range a.Aggregates {
		if r.Class == models.ClassBuy && r.Horizon == models.Horizon1M {
			agg = r
		}
	}
	assert.Equal(t, 2, agg.Samples)
	assert.Equal(t, 3, a.BuyCount)
}

func TestAnalyzeCountsDuplicateDates(t *testing.T) {
	s := []models.PricePoint{pt(0, "100"), pt(1, "110"), pt(10, "200"), pt(11, "180")}
	a := Analyze(s, []models.RecommendationEvent{sell(0), sell(0), sell(10)})
	// (10 + 10 - 10) / 3
	assert.Equal(t, 3, a.SellCount)
	assert.Equal(t, "3.3333333333333333", a.SellMeans[models.Horizon1D].Decimal.String())
}

func TestAnalyzeIgnoresNeutralEvents(t *testing.T) {
	s := []models.PricePoint{pt(0, "100"), pt(1, "90")}
	a := Analyze(s, []models.RecommendationEvent{{Date: at(0), Class: models.ClassNeutral}})
	assert.Empty(t, a.Events)
	assert.False(t, a.BuyMeans[models.Horizon1D].Valid)
}

func TestAnalyzeDoesNotMutateInputs(t *testing.T) {
	s := linearSeries()
	evs := []models.RecommendationEvent{sell(3), buy(0)}
	sCopy := append([]models.PricePoint(nil), s...)
	eCopy := append([]models.RecommendationEvent(nil), evs...)
	_ = Analyze(s, evs)
	assert.Equal(t, sCopy, s)
	assert.Equal(t, eCopy, evs)
}

func TestAnalyzePreservesEventOrder(t *testing.T) {
	evs := []models.RecommendationEvent{sell(3), buy(0), sell(1)}
	a := Analyze(linearSeries(), evs)
	require.Len(t, a.Events, 3)
	for i := range evs {
		assert.Equal(t, evs[i], a.Events[i].Event)
	}
}

func TestVerdictTruthTable(t *testing.T) {
	cases := []struct {
		name   string
		b, s   decimal.NullDecimal
		want   bool
		strict bool
	}{
		{"buy only negative", nd("-5"), absent, true, true},
		{"buy only positive", nd("5"), absent, false, false},
		{"sell only positive", absent, nd("8"), true, true},
		{"sell only negative", absent, nd("-8"), false, false},
		{"buy loses sell gains", nd("-3"), nd("6"), true, true},
		{"both up buy lower", nd("3"), nd("6"), true, false},
		{"both down buy higher", nd("-3"), nd("-8"), false, false},
		{"both down buy lower", nd("-8"), nd("-3"), true, false},
		{"equal means", nd("2"), nd("2"), false, false},
		{"zero buy only", nd("0"), absent, false, false},
		{"nothing", absent, absent, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, LiteralVerdict(c.b, c.s))
			assert.Equal(t, c.strict, StrictVerdict(c.b, c.s))

			a := models.Analysis{
				BuyMeans:  map[models.Horizon]decimal.NullDecimal{models.Horizon1M: c.b},
				SellMeans: map[models.Horizon]decimal.NullDecimal{models.Horizon1M: c.s},
			}
			assert.Equal(t, c.want, Verdict(a, models.RuleLiteral))
			assert.Equal(t, c.strict, Verdict(a, models.RuleStrict))
		})
	}
}

func TestVerdictUsesMonthHorizonOnly(t *testing.T) {
	a := models.Analysis{
		BuyMeans: map[models.Horizon]decimal.NullDecimal{
			models.Horizon1D: nd("-50"),
			models.Horizon1Y: nd("-50"),
		},
		SellMeans: map[models.Horizon]decimal.NullDecimal{},
	}
	assert.False(t, Verdict(a, models.RuleLiteral))
}

func TestEndToEndSingleBuy(t *testing.T) {
	a := Analyze(linearSeries(), []models.RecommendationEvent{buy(0)})

	assertDec(t, "1", a.BuyMeans[models.Horizon1D])
	assertDec(t, "7", a.BuyMeans[models.Horizon1W])
	assertDec(t, "30", a.BuyMeans[models.Horizon1M])
	assertDec(t, "60", a.BuyMeans[models.Horizon1Y])
	for _, h := range models.Horizons {
		assert.False(t, a.SellMeans[h].Valid)
	}
	// buy mean present and positive, no sells: fading the call did not work
	assert.False(t, a.InverseEffective)
}

func TestEngineWithNearestTarget(t *testing.T) {
	s := []models.PricePoint{pt(0, "100"), pt(31, "90")}
	exact := NewEngine().Analyze(s, []models.RecommendationEvent{buy(0)})
	near := NewEngine(WithNearestTarget(2)).Analyze(s, []models.RecommendationEvent{buy(0)})

	assert.False(t, exact.BuyMeans[models.Horizon1M].Valid)
	assertDec(t, "-10", near.BuyMeans[models.Horizon1M])
	assert.True(t, near.InverseEffective)
}

func TestMean(t *testing.T) {
	m, n := Mean([]decimal.NullDecimal{nd("10"), absent, nd("-2")})
	assertDec(t, "4", m)
	assert.Equal(t, 2, n)

	m, n = Mean([]decimal.NullDecimal{absent})
	assert.False(t, m.Valid)
	assert.Zero(t, n)

	m, _ = Mean(nil)
	assert.False(t, m.Valid)
}
