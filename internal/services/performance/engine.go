package performance

import (
	"ContraTrack/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Engine partitions events by class, averages their forward returns per
// horizon and derives the inverse verdict. It holds no mutable state.
type Engine struct {
	calc *Calculator
}

// NewEngine creates an engine. Options are shared with NewCalculator.
func NewEngine(opts ...Option) *Engine {
	return &Engine{calc: NewCalculator(opts...)}
}

// Calculator exposes the engine's forward-return calculator.
func (e *Engine) Calculator() *Calculator { return e.calc }

// Analyze evaluates events against series. Neither input is modified.
func (e *Engine) Analyze(series []models.PricePoint, events []models.RecommendationEvent) models.Analysis {
	ix := NewPriceIndex(series)

	buys := make([]models.EventReturns, 0, len(events))
	sells := make([]models.EventReturns, 0, len(events))
	all := make([]models.EventReturns, 0, len(events))
	for _, ev := range events {
		if !ev.Class.Actionable() {
			continue
		}
		er := models.EventReturns{Event: ev, Returns: e.calc.Returns(ix, ev)}
		all = append(all, er)
		if ev.Class == models.ClassBuy {
			buys = append(buys, er)
		} else {
			sells = append(sells, er)
		}
	}

	a := models.Analysis{
		BuyMeans:  make(map[models.Horizon]decimal.NullDecimal, len(models.Horizons)),
		SellMeans: make(map[models.Horizon]decimal.NullDecimal, len(models.Horizons)),
		Events:    all,
		BuyCount:  len(buys),
		SellCount: len(sells),
	}
	for _, h := range models.Horizons {
		bm, bn := meanAt(buys, h)
		sm, sn := meanAt(sells, h)
		a.BuyMeans[h] = bm
		a.SellMeans[h] = sm
		a.Aggregates = append(a.Aggregates,
			models.AggregateResult{Class: models.ClassBuy, Horizon: h, MeanReturn: bm, Samples: bn},
			models.AggregateResult{Class: models.ClassSell, Horizon: h, MeanReturn: sm, Samples: sn},
		)
	}
	a.InverseEffective = LiteralVerdict(a.BuyMeans[models.VerdictHorizon], a.SellMeans[models.VerdictHorizon])
	return a
}

// Analyze runs the default engine: exact date matching, literal verdict.
func Analyze(series []models.PricePoint, events []models.RecommendationEvent) models.Analysis {
	return NewEngine().Analyze(series, events)
}

// Mean is the arithmetic mean of the valid values. It is invalid when no value is.
func Mean(values []decimal.NullDecimal) (decimal.NullDecimal, int) {
	sum := decimal.Zero
	n := 0
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum = sum.Add(v.Decimal)
		n++
	}
	if n == 0 {
		return decimal.NullDecimal{}, 0
	}
	return decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(n)))), n
}

func meanAt(group []models.EventReturns, h models.Horizon) (decimal.NullDecimal, int) {
	vals := make([]decimal.NullDecimal, 0, len(group))
	for _, er := range group {
		vals = append(vals, er.Returns[h])
	}
	return Mean(vals)
}
