package performance

import (
	"ContraTrack/internal/domain/models"
	"ContraTrack/pkg/util"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculator computes forward returns against an indexed series.
type Calculator struct {
	lookup Lookup
}

// Option configures a Calculator or an Engine.
type Option func(*options)

type options struct {
	lookup Lookup
}

// WithLookup sets the target lookup policy. The default is ExactLookup.
func WithLookup(l Lookup) Option {
	return func(o *options) {
		if l != nil {
			o.lookup = l
		}
	}
}

// WithNearestTarget enables the forward roll of missing target dates.
func WithNearestTarget(maxGapDays int) Option {
	return WithLookup(NearestLookup{MaxGapDays: maxGapDays})
}

func buildOptions(opts []Option) options {
	o := options{lookup: ExactLookup{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewCalculator creates a calculator; without options it matches dates exactly.
func NewCalculator(opts ...Option) *Calculator {
	o := buildOptions(opts)
	return &Calculator{lookup: o.lookup}
}

// Lookup returns the active target lookup policy.
func (c *Calculator) Lookup() Lookup { return c.lookup }

// ForwardReturn is the percentage change from the event date to event date
// plus the horizon offset. The result is invalid when the anchor day is not in
// the index, the target cannot be located, or the anchor close is zero.
func (c *Calculator) ForwardReturn(ix *PriceIndex, ev models.RecommendationEvent, h models.Horizon) decimal.NullDecimal {
	if !h.Valid() {
		return decimal.NullDecimal{}
	}
	anchor, ok := ix.At(ev.Date)
	if !ok || anchor.IsZero() {
		return decimal.NullDecimal{}
	}
	target, ok := c.lookup.Target(ix, util.AddDays(ev.Date, h.Days()))
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(target.Sub(anchor).Div(anchor).Mul(hundred))
}

// Returns computes the forward return of ev at every horizon.
func (c *Calculator) Returns(ix *PriceIndex, ev models.RecommendationEvent) map[models.Horizon]decimal.NullDecimal {
	out := make(map[models.Horizon]decimal.NullDecimal, len(models.Horizons))
	for _, h := range models.Horizons {
		out[h] = c.ForwardReturn(ix, ev, h)
	}
	return out
}

// ComputeForwardReturn is the exact-match forward return of one event over a
// raw series. It is invalid when the event day or the target day has no
// price, and also when the anchor close is zero, since the change is then
// undefined.
func ComputeForwardReturn(series []models.PricePoint, ev models.RecommendationEvent, h models.Horizon) decimal.NullDecimal {
	return NewCalculator().ForwardReturn(NewPriceIndex(series), ev, h)
}
