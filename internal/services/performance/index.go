package performance

import (
	"time"

	"ContraTrack/internal/domain/models"
	"ContraTrack/pkg/util"

	"github.com/shopspring/decimal"
)

// PriceIndex looks up closes by calendar day.
type PriceIndex struct {
	byDay map[string]decimal.Decimal
}

// NewPriceIndex indexes a series by its YYYY-MM-DD keys. If the series holds
// two points for one day, the later one wins.
func NewPriceIndex(series []models.PricePoint) *PriceIndex {
	ix := &PriceIndex{byDay: make(map[string]decimal.Decimal, len(series))}
	for _, p := range series {
		ix.byDay[util.DayKey(p.Date)] = p.Close
	}
	return ix
}

// Len is the number of distinct days indexed.
func (ix *PriceIndex) Len() int { return len(ix.byDay) }

// At returns the close on exactly day.
func (ix *PriceIndex) At(day time.Time) (decimal.Decimal, bool) {
	v, ok := ix.byDay[util.DayKey(day)]
	return v, ok
}

// OnOrAfter returns the first close within maxGap calendar days on or after day.
func (ix *PriceIndex) OnOrAfter(day time.Time, maxGap int) (decimal.Decimal, bool) {
	for i := 0; i <= maxGap; i++ {
		if v, ok := ix.At(day.AddDate(0, 0, i)); ok {
			return v, true
		}
	}
	return decimal.Decimal{}, false
}

// Lookup locates the target price for a horizon date.
type Lookup interface {
	Mode() models.LookupMode
	Target(ix *PriceIndex, day time.Time) (decimal.Decimal, bool)
}

// ExactLookup requires a price on exactly the target day.
type ExactLookup struct{}

func (ExactLookup) Mode() models.LookupMode { return models.LookupExact }

func (ExactLookup) Target(ix *PriceIndex, day time.Time) (decimal.Decimal, bool) {
	return ix.At(day)
}

// NearestLookup rolls a missing target forward to the next trading day, up to
// MaxGapDays calendar days. The anchor is never approximated.
type NearestLookup struct {
	MaxGapDays int
}

func (NearestLookup) Mode() models.LookupMode { return models.LookupNearest }

func (l NearestLookup) Target(ix *PriceIndex, day time.Time) (decimal.Decimal, bool) {
	gap := l.MaxGapDays
	if gap < 0 {
		gap = 0
	}
	return ix.OnOrAfter(day, gap)
}

// LookupFor maps request options onto a Lookup.
func LookupFor(mode models.LookupMode, maxGapDays int) Lookup {
	if mode == models.LookupNearest {
		return NearestLookup{MaxGapDays: maxGapDays}
	}
	return ExactLookup{}
}
