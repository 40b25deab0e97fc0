package cache

import (
	"context"
	"fmt"
	"time"

	"ContraTrack/internal/domain/models"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AnalysisKey identifies a cached analysis. Any change to the price series or
// the event list yields a new version and therefore a new key.
func AnalysisKey(symbol, seriesVersion, eventsVersion string, opts models.AnalysisOptions) string {
	return fmt.Sprintf("analysis:%s:%s:%s:%s:%d:%s",
		symbol, seriesVersion, eventsVersion, opts.Lookup, gapFor(opts), opts.Rule)
}

// gapFor collapses MaxGapDays under exact lookup so equivalent requests share a key.
func gapFor(opts models.AnalysisOptions) int {
	if opts.Lookup != models.LookupNearest {
		return 0
	}
	return opts.Gap()
}
