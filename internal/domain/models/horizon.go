package models

import "fmt"

// Horizon is a fixed forward offset measured from a recommendation date.
type Horizon string

const (
	Horizon1D Horizon = "1d"
	Horizon1W Horizon = "1w"
	Horizon1M Horizon = "1m"
	Horizon1Y Horizon = "1y"
)

// Horizons lists every horizon in ascending order.
var Horizons = []Horizon{Horizon1D, Horizon1W, Horizon1M, Horizon1Y}

// VerdictHorizon is the only horizon the inverse verdict looks at.
const VerdictHorizon = Horizon1M

// Days returns the calendar offset of the horizon.
func (h Horizon) Days() int {
	switch h {
	case Horizon1D:
		return 1
	case Horizon1W:
		return 7
	case Horizon1M:
		return 30
	case Horizon1Y:
		return 365
	default:
		return 0
	}
}

// Valid reports whether h is one of the known horizons.
func (h Horizon) Valid() bool { return h.Days() > 0 }

// ParseHorizon accepts the short codes as well as the long enum names.
func ParseHorizon(s string) (Horizon, error) {
	switch s {
	case "1d", "1_DAY":
		return Horizon1D, nil
	case "1w", "1_WEEK":
		return Horizon1W, nil
	case "1m", "1_MONTH":
		return Horizon1M, nil
	case "1y", "1_YEAR":
		return Horizon1Y, nil
	default:
		return "", fmt.Errorf("unknown horizon %q", s)
	}
}
