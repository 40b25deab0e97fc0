package performance

import (
	"ContraTrack/internal/domain/models"

	"github.com/shopspring/decimal"
)

// LiteralVerdict decides whether fading the calls would have worked, given the
// 1m buy mean b and sell mean s. When both are present the B < S branch alone
// can make it true, even if both means share a sign.
func LiteralVerdict(b, s decimal.NullDecimal) bool {
	switch {
	case !b.Valid && !s.Valid:
		return false
	case b.Valid && !s.Valid:
		return b.Decimal.IsNegative()
	case !b.Valid && s.Valid:
		return s.Decimal.IsPositive()
	default:
		return (b.Decimal.IsNegative() && s.Decimal.IsPositive()) || b.Decimal.LessThan(s.Decimal)
	}
}

// StrictVerdict is LiteralVerdict without the relative fallback: with both
// means present, buys must have lost and sells must have gained.
func StrictVerdict(b, s decimal.NullDecimal) bool {
	if b.Valid && s.Valid {
		return b.Decimal.IsNegative() && s.Decimal.IsPositive()
	}
	return LiteralVerdict(b, s)
}

// Verdict applies rule to the 1m means of a.
func Verdict(a models.Analysis, rule models.VerdictRule) bool {
	b, s := a.BuyMeans[models.VerdictHorizon], a.SellMeans[models.VerdictHorizon]
	if rule == models.RuleStrict {
		return StrictVerdict(b, s)
	}
	return LiteralVerdict(b, s)
}
