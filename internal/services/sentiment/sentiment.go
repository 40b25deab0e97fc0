package sentiment

import (
	"regexp"
	"strings"
	"time"

	"ContraTrack/internal/domain/models"
)

var symbolRe = regexp.MustCompile(`\$([A-Za-z]{1,5})`)

var (
	buyKeywords  = []string{"buy", "bullish", "long", "positive", "up", "recommend", "like", "good"}
	sellKeywords = []string{"sell", "bearish", "short", "negative", "down", "avoid", "bad"}
	callKeywords = []string{"buy", "sell", "bullish", "bearish", "long", "short", "recommend", "like", "avoid", "positive", "negative"}
)

// ExtractSymbols returns the distinct cashtags in text, upper-cased, in order
// of first appearance.
func ExtractSymbols(text string) []string {
	matches := symbolRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		s := strings.ToUpper(m[1])
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Classify scores text by how many buy and sell keywords it contains. Each
// keyword counts once and matches as a substring, so "upgrade" counts as "up".
func Classify(text string) models.RecommendationClass {
	lower := strings.ToLower(text)
	buy := countKeywords(lower, buyKeywords)
	sell := countKeywords(lower, sellKeywords)
	switch {
	case buy > sell:
		return models.ClassBuy
	case sell > buy:
		return models.ClassSell
	default:
		return models.ClassNeutral
	}
}

// IsRecommendation reports whether text names a cashtag and uses call language.
func IsRecommendation(text string) bool {
	if !symbolRe.MatchString(text) {
		return false
	}
	return countKeywords(strings.ToLower(text), callKeywords) > 0
}

// Analyze bundles the three checks.
func Analyze(text string) models.ClassifyResponse {
	return models.ClassifyResponse{
		Symbols:          ExtractSymbols(text),
		Sentiment:        Classify(text),
		IsRecommendation: IsRecommendation(text),
	}
}

func countKeywords(lower string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			n++
		}
	}
	return n
}

// Recommendations turns a free-text call into one record per mentioned
// symbol. Text that is not a call, or whose sentiment is neutral, yields nil.
func Recommendations(text string, date time.Time, source string) []models.Recommendation {
	res := Analyze(text)
	if !res.IsRecommendation || !res.Sentiment.Actionable() {
		return nil
	}
	out := make([]models.Recommendation, 0, len(res.Symbols))
	for _, sym := range res.Symbols {
		out = append(out, models.Recommendation{
			Ticker:         sym,
			Date:           date,
			Recommendation: res.Sentiment.Wire(),
			Text:           text,
			Source:         source,
		})
	}
	return out
}
