package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type SymbolRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,min=1,max=10"`
}

type AnalysisRequest struct {
	Symbol     string `param:"symbol" json:"symbol" validate:"required,min=1,max=10"`
	Lookup     string `query:"lookup" json:"lookup" validate:"omitempty,oneof=exact nearest"`
	MaxGapDays int    `query:"max_gap_days" json:"max_gap_days" validate:"gte=0,lte=10"`
	Rule       string `query:"rule" json:"rule" validate:"omitempty,oneof=literal strict"`
	Refresh    bool   `query:"refresh" json:"refresh"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,min=1,max=10"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type ClassifyRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// ClassifyResponse is the outcome of classifying a free-text call.
type ClassifyResponse struct {
	Symbols          []string            `json:"symbols"`
	Sentiment        RecommendationClass `json:"sentiment"`
	IsRecommendation bool                `json:"is_recommendation"`
}

// Options returns the analysis knobs carried by the request. Empty lookup and
// rule, and a gap the caller did not send, are left for the use case to fill.
func (r *AnalysisRequest) Options(gapSet bool) AnalysisOptions {
	o := AnalysisOptions{
		Lookup:  LookupMode(r.Lookup),
		Rule:    VerdictRule(r.Rule),
		Refresh: r.Refresh,
	}
	if gapSet {
		o.MaxGapDays = GapDays(r.MaxGapDays)
	}
	return o
}

// AnalysisOptions tunes a single analysis run. A nil MaxGapDays means the
// configured default.
type AnalysisOptions struct {
	Lookup     LookupMode
	MaxGapDays *int
	Rule       VerdictRule
	Refresh    bool
}

// GapDays returns a pointer to n for AnalysisOptions.MaxGapDays.
func GapDays(n int) *int { return &n }

// Gap is MaxGapDays, or 0 when unset.
func (o AnalysisOptions) Gap() int {
	if o.MaxGapDays == nil {
		return 0
	}
	return *o.MaxGapDays
}
