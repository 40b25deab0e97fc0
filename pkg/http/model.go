package http

// APIResponse is the envelope every endpoint writes. Status mirrors the HTTP
// status; Data holds the payload, a []ValidationError or an []*AppError.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError is one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_LTE"`
	Field   string                 `json:"field,omitempty" example:"MaxGapDays"`
	Message string                 `json:"message,omitempty" example:"MaxGapDays must be at most 10"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse wraps list payloads such as analysis history.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
