package models

// Requests for the signal pipeline HTTP endpoints. Defined in domain for
// consistency and reuse.

type AllocateRequest struct {
	Candidates []AllocateCandidateRow `json:"candidates" validate:"required"`
}

// AllocateCandidateRow mirrors AllocationInput at the wire level.
// Probability is untyped on purpose: malformed values drop the row, not
// the request.
type AllocateCandidateRow struct {
	Symbol         string      `json:"symbol"`
	Date           string      `json:"date"`
	Probability    interface{} `json:"probability"`
	Recommendation string      `json:"recommendation"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type AccuracyRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

type PredictionsRequest struct {
	Date string `query:"date" json:"date"`
}

type PipelineRunRequest struct {
	Symbols []string `json:"symbols"`
}
