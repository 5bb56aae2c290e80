package models

import "time"

// Recommendation labels produced by the classifier and the allocator.
const (
	RecommendationBuy   = "BUY"
	RecommendationSell  = "SELL"
	RecommendationWatch = "WATCH"
)

// Allocation result statuses.
const (
	AllocationOK     = "ok"
	AllocationNoData = "no_data"
)

// AllocationInput is one raw candidate row as submitted by the caller.
// Probability is kept untyped so that rows failing numeric coercion can be
// dropped individually instead of failing the whole request.
type AllocationInput struct {
	Symbol         string
	Date           string
	Probability    interface{}
	Recommendation string
}

// AllocationCandidate is a validated input row.
type AllocationCandidate struct {
	Symbol         string
	Date           time.Time
	Probability    float64
	Recommendation string
}

// AllocationPosition is one weighted output row. Weights across the
// returned set sum to 1.0 whenever the set is non-empty.
type AllocationPosition struct {
	Symbol         string  `json:"symbol"`
	Probability    float64 `json:"probability"`
	Recommendation string  `json:"recommendation"`
	Allocation     float64 `json:"allocation"`
}

// AllocationResult is the allocator response. Status is AllocationNoData
// when no valid candidate survived validation.
type AllocationResult struct {
	Status    string               `json:"status"`
	Message   string               `json:"message,omitempty"`
	Positions []AllocationPosition `json:"positions"`
}

// Prediction is the latest classifier output for one (symbol, date),
// consumed as allocator input.
type Prediction struct {
	Symbol         string
	Date           time.Time
	Probability    float64
	Recommendation string
	ModelVersion   string
}

// FeatureVector is the fixed-order numeric input to the classifier.
type FeatureVector struct {
	Close            float64 `json:"close"`
	Volume           float64 `json:"volume"`
	MA20             float64 `json:"ma20"`
	RSI              float64 `json:"rsi"`
	BBUpper          float64 `json:"bb_upper"`
	BBLower          float64 `json:"bb_lower"`
	ForeignBuyValue  float64 `json:"foreign_buy_value"`
	ForeignSellValue float64 `json:"foreign_sell_value"`
}

// Slice returns the vector in classifier feature order.
func (f FeatureVector) Slice() []float64 {
	return []float64{
		f.Close, f.Volume, f.MA20, f.RSI,
		f.BBUpper, f.BBLower, f.ForeignBuyValue, f.ForeignSellValue,
	}
}
