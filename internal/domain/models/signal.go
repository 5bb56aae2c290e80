package models

import "time"

// SignalType is the predicted direction of the next move.
type SignalType string

const (
	SignalUp   SignalType = "up"
	SignalDown SignalType = "down"
	SignalFlat SignalType = "flat"
)

// Tag values derived alongside a signal.
const (
	SentimentGreed   = "greed"
	SentimentFear    = "fear"
	SentimentNeutral = "neutral"

	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"

	VolumeRising  = "rising"
	VolumeFalling = "falling"
	VolumeFlat    = "flat"

	TrendStrong   = "strong"
	TrendModerate = "moderate"
	TrendWeak     = "weak"
)

// Signal is a directional prediction for one (symbol, date) with a bounded
// confidence score. LabelWin stays nil until the maturation window has
// elapsed and the outcome is graded; the transition is one-way.
type Signal struct {
	Symbol          string
	Date            time.Time
	SignalType      SignalType
	ConfidenceScore float64 // [0.5, 1.0]
	VolatilityTag   string
	VolumeBehavior  string
	MarketSentiment string
	TrendStrength   string

	// indicator audit fields
	RSIScore         float64
	VolumeSpikeRatio float64
	Momentum         float64
	MACDTrend        string
	BollingerTag     string
	ForeignFlow      float64

	LabelWin     *bool
	Notes        string
	ModelVersion string
}

// Labeled reports whether the signal has been graded.
func (s *Signal) Labeled() bool { return s.LabelWin != nil }

// AccuracyRecord is the per-cohort win-rate reduction over labeled signals.
// Cohort key is (symbol, date); recomputation overwrites prior values.
type AccuracyRecord struct {
	Symbol       string
	Date         time.Time
	Accuracy     float64 // correct/total, [0,1]
	Total        int
	Correct      int
	ModelVersion string
}
