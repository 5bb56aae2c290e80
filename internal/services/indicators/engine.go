package indicators

import (
	"math"

	"SigPipe/internal/domain/models"
)

// Periods used by the snapshot computation.
const (
	MinHistory     = 15 // RSI needs 14 deltas plus the current bar
	RSIPeriod      = 14
	MomentumPeriod = 10
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignal     = 9
	BollingerSpan  = 20
	VolatilitySpan = 5
	VolumeSpan     = 5
)

// MACD trend tags.
const (
	TrendUp   = "up"
	TrendDown = "down"
)

// Bollinger band tags.
const (
	BandOverbought = "overbought"
	BandOversold   = "oversold"
	BandNormal     = "normal"
)

// Snapshot is the derived indicator bundle for one symbol at one
// evaluation date. It is ephemeral; recomputed on demand from the window.
type Snapshot struct {
	RSI              float64
	Momentum         float64
	MACDLine         float64
	MACDSignalLine   float64
	MACDTrend        string
	BollingerUpper   float64
	BollingerMiddle  float64
	BollingerLower   float64
	BollingerTag     string
	Volatility       float64 // std-dev of the 5 most recent pct returns
	VolumeSpikeRatio float64
	AvgVolume5       float64
	SMA20            float64
	ForeignFlow      float64
}

// Compute derives a Snapshot from an ordered bar window (most recent
// last). It is a pure function of the window: same input, same output.
// Returns ErrInsufficientHistory when the window is shorter than
// MinHistory.
func Compute(bars []models.Bar) (*Snapshot, error) {
	if len(bars) < MinHistory {
		return nil, models.ErrInsufficientHistory
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}
	latest := bars[len(bars)-1]

	snap := &Snapshot{
		RSI:         RSI(closes, RSIPeriod),
		Momentum:    Momentum(closes, MomentumPeriod),
		Volatility:  ReturnVolatility(closes, VolatilitySpan),
		ForeignFlow: latest.ForeignFlow(),
	}

	macdLine, signalLine := MACD(closes)
	snap.MACDLine = macdLine
	snap.MACDSignalLine = signalLine
	if macdLine > signalLine {
		snap.MACDTrend = TrendUp
	} else {
		snap.MACDTrend = TrendDown
	}

	upper, middle, lower := BollingerBands(closes, BollingerSpan)
	snap.BollingerUpper = upper
	snap.BollingerMiddle = middle
	snap.BollingerLower = lower
	snap.SMA20 = middle
	switch {
	case latest.Close > upper:
		snap.BollingerTag = BandOverbought
	case latest.Close < lower:
		snap.BollingerTag = BandOversold
	default:
		snap.BollingerTag = BandNormal
	}

	avg := meanTail(volumes, VolumeSpan)
	if avg <= 0 {
		avg = 1 // floor to avoid division by zero
	}
	snap.AvgVolume5 = avg
	snap.VolumeSpikeRatio = latest.Volume / avg

	return snap, nil
}

// RSI computes the relative strength index over the trailing period.
// Average gains over average losses of the last `period` close deltas;
// RSI = 100 - 100/(1+RS). With no losing deltas RSI is defined as 100.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50 // not enough deltas; neutral by convention
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Momentum is close[t] - close[t-period], 0 when fewer than period+1 bars.
func Momentum(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}
	return closes[len(closes)-1] - closes[len(closes)-1-period]
}

// MACD returns the latest MACD line (EMA12 - EMA26) and its EMA9 signal
// line, computed recursively over the full window.
func MACD(closes []float64) (line, signal float64) {
	fast := ema(closes, MACDFast)
	slow := ema(closes, MACDSlow)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	sig := ema(macd, MACDSignal)
	return macd[len(macd)-1], sig[len(sig)-1]
}

// BollingerBands returns SMA(span) +/- 2 population std-devs over the
// trailing span (or the whole window when shorter).
func BollingerBands(closes []float64, span int) (upper, middle, lower float64) {
	w := tail(closes, span)
	middle = mean(w)
	sd := populationStdDev(w, middle)
	return middle + 2*sd, middle, middle - 2*sd
}

// ReturnVolatility is the sample std-dev of the `span` most recent
// percentage returns.
func ReturnVolatility(closes []float64, span int) float64 {
	if len(closes) < 2 {
		return 0
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, closes[i]/prev-1)
	}
	w := tail(rets, span)
	if len(w) < 2 {
		return 0
	}
	m := mean(w)
	var ss float64
	for _, r := range w {
		ss += (r - m) * (r - m)
	}
	return math.Sqrt(ss / float64(len(w)-1))
}

// ema computes a recursive exponential moving average series with
// alpha = 2/(span+1), seeded from the first value.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func meanTail(xs []float64, n int) float64 {
	return mean(tail(xs, n))
}

func populationStdDev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
