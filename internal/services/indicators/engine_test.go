package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"SigPipe/internal/domain/models"
)

func mkBars(closes []float64, volumes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range closes {
		v := 1000.0
		if volumes != nil {
			v = volumes[i]
		}
		bars[i] = models.Bar{
			Symbol: "VNINDEX",
			Date:   base.AddDate(0, 0, i),
			Open:   closes[i],
			High:   closes[i] * 1.01,
			Low:    closes[i] * 0.99,
			Close:  closes[i],
			Volume: v,
		}
	}
	return bars
}

func TestComputeInsufficientHistory(t *testing.T) {
	bars := mkBars(make([]float64, MinHistory-1), nil)
	if _, err := Compute(bars); !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestComputeDeterministic(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + 3*math.Sin(float64(i))
	}
	bars := mkBars(closes, nil)

	a, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if *a != *b {
		t.Fatalf("snapshot not deterministic: %+v vs %+v", a, b)
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if got := RSI(closes, RSIPeriod); got != 100 {
		t.Fatalf("expected RSI 100 with no losses, got %v", got)
	}
}

func TestRSIBounds(t *testing.T) {
	cases := [][]float64{
		{100, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 89, 88, 87, 86, 85},
		{100, 102, 99, 103, 98, 104, 97, 105, 96, 106, 95, 107, 94, 108, 93, 109},
		{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
	}
	for i, closes := range cases {
		got := RSI(closes, RSIPeriod)
		if got < 0 || got > 100 {
			t.Errorf("case %d: RSI %v out of [0,100]", i, got)
		}
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	if got := RSI(closes, RSIPeriod); got != 0 {
		t.Fatalf("expected RSI 0 with no gains, got %v", got)
	}
}

func TestMomentum(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if got := Momentum(closes, MomentumPeriod); got != 10 {
		t.Fatalf("expected momentum 10, got %v", got)
	}
	short := []float64{1, 2, 3}
	if got := Momentum(short, MomentumPeriod); got != 0 {
		t.Fatalf("expected momentum 0 for short window, got %v", got)
	}
}

func TestBollingerTagOverbought(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 130 // far above the band
	bars := mkBars(closes, nil)
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.BollingerTag != BandOverbought {
		t.Fatalf("expected %q, got %q", BandOverbought, snap.BollingerTag)
	}
}

func TestBollingerTagOversold(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 70
	bars := mkBars(closes, nil)
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.BollingerTag != BandOversold {
		t.Fatalf("expected %q, got %q", BandOversold, snap.BollingerTag)
	}
}

func TestVolumeSpikeRatioZeroVolumeFloor(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100
	}
	volumes := make([]float64, 15) // all zero
	bars := mkBars(closes, volumes)
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.IsNaN(snap.VolumeSpikeRatio) || math.IsInf(snap.VolumeSpikeRatio, 0) {
		t.Fatalf("volume spike ratio not finite: %v", snap.VolumeSpikeRatio)
	}
}

func TestVolumeSpikeRatio(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100
	}
	volumes := make([]float64, 15)
	for i := range volumes {
		volumes[i] = 1000
	}
	volumes[14] = 3000 // trailing 5 mean = (1000*4+3000)/5 = 1400
	bars := mkBars(closes, volumes)
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := 3000.0 / 1400.0
	if math.Abs(snap.VolumeSpikeRatio-want) > 1e-9 {
		t.Fatalf("expected spike ratio %v, got %v", want, snap.VolumeSpikeRatio)
	}
}

func TestMACDTrendUpOnRally(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	for i := 25; i < 30; i++ {
		closes[i] = 100 + float64(i-24)*2
	}
	bars := mkBars(closes, nil)
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.MACDTrend != TrendUp {
		t.Fatalf("expected MACD trend up on rally, got %q", snap.MACDTrend)
	}
}

func TestForeignFlow(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100
	}
	bars := mkBars(closes, nil)
	bars[14].ForeignBuyValue = 500
	bars[14].ForeignSellValue = 200
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.ForeignFlow != 300 {
		t.Fatalf("expected foreign flow 300, got %v", snap.ForeignFlow)
	}
}

func TestReturnVolatilityFlatSeriesIsZero(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100}
	if got := ReturnVolatility(closes, VolatilitySpan); got != 0 {
		t.Fatalf("expected zero volatility on flat series, got %v", got)
	}
}
