package usecase

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"SigPipe/internal/domain/models"
)

func allocRow(symbol, date string, prob interface{}, rec string) models.AllocationInput {
	return models.AllocationInput{Symbol: symbol, Date: date, Probability: prob, Recommendation: rec}
}

func sumAllocations(positions []models.AllocationPosition) float64 {
	var total float64
	for _, p := range positions {
		total += p.Allocation
	}
	return total
}

func TestAllocateWeighsBuysByProbability(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("FPT", "2024-06-03", 0.8, "BUY"),
		allocRow("HPG", "2024-06-03", 0.6, "BUY"),
		allocRow("VNM", "2024-06-03", 0.4, "BUY"),
	})

	if res.Status != models.AllocationOK {
		t.Fatalf("status = %q", res.Status)
	}
	if len(res.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(res.Positions))
	}
	want := map[string]float64{"FPT": 0.444, "HPG": 0.333, "VNM": 0.222}
	for _, pos := range res.Positions {
		if math.Abs(pos.Allocation-want[pos.Symbol]) > 1e-3 {
			t.Errorf("%s allocation = %v, want ~%v", pos.Symbol, pos.Allocation, want[pos.Symbol])
		}
		if pos.Recommendation != models.RecommendationBuy {
			t.Errorf("%s recommendation = %q", pos.Symbol, pos.Recommendation)
		}
	}
	if s := sumAllocations(res.Positions); math.Abs(s-1.0) > 1e-9 {
		t.Fatalf("allocations sum to %v", s)
	}
}

func TestAllocateWatchFallback(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("A", "2024-06-03", 0.50, "WATCH"),
		allocRow("B", "2024-06-03", 0.70, "SELL"),
		allocRow("C", "2024-06-03", 0.60, "WATCH"),
		allocRow("D", "2024-06-03", 0.30, "WATCH"),
		allocRow("E", "2024-06-03", 0.20, "SELL"),
	})

	if res.Status != models.AllocationOK {
		t.Fatalf("status = %q", res.Status)
	}
	if len(res.Positions) != 3 {
		t.Fatalf("fallback should keep top 3, got %d", len(res.Positions))
	}
	// ordered by probability descending after the latest-date sort
	wantSymbols := []string{"B", "C", "A"}
	for i, pos := range res.Positions {
		if pos.Symbol != wantSymbols[i] {
			t.Errorf("position %d = %s, want %s", i, pos.Symbol, wantSymbols[i])
		}
		if pos.Recommendation != models.RecommendationWatch {
			t.Errorf("%s recommendation = %q, want WATCH", pos.Symbol, pos.Recommendation)
		}
		if math.Abs(pos.Allocation-1.0/3.0) > 1e-9 {
			t.Errorf("%s allocation = %v, want 1/3", pos.Symbol, pos.Allocation)
		}
	}
}

func TestAllocateNoValidData(t *testing.T) {
	p := NewPortfolioAllocator(3)
	cases := [][]models.AllocationInput{
		nil,
		{},
		{allocRow("", "2024-06-03", 0.5, "BUY")},      // missing symbol
		{allocRow("FPT", "", 0.5, "BUY")},             // missing date
		{allocRow("FPT", "03/06/2024", 0.5, "BUY")},   // bad date format
		{allocRow("FPT", "2024-06-03", "abc", "BUY")}, // bad probability
		{allocRow("FPT", "2024-06-03", nil, "BUY")},   // missing probability
	}
	for i, rows := range cases {
		res := p.Allocate(rows)
		if res.Status != models.AllocationNoData {
			t.Errorf("case %d: status = %q, want no_data", i, res.Status)
		}
		if res.Message != "no valid data to allocate" {
			t.Errorf("case %d: message = %q", i, res.Message)
		}
		if res.Positions == nil || len(res.Positions) != 0 {
			t.Errorf("case %d: positions should be empty non-nil, got %v", i, res.Positions)
		}
	}
}

func TestAllocateDropsMalformedRowsOnly(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("FPT", "2024-06-03", 0.8, "BUY"),
		allocRow("", "2024-06-03", 0.9, "BUY"), // dropped, never outranks FPT
	})
	if res.Status != models.AllocationOK || len(res.Positions) != 1 {
		t.Fatalf("one valid row should survive: %+v", res)
	}
	if res.Positions[0].Symbol != "FPT" || res.Positions[0].Allocation != 1.0 {
		t.Fatalf("single BUY should take the full weight: %+v", res.Positions[0])
	}
}

func TestAllocateZeroProbabilityMassFallsBackToEqual(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("FPT", "2024-06-03", 0.0, "BUY"),
		allocRow("HPG", "2024-06-03", 0.0, "BUY"),
	})
	if len(res.Positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(res.Positions))
	}
	for _, pos := range res.Positions {
		if pos.Allocation != 0.5 {
			t.Errorf("%s allocation = %v, want 0.5", pos.Symbol, pos.Allocation)
		}
	}
}

func TestAllocateKeepsLatestDateOnly(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("OLD", "2024-06-02", 0.99, "BUY"),
		allocRow("FPT", "2024-06-03", 0.80, "BUY"),
	})
	if len(res.Positions) != 1 || res.Positions[0].Symbol != "FPT" {
		t.Fatalf("stale-date row survived: %+v", res.Positions)
	}
}

func TestAllocateDedupesSymbolByHighestProbability(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("FPT", "2024-06-03", 0.60, "BUY"),
		allocRow("FPT", "2024-06-03", 0.90, "BUY"),
	})
	if len(res.Positions) != 1 {
		t.Fatalf("duplicate symbol not collapsed: %+v", res.Positions)
	}
	if res.Positions[0].Probability != 0.90 {
		t.Fatalf("kept probability = %v, want the higher row", res.Positions[0].Probability)
	}
}

func TestAllocateNormalizesRecommendationCase(t *testing.T) {
	p := NewPortfolioAllocator(3)
	res := p.Allocate([]models.AllocationInput{
		allocRow("FPT", "2024-06-03", 0.8, " buy "),
	})
	if len(res.Positions) != 1 || res.Positions[0].Recommendation != models.RecommendationBuy {
		t.Fatalf("lowercase recommendation not normalized: %+v", res.Positions)
	}
}

func TestAllocatePredictionsAdapter(t *testing.T) {
	p := NewPortfolioAllocator(3)
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	res := p.AllocatePredictions([]models.Prediction{
		{Symbol: "FPT", Date: d, Probability: 0.8, Recommendation: models.RecommendationBuy},
		{Symbol: "HPG", Date: d, Probability: 0.2, Recommendation: models.RecommendationBuy},
	})
	if res.Status != models.AllocationOK || len(res.Positions) != 2 {
		t.Fatalf("adapter result: %+v", res)
	}
	if math.Abs(res.Positions[0].Allocation-0.8) > 1e-9 {
		t.Fatalf("top allocation = %v, want 0.8", res.Positions[0].Allocation)
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{0.75, 0.75, true},
		{float32(0.5), 0.5, true},
		{3, 3, true},
		{int64(4), 4, true},
		{json.Number("0.66"), 0.66, true},
		{"0.9", 0.9, true},
		{" 0.9 ", 0.9, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for i, c := range cases {
		got, ok := coerceFloat(c.in)
		if ok != c.ok || (ok && math.Abs(got-c.want) > 1e-9) {
			t.Errorf("case %d: coerceFloat(%v) = (%v, %v), want (%v, %v)", i, c.in, got, ok, c.want, c.ok)
		}
	}
}
