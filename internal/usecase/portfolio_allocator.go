package usecase

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"SigPipe/internal/domain/models"
)

// PortfolioAllocator turns the latest per-symbol predictions into
// normalized position weights. Pure computation; no store access.
type PortfolioAllocator struct {
	watchTopN int
}

func NewPortfolioAllocator(watchTopN int) *PortfolioAllocator {
	if watchTopN <= 0 {
		watchTopN = 3
	}
	return &PortfolioAllocator{watchTopN: watchTopN}
}

// Allocate validates the raw rows, keeps the single latest date, dedupes
// to one row per symbol (highest probability wins) and weights the BUY
// subset by probability. With no BUY candidates it falls back to equal
// weights over the top candidates, labeled WATCH. Weights across the
// returned set sum to 1.0 whenever any candidate survived.
func (p *PortfolioAllocator) Allocate(rows []models.AllocationInput) models.AllocationResult {
	candidates := validateCandidates(rows)
	if len(candidates) == 0 {
		return models.AllocationResult{
			Status:    models.AllocationNoData,
			Message:   "no valid data to allocate",
			Positions: []models.AllocationPosition{},
		}
	}

	candidates = latestPerSymbol(candidates)

	var buys []models.AllocationCandidate
	for _, c := range candidates {
		if c.Recommendation == models.RecommendationBuy {
			buys = append(buys, c)
		}
	}

	if len(buys) > 0 {
		return models.AllocationResult{Status: models.AllocationOK, Positions: weightByProbability(buys)}
	}

	n := p.watchTopN
	if n > len(candidates) {
		n = len(candidates)
	}
	fallback := candidates[:n]
	positions := make([]models.AllocationPosition, 0, len(fallback))
	for _, c := range fallback {
		positions = append(positions, models.AllocationPosition{
			Symbol:         c.Symbol,
			Probability:    c.Probability,
			Recommendation: models.RecommendationWatch,
			Allocation:     1.0 / float64(len(fallback)),
		})
	}
	return models.AllocationResult{Status: models.AllocationOK, Positions: positions}
}

// AllocatePredictions adapts stored predictions into allocator input.
func (p *PortfolioAllocator) AllocatePredictions(preds []models.Prediction) models.AllocationResult {
	rows := make([]models.AllocationInput, 0, len(preds))
	for _, pr := range preds {
		rows = append(rows, models.AllocationInput{
			Symbol:         pr.Symbol,
			Date:           pr.Date.Format("2006-01-02"),
			Probability:    pr.Probability,
			Recommendation: pr.Recommendation,
		})
	}
	return p.Allocate(rows)
}

// validateCandidates drops rows missing symbol or date, or whose
// probability fails numeric coercion. Row-level, so one malformed row
// never rejects the batch.
func validateCandidates(rows []models.AllocationInput) []models.AllocationCandidate {
	out := make([]models.AllocationCandidate, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" || r.Date == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		prob, ok := coerceFloat(r.Probability)
		if !ok {
			continue
		}
		out = append(out, models.AllocationCandidate{
			Symbol:         r.Symbol,
			Date:           date,
			Probability:    prob,
			Recommendation: strings.ToUpper(strings.TrimSpace(r.Recommendation)),
		})
	}
	return out
}

// latestPerSymbol keeps rows from the max date only, sorted by
// probability descending, one row per symbol (ties to the highest
// probability).
func latestPerSymbol(cs []models.AllocationCandidate) []models.AllocationCandidate {
	var latest time.Time
	for _, c := range cs {
		if c.Date.After(latest) {
			latest = c.Date
		}
	}
	filtered := cs[:0:0]
	for _, c := range cs {
		if c.Date.Equal(latest) {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Probability > filtered[j].Probability
	})
	seen := make(map[string]bool, len(filtered))
	out := filtered[:0:0]
	for _, c := range filtered {
		if seen[c.Symbol] {
			continue
		}
		seen[c.Symbol] = true
		out = append(out, c)
	}
	return out
}

// weightByProbability normalizes the BUY subset by probability mass,
// falling back to equal weights when the mass is zero.
func weightByProbability(buys []models.AllocationCandidate) []models.AllocationPosition {
	var total float64
	for _, c := range buys {
		total += c.Probability
	}
	positions := make([]models.AllocationPosition, 0, len(buys))
	for _, c := range buys {
		w := 1.0 / float64(len(buys))
		if total > 0 {
			w = c.Probability / total
		}
		positions = append(positions, models.AllocationPosition{
			Symbol:         c.Symbol,
			Probability:    c.Probability,
			Recommendation: models.RecommendationBuy,
			Allocation:     w,
		})
	}
	return positions
}

// coerceFloat accepts the numeric encodings a JSON row can arrive in.
func coerceFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
