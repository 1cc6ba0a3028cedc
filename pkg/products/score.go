package products

import "math"

var nutriScorePenalty = map[Grade]float64{
	"b": 1,
	"c": 3,
	"d": 5,
	"e": 7,
}

var novaPenalty = map[NovaGroup]float64{
	3: 1,
	4: 3,
}

// ExpertScore rates a product from 0 to 10 using its Nutri-Score, NOVA group
// and per-100g fat, saturated fat, sugar and salt.
func ExpertScore(p ProductRecord) float64 {
	score := 10.0
	score -= nutriScorePenalty[p.NutriScore]
	score -= novaPenalty[p.Nova]

	n := p.Per100g
	if above(n.Fat, 17.5) {
		score -= 0.5
	}
	if above(n.SaturatedFat, 5) {
		score -= 1
	}
	if above(n.Sugars, 22.5) {
		score -= 1
	}
	if above(n.Salt, 1.5) {
		score -= 1
	}

	score = math.Max(0, score)
	return math.Round(score*10) / 10
}

func above(v *float64, limit float64) bool {
	return v != nil && *v > limit
}

// ScoreBand buckets an expert score into five display bands, best first:
// excellent, good, fair, poor, bad.
func ScoreBand(score float64) string {
	switch {
	case score >= 8:
		return "excellent"
	case score >= 6:
		return "good"
	case score >= 4:
		return "fair"
	case score >= 2:
		return "poor"
	default:
		return "bad"
	}
}
