// internal/scoring/aggregate.go
package scoring

import "nutriscan/internal/models"

type weight struct {
	low  int
	high int
}

var weights = map[models.NutrientKey]weight{
	models.Proteins:     {low: -1, high: 2},
	models.Sugars:       {low: 1, high: -2},
	models.Sodium:       {low: 1, high: -2},
	models.SaturatedFat: {low: 1, high: -2},
	models.EnergyKcal:   {low: 1, high: -1},
}

// Contribution is the signed score delta of one nutrient at one level.
func Contribution(key models.NutrientKey, level models.Level) int {
	w, ok := weights[key]
	if !ok {
		return 0
	}
	switch level {
	case models.LevelLow:
		return w.low
	case models.LevelHigh:
		return w.high
	default:
		return 0
	}
}

// Aggregate adds every nutrient's contribution to the additive penalty.
func Aggregate(levels map[models.NutrientKey]models.Level, additivePenalty int) int {
	score := additivePenalty
	for key, level := range levels {
		score += Contribution(key, level)
	}
	return score
}
