// internal/scoring/classify.go
package scoring

import "nutriscan/internal/models"

// Threshold bounds the normal range of one nutrient, in grams per 100g
// (kcal per 100g for energy-kcal).
type Threshold struct {
	Low  float64
	High float64
}

var thresholds = map[models.NutrientKey]Threshold{
	models.Proteins:     {Low: 5, High: 20},
	models.Sodium:       {Low: 0.1, High: 0.6},
	models.EnergyKcal:   {Low: 50, High: 200},
	models.SaturatedFat: {Low: 1.5, High: 5},
	models.Fat:          {Low: 3, High: 20},
	models.Sugars:       {Low: 5, High: 20},
}

// ThresholdFor returns the fixed bounds for a recognized nutrient.
func ThresholdFor(key models.NutrientKey) (Threshold, bool) {
	t, ok := thresholds[key]
	return t, ok
}

// Classify buckets a single nutrient measurement. Values equal to a bound are
// normal. Unrecognized keys and unavailable values are unknown.
func Classify(key models.NutrientKey, v models.NutrientValue) models.Level {
	t, ok := thresholds[key]
	if !ok {
		return models.LevelUnknown
	}
	g, known := v.Value()
	if !known {
		return models.LevelUnknown
	}
	switch {
	case g < t.Low:
		return models.LevelLow
	case g > t.High:
		return models.LevelHigh
	default:
		return models.LevelNormal
	}
}
