// internal/scoring/product.go
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"nutriscan/internal/logging"
	"nutriscan/internal/models"
)

var (
	// ErrUnavailableData means the product or one of its sources could not be fetched.
	ErrUnavailableData = errors.New("product data unavailable")
	// ErrMalformedRecord means the record lacks the fields needed to identify it.
	ErrMalformedRecord = errors.New("malformed product record")
)

var log = logging.Component("scoring")

// ScoreProduct classifies every nutrient the record mentions, scores the
// measured ones together with the additive penalty, and categorizes the result.
// Nutrients without a per-100g measurement are listed in Readings but left out
// of Levels, so they never affect the score.
func ScoreProduct(rec *models.ProductRecord) (*models.ScoredProduct, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrMalformedRecord)
	}
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: product id is missing", ErrMalformedRecord)
	}

	sp := &models.ScoredProduct{
		ProductID:   id,
		ProductName: rec.Name,
		Readings:    []models.NutrientReading{},
		Levels:      map[models.NutrientKey]models.Level{},
		Positives:   []models.NutrientKey{},
		Negatives:   []models.NutrientKey{},
	}
	if sp.ProductName == "" {
		sp.ProductName = models.UnknownField
	}

	for _, key := range models.NutrientKeys {
		facts, ok := rec.Nutriments[key]
		if !ok || !facts.Mentioned() {
			continue
		}
		level := Classify(key, facts.Per100g)
		sp.Readings = append(sp.Readings, models.NutrientReading{
			Key:     key,
			Per100g: facts.Per100g,
			Serving: facts.Serving,
			Level:   level,
		})
		if !facts.Per100g.Known() {
			continue
		}
		sp.Levels[key] = level
		switch c := Contribution(key, level); {
		case c > 0:
			sp.Positives = append(sp.Positives, key)
		case c < 0:
			sp.Negatives = append(sp.Negatives, key)
		}
	}

	sp.AdditivePenalty = AdditivePenalty(rec.AdditiveTags)
	sp.Score = Aggregate(sp.Levels, sp.AdditivePenalty)
	sp.Category = Categorize(sp.Score)

	if listed := ListBands.Categorize(sp.Score); listed != sp.Category {
		log.WithFields(logrus.Fields{
			"product_id":   id,
			"score":        sp.Score,
			"detail_bands": sp.Category,
			"list_bands":   listed,
		}).Debug("band disagreement")
	}

	return sp, nil
}

// Outcome maps a scoring or fetch failure to the category shown in its place.
func Outcome(err error) models.Category {
	if errors.Is(err, ErrUnavailableData) {
		return models.CategoryUnknown
	}
	return models.CategoryError
}
