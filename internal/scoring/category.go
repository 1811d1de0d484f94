// internal/scoring/category.go
package scoring

import (
	"fmt"
	"math"

	"nutriscan/internal/models"
)

// Band assigns Category to every score >= Min not claimed by a higher band.
type Band struct {
	Min      int
	Category models.Category
}

// BandSet is ordered from the highest Min down; the last band's Min is math.MinInt.
type BandSet []Band

// DetailBands is the canonical table used for every category this package returns.
var DetailBands = BandSet{
	{Min: 10, Category: models.CategoryExcellent},
	{Min: 5, Category: models.CategoryGood},
	{Min: 0, Category: models.CategoryAverage},
	{Min: -5, Category: models.CategoryPoor},
	{Min: math.MinInt, Category: models.CategoryBad},
}

// ListBands is the narrower table the search list used. It disagrees with
// DetailBands for several scores and is kept only so the disagreement can be
// reported; nothing categorizes with it by default.
var ListBands = BandSet{
	{Min: 3, Category: models.CategoryGood},
	{Min: 0, Category: models.CategoryAverage},
	{Min: -3, Category: models.CategoryPoor},
	{Min: math.MinInt, Category: models.CategoryBad},
}

// Validate checks that the bands are strictly descending and end at
// math.MinInt, which makes them contiguous and exhaustive over all ints.
func (b BandSet) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("band set is empty")
	}
	for i := 1; i < len(b); i++ {
		if b[i].Min >= b[i-1].Min {
			return fmt.Errorf("band %d (min %d) does not descend from band %d (min %d)", i, b[i].Min, i-1, b[i-1].Min)
		}
	}
	for i, band := range b {
		if !band.Category.Ordered() {
			return fmt.Errorf("band %d maps to non-ordered category %q", i, band.Category)
		}
	}
	if last := b[len(b)-1]; last.Min != math.MinInt {
		return fmt.Errorf("lowest band starts at %d, scores below it are unmapped", last.Min)
	}
	return nil
}

func (b BandSet) Categorize(score int) models.Category {
	for _, band := range b {
		if score >= band.Min {
			return band.Category
		}
	}
	return models.CategoryError
}

// Categorize maps an aggregate score onto DetailBands.
func Categorize(score int) models.Category {
	return DetailBands.Categorize(score)
}
