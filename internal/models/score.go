// internal/models/score.go
package models

import "time"

type Level string

const (
	LevelLow     Level = "low"
	LevelNormal  Level = "normal"
	LevelHigh    Level = "high"
	LevelUnknown Level = "unknown"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelNormal, LevelHigh, LevelUnknown:
		return true
	}
	return false
}

// Category is the final health label. Bad through Excellent are ordered by
// increasing desirability; Unknown and Error sit outside that order.
type Category string

const (
	CategoryBad       Category = "Bad"
	CategoryPoor      Category = "Poor"
	CategoryAverage   Category = "Average"
	CategoryGood      Category = "Good"
	CategoryExcellent Category = "Excellent"

	CategoryUnknown Category = "Unknown"
	CategoryError   Category = "Error"
)

var orderedCategories = []Category{CategoryBad, CategoryPoor, CategoryAverage, CategoryGood, CategoryExcellent}

// Rank is 0 for Bad up to 4 for Excellent, and -1 for the sentinels.
func (c Category) Rank() int {
	for i, oc := range orderedCategories {
		if c == oc {
			return i
		}
	}
	return -1
}

func (c Category) Ordered() bool {
	return c.Rank() >= 0
}

func (c Category) Valid() bool {
	return c.Ordered() || c == CategoryUnknown || c == CategoryError
}

type NutrientReading struct {
	Key     NutrientKey   `json:"key" yaml:"key"`
	Per100g NutrientValue `json:"per_100g" yaml:"per_100g"`
	Serving NutrientValue `json:"serving" yaml:"serving"`
	Level   Level         `json:"level" yaml:"level"`
}

type ScoredProduct struct {
	ProductID       string                `json:"product_id" yaml:"product_id"`
	ProductName     string                `json:"product_name" yaml:"product_name"`
	Readings        []NutrientReading     `json:"readings" yaml:"readings"`
	Levels          map[NutrientKey]Level `json:"levels" yaml:"levels"`
	AdditivePenalty int                   `json:"additive_penalty" yaml:"additive_penalty"`
	Score           int                   `json:"score" yaml:"score"`
	Category        Category              `json:"category" yaml:"category"`
	Positives       []NutrientKey         `json:"positives" yaml:"positives"`
	Negatives       []NutrientKey         `json:"negatives" yaml:"negatives"`
}

// ScanEntry is one row of scan history.
type ScanEntry struct {
	ID          int64                 `json:"id" yaml:"id"`
	ProductID   string                `json:"product_id" yaml:"product_id"`
	ProductName string                `json:"product_name" yaml:"product_name"`
	Score       int                   `json:"score" yaml:"score"`
	Category    Category              `json:"category" yaml:"category"`
	Levels      map[NutrientKey]Level `json:"levels" yaml:"levels"`
	ScannedAt   time.Time             `json:"scanned_at" yaml:"scanned_at"`
}

// NewScanEntry snapshots a scored product for the history log.
func NewScanEntry(sp *ScoredProduct, at time.Time) *ScanEntry {
	levels := make(map[NutrientKey]Level, len(sp.Levels))
	for k, l := range sp.Levels {
		levels[k] = l
	}
	return &ScanEntry{
		ProductID:   sp.ProductID,
		ProductName: sp.ProductName,
		Score:       sp.Score,
		Category:    sp.Category,
		Levels:      levels,
		ScannedAt:   at,
	}
}
