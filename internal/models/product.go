// internal/models/product.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownField is the literal used for product fields the source did not provide.
const UnknownField = "unknown"

type NutrientKey string

const (
	Proteins     NutrientKey = "proteins"
	Sodium       NutrientKey = "sodium"
	EnergyKcal   NutrientKey = "energy-kcal"
	SaturatedFat NutrientKey = "saturated-fat"
	Fat          NutrientKey = "fat"
	Sugars       NutrientKey = "sugars"
)

// NutrientKeys lists the recognized nutrients in display order.
var NutrientKeys = []NutrientKey{Proteins, Sodium, EnergyKcal, SaturatedFat, Fat, Sugars}

// NutrientValue is a grams-per-100g measurement or the unavailable sentinel.
// The zero value is the sentinel.
type NutrientValue struct {
	grams float64
	known bool
}

// Unavailable marks a nutrient the source did not report.
var Unavailable = NutrientValue{}

// Grams builds a measurement. NaN, infinities and negative values are not
// measurements and collapse to Unavailable.
func Grams(g float64) NutrientValue {
	if math.IsNaN(g) || math.IsInf(g, 0) || g < 0 {
		return Unavailable
	}
	return NutrientValue{grams: g, known: true}
}

func (v NutrientValue) Value() (float64, bool) {
	return v.grams, v.known
}

func (v NutrientValue) Known() bool {
	return v.known
}

func (v NutrientValue) String() string {
	if !v.known {
		return UnknownField
	}
	return strconv.FormatFloat(v.grams, 'f', -1, 64)
}

func (v NutrientValue) MarshalJSON() ([]byte, error) {
	if !v.known {
		return json.Marshal(UnknownField)
	}
	return json.Marshal(v.grams)
}

func (v *NutrientValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode nutrient value: %w", err)
	}
	switch x := raw.(type) {
	case nil:
		*v = Unavailable
	case float64:
		*v = Grams(x)
	case string:
		*v = ParseNutrientValue(x)
	default:
		return fmt.Errorf("unsupported nutrient value %s", string(data))
	}
	return nil
}

// MarshalYAML renders the sentinel as "unknown" and measurements as numbers.
func (v NutrientValue) MarshalYAML() (interface{}, error) {
	if !v.known {
		return UnknownField, nil
	}
	return v.grams, nil
}

// ParseNutrientValue reads a numeric string. Anything that is not a number,
// including "unknown", is the sentinel.
func ParseNutrientValue(s string) NutrientValue {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, UnknownField) {
		return Unavailable
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unavailable
	}
	return Grams(f)
}

type NutrientFacts struct {
	Per100g NutrientValue `json:"per_100g" yaml:"per_100g"`
	Serving NutrientValue `json:"serving" yaml:"serving"`
}

// Mentioned reports whether the source gave either measurement.
func (f NutrientFacts) Mentioned() bool {
	return f.Per100g.Known() || f.Serving.Known()
}

// ProductRecord is what the fetch collaborator hands to the scoring engine.
type ProductRecord struct {
	ID           string                        `json:"id"`
	Name         string                        `json:"product_name"`
	ImageURL     string                        `json:"image_url"`
	BrandOwner   string                        `json:"brand_owner"`
	Ingredients  []string                      `json:"ingredients"`
	AdditiveTags []string                      `json:"additives_tags"`
	Nutriments   map[NutrientKey]NutrientFacts `json:"nutriments"`
}

// ApplyDefaults fills missing fields with "unknown" or empty lists.
func (r *ProductRecord) ApplyDefaults() {
	if r.Name == "" {
		r.Name = UnknownField
	}
	if r.ImageURL == "" {
		r.ImageURL = UnknownField
	}
	if r.BrandOwner == "" {
		r.BrandOwner = UnknownField
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.AdditiveTags == nil {
		r.AdditiveTags = []string{}
	}
	if r.Nutriments == nil {
		r.Nutriments = map[NutrientKey]NutrientFacts{}
	}
}
