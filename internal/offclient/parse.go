// internal/offclient/parse.go
package offclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"nutriscan/internal/models"
	"nutriscan/internal/scoring"
)

// ParseProduct reads an Open Food Facts product response. It accepts both the
// API envelope ({"status":1,"product":{...}}) and a bare product object.
// barcode is the id used when the product carries no code of its own.
func ParseProduct(barcode string, body []byte) (*models.ProductRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrMalformedResponse
	}

	product := root.Get("product")
	if !product.Exists() {
		status := root.Get("status")
		if status.Exists() && status.Int() == 0 {
			return nil, ErrProductNotFound
		}
		if !root.Get("nutriments").Exists() && !root.Get("code").Exists() {
			return nil, ErrProductNotFound
		}
		product = root
	}
	if !product.IsObject() {
		return nil, ErrProductNotFound
	}

	rec := &models.ProductRecord{
		ID:         strings.TrimSpace(product.Get("code").String()),
		Name:       product.Get("product_name").String(),
		ImageURL:   product.Get("image_url").String(),
		BrandOwner: product.Get("brand_owner").String(),
		Nutriments: map[models.NutrientKey]models.NutrientFacts{},
	}
	if rec.ID == "" {
		rec.ID = strings.TrimSpace(barcode)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: product has no code", scoring.ErrMalformedRecord)
	}

	product.Get("ingredients").ForEach(func(_, ing gjson.Result) bool {
		text := ing.String()
		if ing.IsObject() {
			text = ing.Get("text").String()
		}
		if text = strings.TrimSpace(text); text != "" {
			rec.Ingredients = append(rec.Ingredients, text)
		}
		return true
	})

	product.Get("additives_tags").ForEach(func(_, tag gjson.Result) bool {
		if code := strings.TrimSpace(tag.String()); code != "" {
			rec.AdditiveTags = append(rec.AdditiveTags, code)
		}
		return true
	})

	nutriments := product.Get("nutriments")
	for _, key := range models.NutrientKeys {
		facts := models.NutrientFacts{
			Per100g: nutrientValue(nutriments.Get(string(key) + "_100g")),
			Serving: nutrientValue(nutriments.Get(string(key) + "_serving")),
		}
		if facts.Mentioned() {
			rec.Nutriments[key] = facts
		}
	}

	rec.ApplyDefaults()
	return rec, nil
}

// DecodeRecord reads a product record handed in by a caller. Documents with an
// "id" are in the models.ProductRecord layout; anything else is read as an
// Open Food Facts product (code, nutriments.<key>_100g).
func DecodeRecord(raw []byte) (*models.ProductRecord, error) {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%w: record is not a JSON object", scoring.ErrMalformedRecord)
	}
	if !gjson.GetBytes(raw, "id").Exists() {
		return ParseProduct("", raw)
	}

	var rec models.ProductRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", scoring.ErrMalformedRecord, err)
	}
	rec.ApplyDefaults()
	return &rec, nil
}

// nutrientValue keeps 0 as a measurement; only missing or non-numeric values
// become the sentinel.
func nutrientValue(r gjson.Result) models.NutrientValue {
	switch r.Type {
	case gjson.Number:
		return models.Grams(r.Float())
	case gjson.String:
		return models.ParseNutrientValue(r.Str)
	default:
		return models.Unavailable
	}
}
