package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"nutriscan/internal/models"
)

func sample() *models.ScoredProduct {
	return &models.ScoredProduct{
		ProductID:   "0001",
		ProductName: "Oat Crackers",
		Readings: []models.NutrientReading{
			{Key: models.Proteins, Per100g: models.Grams(25), Serving: models.Unavailable, Level: models.LevelHigh},
			{Key: models.Sugars, Per100g: models.Unavailable, Serving: models.Grams(4), Level: models.LevelUnknown},
		},
		Levels:    map[models.NutrientKey]models.Level{models.Proteins: models.LevelHigh},
		Score:     2,
		Category:  models.CategoryAverage,
		Positives: []models.NutrientKey{models.Proteins},
		Negatives: []models.NutrientKey{},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" text ", FormatText, false},
		{"md", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScoredJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Scored(&buf, sample(), FormatJSON); err != nil {
		t.Fatalf("Scored: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if out["category"] != "Average" {
		t.Errorf("category = %v", out["category"])
	}
	readings := out["readings"].([]interface{})
	sugars := readings[1].(map[string]interface{})
	if sugars["per_100g"] != "unknown" {
		t.Errorf("sentinel rendered as %v, want \"unknown\"", sugars["per_100g"])
	}
}

func TestScoredYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Scored(&buf, sample(), FormatYAML); err != nil {
		t.Fatalf("Scored: %v", err)
	}
	var out map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
	}
	if out["product_id"] != "0001" || out["score"] != 2 {
		t.Errorf("yaml = %v", out)
	}
	if !strings.Contains(buf.String(), "per_100g: unknown") {
		t.Errorf("sentinel missing from yaml:\n%s", buf.String())
	}
}

func TestScoredText(t *testing.T) {
	var buf bytes.Buffer
	if err := Scored(&buf, sample(), FormatText); err != nil {
		t.Fatalf("Scored: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Oat Crackers (0001)", "Category: Average", "proteins", "unknown", "Positives: proteins", "Negatives: -"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestFavorites(t *testing.T) {
	var buf bytes.Buffer
	if err := Favorites(&buf, nil, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No favorites") {
		t.Errorf("empty text = %q", buf.String())
	}

	buf.Reset()
	if err := Favorites(&buf, []string{"001", "002"}, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var out map[string][]string
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if strings.Join(out["favorites"], ",") != "001,002" {
		t.Errorf("favorites = %v", out)
	}
}

func TestScansText(t *testing.T) {
	scans := []*models.ScanEntry{{
		ID: 1, ProductID: "0001", ProductName: "Oat Crackers", Score: 6,
		Category: models.CategoryGood, ScannedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := Scans(&buf, scans, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Oat Crackers") || !strings.Contains(buf.String(), "Good") {
		t.Errorf("scans text:\n%s", buf.String())
	}
}
