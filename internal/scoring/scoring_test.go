package scoring

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"nutriscan/internal/models"
)

// --- Classifier ---

func TestThresholdsAreOrdered(t *testing.T) {
	for _, key := range models.NutrientKeys {
		th, ok := ThresholdFor(key)
		if !ok {
			t.Fatalf("no threshold for %s", key)
		}
		if th.Low >= th.High {
			t.Errorf("%s: low %v must be below high %v", key, th.Low, th.High)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		key   models.NutrientKey
		value models.NutrientValue
		want  models.Level
	}{
		{models.Sugars, models.Grams(3), models.LevelLow},
		{models.Sugars, models.Grams(5), models.LevelNormal},
		{models.Sugars, models.Grams(12), models.LevelNormal},
		{models.Sugars, models.Grams(20), models.LevelNormal},
		{models.Sugars, models.Grams(20.01), models.LevelHigh},
		{models.Sodium, models.Grams(0.05), models.LevelLow},
		{models.Sodium, models.Grams(0.1), models.LevelNormal},
		{models.Sodium, models.Grams(0.6), models.LevelNormal},
		{models.Sodium, models.Grams(0.7), models.LevelHigh},
		{models.Proteins, models.Grams(25), models.LevelHigh},
		{models.Proteins, models.Grams(0), models.LevelLow},
		{models.EnergyKcal, models.Grams(40), models.LevelLow},
		{models.EnergyKcal, models.Grams(250), models.LevelHigh},
		{models.Fat, models.Grams(21), models.LevelHigh},
		{models.SaturatedFat, models.Grams(1.5), models.LevelNormal},
		{models.Sugars, models.Unavailable, models.LevelUnknown},
		{models.Sugars, models.Grams(math.NaN()), models.LevelUnknown},
		{models.Sugars, models.Grams(-1), models.LevelUnknown},
		{"fiber", models.Grams(3), models.LevelUnknown},
		{"", models.Unavailable, models.LevelUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%s", tt.key, tt.value), func(t *testing.T) {
			if got := Classify(tt.key, tt.value); got != tt.want {
				t.Errorf("Classify(%q, %s) = %s, want %s", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestClassifyMatchesThresholds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, key := range models.NutrientKeys {
		th, _ := ThresholdFor(key)
		for i := 0; i < 500; i++ {
			v := rng.Float64() * th.High * 2
			got := Classify(key, models.Grams(v))
			var want models.Level
			switch {
			case v < th.Low:
				want = models.LevelLow
			case v > th.High:
				want = models.LevelHigh
			default:
				want = models.LevelNormal
			}
			if got != want {
				t.Fatalf("Classify(%s, %v) = %s, want %s", key, v, got, want)
			}
		}
	}
}

// --- Additives ---

func TestAdditivePenalty(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  int
	}{
		{"empty", nil, 0},
		{"unknown code", []string{"en:e330"}, 0},
		{"high risk", []string{"en:e102"}, -2},
		{"moderate risk", []string{"e621"}, -1},
		{"mixed", []string{"en:e102", "en:e621"}, -3},
		{"repeats count", []string{"en:e621", "en:e621"}, -2},
		{"case and space", []string{" EN:E951 "}, -2},
		{"all listed", []string{"e102", "e110", "e129", "e951", "e120", "e122", "e211", "e220", "e250", "e621"}, -14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdditivePenalty(tt.codes); got != tt.want {
				t.Errorf("AdditivePenalty(%v) = %d, want %d", tt.codes, got, tt.want)
			}
		})
	}
}

func TestNormalizeAdditive(t *testing.T) {
	if got := NormalizeAdditive("en:E102"); got != "e102" {
		t.Errorf("NormalizeAdditive = %q, want e102", got)
	}
	if got := NormalizeAdditive("fr:e102"); got != "fr:e102" {
		t.Errorf("only the en: prefix is stripped, got %q", got)
	}
}

// --- Aggregator ---

func TestContribution(t *testing.T) {
	tests := []struct {
		key   models.NutrientKey
		level models.Level
		want  int
	}{
		{models.Proteins, models.LevelLow, -1},
		{models.Proteins, models.LevelHigh, 2},
		{models.Sugars, models.LevelLow, 1},
		{models.Sugars, models.LevelHigh, -2},
		{models.Sodium, models.LevelLow, 1},
		{models.Sodium, models.LevelHigh, -2},
		{models.SaturatedFat, models.LevelLow, 1},
		{models.SaturatedFat, models.LevelHigh, -2},
		{models.EnergyKcal, models.LevelLow, 1},
		{models.EnergyKcal, models.LevelHigh, -1},
		{models.Fat, models.LevelHigh, 0},
		{models.Sugars, models.LevelNormal, 0},
		{models.Sugars, models.LevelUnknown, 0},
		{"fiber", models.LevelHigh, 0},
	}
	for _, tt := range tests {
		if got := Contribution(tt.key, tt.level); got != tt.want {
			t.Errorf("Contribution(%s, %s) = %d, want %d", tt.key, tt.level, got, tt.want)
		}
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	type entry struct {
		key   models.NutrientKey
		level models.Level
	}
	levelsAll := []models.Level{models.LevelLow, models.LevelNormal, models.LevelHigh, models.LevelUnknown}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		var entries []entry
		for _, key := range models.NutrientKeys {
			if rng.Intn(3) == 0 {
				continue
			}
			entries = append(entries, entry{key, levelsAll[rng.Intn(len(levelsAll))]})
		}
		penalty := -rng.Intn(6)

		want := penalty
		for _, e := range entries {
			want += Contribution(e.key, e.level)
		}

		for p := 0; p < 10; p++ {
			rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
			levels := make(map[models.NutrientKey]models.Level, len(entries))
			for _, e := range entries {
				levels[e.key] = e.level
			}
			if got := Aggregate(levels, penalty); got != want {
				t.Fatalf("round %d: Aggregate = %d after permutation, want %d", round, got, want)
			}
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, -3); got != -3 {
		t.Errorf("Aggregate(nil, -3) = %d", got)
	}
}

// --- Categories ---

func TestBandSetsValid(t *testing.T) {
	for name, bs := range map[string]BandSet{"detail": DetailBands, "list": ListBands} {
		if err := bs.Validate(); err != nil {
			t.Errorf("%s bands: %v", name, err)
		}
	}
}

func TestBandSetValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		bs   BandSet
	}{
		{"empty", BandSet{}},
		{"gap at bottom", BandSet{{Min: 0, Category: models.CategoryGood}, {Min: -5, Category: models.CategoryBad}}},
		{"overlap", BandSet{{Min: 0, Category: models.CategoryGood}, {Min: 0, Category: models.CategoryPoor}, {Min: math.MinInt, Category: models.CategoryBad}}},
		{"sentinel category", BandSet{{Min: math.MinInt, Category: models.CategoryUnknown}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.bs.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCategorizeExhaustive(t *testing.T) {
	for score := -1000; score <= 1000; score++ {
		matches := 0
		for i, band := range DetailBands {
			upper := math.MaxInt
			if i > 0 {
				upper = DetailBands[i-1].Min - 1
			}
			if score >= band.Min && score <= upper {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("score %d falls in %d bands", score, matches)
		}
		if !Categorize(score).Ordered() {
			t.Fatalf("score %d mapped to sentinel", score)
		}
	}
	for _, score := range []int{math.MinInt, math.MaxInt} {
		if !Categorize(score).Ordered() {
			t.Errorf("score %d mapped to sentinel", score)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		score int
		want  models.Category
	}{
		{15, models.CategoryExcellent},
		{10, models.CategoryExcellent},
		{9, models.CategoryGood},
		{5, models.CategoryGood},
		{4, models.CategoryAverage},
		{0, models.CategoryAverage},
		{-1, models.CategoryPoor},
		{-5, models.CategoryPoor},
		{-6, models.CategoryBad},
	}
	for _, tt := range tests {
		if got := Categorize(tt.score); got != tt.want {
			t.Errorf("Categorize(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCategorizeMonotonic(t *testing.T) {
	prev := Categorize(-100).Rank()
	for score := -99; score <= 100; score++ {
		r := Categorize(score).Rank()
		if r < prev {
			t.Fatalf("rank dropped from %d to %d at score %d", prev, r, score)
		}
		prev = r
	}
}

// --- Product scoring ---

func scenarioA() *models.ProductRecord {
	return &models.ProductRecord{
		ID:   "0001",
		Name: "Test Crackers",
		Nutriments: map[models.NutrientKey]models.NutrientFacts{
			models.Sugars:       {Per100g: models.Grams(3)},
			models.Sodium:       {Per100g: models.Grams(0.05)},
			models.SaturatedFat: {Per100g: models.Grams(0.5)},
			models.Proteins:     {Per100g: models.Grams(25)},
			models.EnergyKcal:   {Per100g: models.Grams(40)},
		},
	}
}

func TestScoreProductScenarioA(t *testing.T) {
	sp, err := ScoreProduct(scenarioA())
	if err != nil {
		t.Fatalf("ScoreProduct: %v", err)
	}
	if sp.Score != 6 {
		t.Errorf("score = %d, want 6", sp.Score)
	}
	if sp.Category != models.CategoryGood {
		t.Errorf("category = %s, want Good", sp.Category)
	}
	wantPos := []models.NutrientKey{models.Proteins, models.Sodium, models.EnergyKcal, models.SaturatedFat, models.Sugars}
	if fmt.Sprint(sp.Positives) != fmt.Sprint(wantPos) {
		t.Errorf("positives = %v, want %v", sp.Positives, wantPos)
	}
	if len(sp.Negatives) != 0 {
		t.Errorf("negatives = %v, want none", sp.Negatives)
	}
}

func TestScoreProductScenarioB(t *testing.T) {
	rec := scenarioA()
	rec.AdditiveTags = []string{"en:e102", "en:e621"}
	sp, err := ScoreProduct(rec)
	if err != nil {
		t.Fatalf("ScoreProduct: %v", err)
	}
	if sp.AdditivePenalty != -3 {
		t.Errorf("penalty = %d, want -3", sp.AdditivePenalty)
	}
	if sp.Score != 3 {
		t.Errorf("score = %d, want 3", sp.Score)
	}
	if sp.Category != models.CategoryAverage {
		t.Errorf("category = %s, want Average", sp.Category)
	}
}

func TestScoreProductUnavailableNutrient(t *testing.T) {
	rec := &models.ProductRecord{
		ID: "0002",
		Nutriments: map[models.NutrientKey]models.NutrientFacts{
			models.Sugars: {Per100g: models.Unavailable, Serving: models.Grams(4)},
			models.Sodium: {Per100g: models.Grams(0.9)},
		},
	}
	sp, err := ScoreProduct(rec)
	if err != nil {
		t.Fatalf("ScoreProduct: %v", err)
	}
	if len(sp.Readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(sp.Readings))
	}
	for _, r := range sp.Readings {
		if r.Key == models.Sugars && r.Level != models.LevelUnknown {
			t.Errorf("sugars level = %s, want unknown", r.Level)
		}
	}
	if _, ok := sp.Levels[models.Sugars]; ok {
		t.Error("sugars without a per-100g value must be excluded from scoring")
	}
	if sp.Score != -2 {
		t.Errorf("score = %d, want -2", sp.Score)
	}
	if fmt.Sprint(sp.Negatives) != fmt.Sprint([]models.NutrientKey{models.Sodium}) {
		t.Errorf("negatives = %v", sp.Negatives)
	}
}

func TestScoreProductZeroIsMeasured(t *testing.T) {
	rec := &models.ProductRecord{
		ID:         "0003",
		Nutriments: map[models.NutrientKey]models.NutrientFacts{models.Sugars: {Per100g: models.Grams(0)}},
	}
	sp, err := ScoreProduct(rec)
	if err != nil {
		t.Fatalf("ScoreProduct: %v", err)
	}
	if sp.Levels[models.Sugars] != models.LevelLow {
		t.Errorf("zero sugars level = %s, want low", sp.Levels[models.Sugars])
	}
	if sp.Score != 1 {
		t.Errorf("score = %d, want 1", sp.Score)
	}
}

func TestScoreProductMalformed(t *testing.T) {
	for name, rec := range map[string]*models.ProductRecord{
		"nil":      nil,
		"no id":    {Name: "x"},
		"blank id": {ID: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ScoreProduct(rec)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("err = %v, want ErrMalformedRecord", err)
			}
			if Outcome(err) != models.CategoryError {
				t.Errorf("Outcome = %s, want Error", Outcome(err))
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", ErrUnavailableData)
	if got := Outcome(wrapped); got != models.CategoryUnknown {
		t.Errorf("Outcome(unavailable) = %s, want Unknown", got)
	}
	if got := Outcome(errors.New("boom")); got != models.CategoryError {
		t.Errorf("Outcome(other) = %s, want Error", got)
	}
}
