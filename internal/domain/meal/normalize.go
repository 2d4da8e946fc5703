package meal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawAnalysis is the loosely-typed intermediate representation of an analysis
// provider response. Ingredient entries may be plain name strings or objects
// with inconsistent field naming; nothing downstream of Normalize ever sees
// this shape.
type RawAnalysis struct {
	MealName    string `json:"meal_name"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Ingredients []any  `json:"ingredients"`
}

// DecodeRawAnalysis parses a provider JSON document into the IR.
func DecodeRawAnalysis(data []byte) (*RawAnalysis, error) {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()

	var raw RawAnalysis
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return &raw, nil
}

// Synonym keys accepted for each nutrient, canonical name first so that
// normalizing already-normalized data is a no-op.
var (
	caloriesKeys = []string{"calories", "kcal", "energy_kcal", "energy"}
	proteinKeys  = []string{"protein_g", "protein", "proteins"}
	carbsKeys    = []string{"carbs_g", "carbs", "carbohydrates_g", "carbohydrates"}
	fatKeys      = []string{"fat_g", "fat", "fats"}
	fiberKeys    = []string{"fiber_g", "fiber", "fibre"}
	sugarKeys    = []string{"sugar_g", "sugar", "sugars"}
	sodiumKeys   = []string{"sodium_mg", "sodium"}
)

// Normalize converts the IR into a strict Analysis. One Ingredient is
// produced per input entry, in input order, with a positional id and every
// missing or non-numeric nutrient defaulting to zero. Only ever invoked on
// fresh provider responses, never on locally edited drafts.
func Normalize(raw *RawAnalysis) Analysis {
	analysis := Analysis{
		Name:        firstNonEmpty(raw.MealName, raw.Name),
		Description: raw.Description,
		Ingredients: make([]Ingredient, 0, len(raw.Ingredients)),
	}

	for i, entry := range raw.Ingredients {
		ing := Ingredient{ID: fmt.Sprintf("ing_%d", i)}

		switch v := entry.(type) {
		case string:
			ing.Name = v
		case map[string]any:
			ing.Name = stringField(v, "name", "ingredient", "title")
			ing.Calories = numberField(v, caloriesKeys)
			ing.ProteinG = numberField(v, proteinKeys)
			ing.CarbsG = numberField(v, carbsKeys)
			ing.FatG = numberField(v, fatKeys)
			ing.FiberG = optionalField(v, fiberKeys)
			ing.SugarG = optionalField(v, sugarKeys)
			ing.SodiumMg = optionalField(v, sodiumKeys)
		default:
			// Unrecognized entry shape still yields a placeholder row so
			// counts and order stay aligned with the provider response.
			ing.Name = fmt.Sprintf("%v", entry)
		}

		analysis.Ingredients = append(analysis.Ingredients, ing)
	}

	return analysis
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// numberField returns the first populated synonym coerced to a non-negative
// float, zero otherwise.
func numberField(m map[string]any, keys []string) float64 {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return CoerceNumber(v)
		}
	}
	return 0
}

// optionalField distinguishes "absent" (nil) from "present but malformed"
// (zero) for the optional nutrients.
func optionalField(m map[string]any, keys []string) *float64 {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			n := CoerceNumber(v)
			return &n
		}
	}
	return nil
}

// CoerceNumber converts heterogeneous numeric inputs to a non-negative
// float64. Malformed or negative values reset to zero rather than propagating.
func CoerceNumber(v any) float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}
