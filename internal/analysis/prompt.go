package analysis

import "strings"

// PromptInput parameterizes the analysis prompt.
type PromptInput struct {
	Language   string
	Correction string
}

const basePrompt = `You are a nutrition analysis assistant. Look at the meal photo and identify the dish and its ingredients.

Reply with a single JSON object and nothing else, using this exact shape:
{
  "meal_name": "short dish name",
  "description": "one or two sentences describing the meal",
  "ingredients": [
    {"name": "ingredient", "calories": 0, "protein_g": 0, "carbs_g": 0, "fat_g": 0, "fiber_g": 0, "sugar_g": 0, "sodium_mg": 0}
  ]
}

Estimate nutrient amounts per visible portion. Omit fiber_g, sugar_g and sodium_mg when you cannot estimate them. Do not invent ingredients that are not plausibly in the photo.`

// BuildPrompt renders the vision prompt, appending the user's correction
// summary when one is present so the model revises its previous estimate.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if lang := strings.TrimSpace(in.Language); lang != "" && !strings.EqualFold(lang, "en") {
		b.WriteString("\n\nWrite the meal_name, description and ingredient names in language: " + lang + ".")
	}

	if correction := strings.TrimSpace(in.Correction); correction != "" {
		b.WriteString("\n\nThe user reviewed a previous analysis of this same photo and provided corrections. Re-analyze the photo taking them into account:\n")
		b.WriteString(correction)
	}

	return b.String()
}
