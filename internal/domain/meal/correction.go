package meal

import "strings"

// BuildCorrectionSummary synthesizes the free-text correction sent on
// re-analysis and update calls: the draft's current name, description and
// ingredient names combined with the user's notes. Services receive this
// summary rather than a structured field diff.
func BuildCorrectionSummary(draft *PendingMeal, notes string) string {
	var b strings.Builder

	if draft != nil {
		if draft.Analysis.Name != "" {
			b.WriteString("Meal name: " + draft.Analysis.Name + "\n")
		}
		if draft.Analysis.Description != "" {
			b.WriteString("Description: " + draft.Analysis.Description + "\n")
		}
		if len(draft.Analysis.Ingredients) > 0 {
			names := make([]string, 0, len(draft.Analysis.Ingredients))
			for _, ing := range draft.Analysis.Ingredients {
				if ing.Name != "" {
					names = append(names, ing.Name)
				}
			}
			if len(names) > 0 {
				b.WriteString("Ingredients: " + strings.Join(names, ", ") + "\n")
			}
		}
	}

	notes = strings.TrimSpace(notes)
	if notes != "" {
		b.WriteString("User notes: " + notes)
	}

	return strings.TrimSpace(b.String())
}
