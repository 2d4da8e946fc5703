package meal

// State identifies where the single pending meal sits in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateAnalyzing State = "analyzing"
	StateReviewing State = "reviewing"
	StatePosting   State = "posting"
	StatePosted    State = "posted"
	StateUpdating  State = "updating"
)

// Ingredient is one normalized entry of a pending meal's ingredient list.
// The ID is assigned locally at analysis-import time and is stable for the
// lifetime of the draft; list order is display order only.
type Ingredient struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
	FiberG   *float64 `json:"fiber_g,omitempty"`
	SugarG   *float64 `json:"sugar_g,omitempty"`
	SodiumMg *float64 `json:"sodium_mg,omitempty"`
}

// Analysis is the structured result of a successful analysis call.
type Analysis struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Ingredients []Ingredient `json:"ingredients"`
}

// PendingMeal is the single-slot draft: the captured image plus its current
// analysis. Created by a successful analysis call, cleared by discard or a
// committed update.
type PendingMeal struct {
	ImageData   string   `json:"image_data"`
	ImageFormat string   `json:"image_format,omitempty"`
	Analysis    Analysis `json:"analysis"`
}

// Clone returns a deep copy so callers cannot mutate the controller's slot.
func (p *PendingMeal) Clone() *PendingMeal {
	if p == nil {
		return nil
	}
	out := *p
	out.Analysis.Ingredients = make([]Ingredient, len(p.Analysis.Ingredients))
	for i, ing := range p.Analysis.Ingredients {
		copied := ing
		copied.FiberG = cloneFloat(ing.FiberG)
		copied.SugarG = cloneFloat(ing.SugarG)
		copied.SodiumMg = cloneFloat(ing.SodiumMg)
		out.Analysis.Ingredients[i] = copied
	}
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Snapshot is a read-only view of the controller state handed to transports.
type Snapshot struct {
	State  State        `json:"state"`
	Draft  *PendingMeal `json:"draft,omitempty"`
	MealID string       `json:"meal_id,omitempty"`
}
