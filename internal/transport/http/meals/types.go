package meals

// AnalyzeRequest carries the captured image as a base64 string, with or
// without a data-URI prefix.
type AnalyzeRequest struct {
	Image string `json:"image" binding:"required"`
}

// ReanalyzeRequest carries the user's free-text correction notes.
type ReanalyzeRequest struct {
	Notes string `json:"notes"`
}

// UpdateRequest carries the notes sent with an update of a posted meal.
type UpdateRequest struct {
	Notes string `json:"notes"`
}

// DraftPatch updates top-level draft fields. Nil means leave unchanged.
type DraftPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AddIngredientRequest appends a manual ingredient to the draft.
type AddIngredientRequest struct {
	Name string `json:"name" binding:"required"`
}

// DragReleaseRequest reports the displacement of a released ingredient row.
type DragReleaseRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// DragReleaseResponse reports the gesture outcome.
type DragReleaseResponse struct {
	Removed bool `json:"removed"`
}

// CommitResponse returns the id assigned by a first-time commit.
type CommitResponse struct {
	MealID string `json:"meal_id"`
}
