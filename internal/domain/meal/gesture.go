package meal

import "math"

// RemoveThreshold is the Euclidean displacement, in layout units, beyond
// which releasing a dragged ingredient removes it from the draft.
const RemoveThreshold = 100.0

// DragDecision is the outcome of releasing a dragged ingredient row.
type DragDecision int

const (
	// DragRestore animates the row back to its origin; no state change.
	DragRestore DragDecision = iota
	// DragRemove deletes the ingredient from the draft.
	DragRemove
)

// DecideDrag maps a release displacement to a remove/restore decision.
// Pure threshold on distance from origin; velocity plays no part.
func DecideDrag(dx, dy float64) DragDecision {
	if math.Hypot(dx, dy) > RemoveThreshold {
		return DragRemove
	}
	return DragRestore
}
