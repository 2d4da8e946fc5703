package eventbus

import (
	"calotrack-server-go/internal/platform/logging"
)

// Lifecycle topics emitted by the meal controller.
const (
	TopicMealAnalyzed  = "meal.analyzed"
	TopicMealPosted    = "meal.posted"
	TopicMealUpdated   = "meal.updated"
	TopicMealDiscarded = "meal.discarded"
)

// MealAnalyzedEvent fires after a draft is created or replaced by analysis.
type MealAnalyzedEvent struct {
	MealName    string
	Ingredients int
	Reanalysis  bool
}

// MealPostedEvent fires after a first-time commit yields a meal id.
type MealPostedEvent struct {
	MealID string
}

// MealUpdatedEvent fires after an update commit resets the lifecycle.
type MealUpdatedEvent struct {
	MealID string
}

// MealDiscardedEvent fires after an explicit discard.
type MealDiscardedEvent struct {
	HadMealID bool
}

// SetupEventHandlers wires the default logging subscribers.
func SetupEventHandlers(logger *logging.Logger) {
	if logger == nil {
		logger = logging.DefaultLogger
	}

	_ = Subscribe(TopicMealAnalyzed, func(ev MealAnalyzedEvent) {
		logger.InfoTag("Meal", "analysis complete: name=%q ingredients=%d reanalysis=%v",
			ev.MealName, ev.Ingredients, ev.Reanalysis)
	})
	_ = Subscribe(TopicMealPosted, func(ev MealPostedEvent) {
		logger.InfoTag("Meal", "meal posted: id=%s", ev.MealID)
	})
	_ = Subscribe(TopicMealUpdated, func(ev MealUpdatedEvent) {
		logger.InfoTag("Meal", "meal updated and lifecycle reset: id=%s", ev.MealID)
	})
	_ = Subscribe(TopicMealDiscarded, func(ev MealDiscardedEvent) {
		logger.InfoTag("Meal", "draft discarded: had_meal_id=%v", ev.HadMealID)
	})
}
