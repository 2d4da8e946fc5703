package meal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"calotrack-server-go/internal/domain/eventbus"
	"calotrack-server-go/internal/domain/image"
	"calotrack-server-go/internal/domain/meal/store"
	"calotrack-server-go/internal/platform/errors"
	"calotrack-server-go/internal/platform/logging"
)

// Analyzer is the external analysis service contract. Idempotent per call,
// no side effects beyond returning a result.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*RawAnalysis, error)
}

// AnalyzeRequest carries the image payload and optional correction text to
// the analysis provider.
type AnalyzeRequest struct {
	ImageData  string
	Format     string
	Language   string
	Correction string
}

// Persister is the external persistence service contract. Create must be
// called at most once per draft lifecycle; the controller enforces that.
type Persister interface {
	Create(ctx context.Context, draft *PendingMeal) (string, error)
	Update(ctx context.Context, mealID, correction string) error
}

// Publisher receives lifecycle events. Satisfied by the shared event bus.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// Options configures a lifecycle controller.
type Options struct {
	Analyzer  Analyzer
	Persister Persister
	Refs      store.Store
	Validator *image.Validator
	Logger    *logging.Logger
	Events    Publisher
	Language  string
}

// Controller owns the single-slot pending meal and serializes every
// lifecycle transition. At most one external call (analyze, post, update) is
// in flight at a time; transitions attempted meanwhile fail with a conflict
// error rather than queueing. Cancellation mid-flight is not supported: an
// in-progress call runs to completion before the next transition is accepted.
type Controller struct {
	mu     sync.Mutex
	state  State
	draft  *PendingMeal
	mealID string

	analyzer  Analyzer
	persister Persister
	refs      store.Store
	validator *image.Validator
	logger    *logging.Logger
	events    Publisher
	language  string
}

// NewController builds a controller in the Idle state.
func NewController(opts Options) (*Controller, error) {
	if opts.Analyzer == nil {
		return nil, errors.New(errors.KindConfig, "controller.new", "analyzer is required")
	}
	if opts.Persister == nil {
		return nil, errors.New(errors.KindConfig, "controller.new", "persister is required")
	}
	if opts.Refs == nil {
		return nil, errors.New(errors.KindConfig, "controller.new", "reference store is required")
	}
	if opts.Validator == nil {
		return nil, errors.New(errors.KindConfig, "controller.new", "image validator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger
	}

	language := opts.Language
	if language == "" {
		language = "en"
	}

	return &Controller{
		state:     StateIdle,
		analyzer:  opts.Analyzer,
		persister: opts.Persister,
		refs:      opts.Refs,
		validator: opts.Validator,
		logger:    logger,
		events:    opts.Events,
		language:  language,
	}, nil
}

// Restore loads the durable posted-meal reference on startup. The draft
// itself does not survive a restart; a found reference moves the controller
// to Posted with an empty slot so subsequent edits route through update.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mealID, found, err := c.refs.Load(ctx)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "controller.restore", "load posted meal reference", err)
	}
	if found && mealID != "" {
		c.mealID = mealID
		c.state = StatePosted
		c.logger.InfoTag("Meal", "restored posted meal reference: id=%s", mealID)
	}
	return nil
}

// Snapshot returns a read-only copy of the current lifecycle state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:  c.state,
		Draft:  c.draft.Clone(),
		MealID: c.mealID,
	}
}

func (c *Controller) busyLocked() error {
	switch c.state {
	case StateAnalyzing, StatePosting, StateUpdating:
		return errors.New(errors.KindConflict, "controller", "operation in flight")
	}
	return nil
}

func (c *Controller) publish(topic string, event interface{}) {
	if c.events != nil {
		c.events.Publish(topic, event)
		return
	}
	eventbus.Publish(topic, event)
}

// BeginCapture starts a fresh capture. Any previous draft and posted
// reference are cleared together; a new capture always starts a new
// lifecycle.
func (c *Controller) BeginCapture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.busyLocked(); err != nil {
		return err
	}

	if err := c.clearLocked(ctx); err != nil {
		return err
	}
	c.state = StateCapturing
	return nil
}

// clearLocked wipes the draft, in-memory meal id and the durable record
// together. They must never be cleared separately.
func (c *Controller) clearLocked(ctx context.Context) error {
	if err := c.refs.Clear(ctx); err != nil {
		return errors.Wrap(errors.KindStorage, "controller.clear", "clear posted meal reference", err)
	}
	c.draft = nil
	c.mealID = ""
	c.state = StateIdle
	return nil
}

// Analyze validates the captured payload and runs it through the analysis
// provider, producing a fresh draft. Camera and gallery payloads are treated
// identically. An invalid payload aborts before any network call.
func (c *Controller) Analyze(ctx context.Context, rawImage string) (Snapshot, error) {
	c.mu.Lock()
	if err := c.busyLocked(); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	if c.state != StateIdle && c.state != StateCapturing {
		c.mu.Unlock()
		return Snapshot{}, errors.New(errors.KindConflict, "controller.analyze",
			fmt.Sprintf("cannot analyze from state %s", c.state))
	}

	validation := c.validator.Sanitize(rawImage)
	if !validation.IsValid {
		c.state = StateIdle
		c.mu.Unlock()
		return Snapshot{}, validation.Error
	}

	c.state = StateAnalyzing
	c.mu.Unlock()

	raw, err := c.analyzer.Analyze(ctx, AnalyzeRequest{
		ImageData: validation.Cleaned,
		Format:    validation.Format,
		Language:  c.language,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateIdle
		return Snapshot{}, errors.Wrap(errors.KindAnalysis, "controller.analyze", "analysis call failed", err)
	}

	analysis := Normalize(raw)
	c.draft = &PendingMeal{
		ImageData:   validation.Cleaned,
		ImageFormat: validation.Format,
		Analysis:    analysis,
	}
	c.state = StateReviewing

	c.publish(eventbus.TopicMealAnalyzed, eventbus.MealAnalyzedEvent{
		MealName:    analysis.Name,
		Ingredients: len(analysis.Ingredients),
		Reanalysis:  false,
	})

	return c.snapshotLocked(), nil
}

// Reanalyze resends the original image together with a synthesized
// correction summary. On success the draft is replaced wholesale; local
// edits survive only if the provider echoes them back. On failure the draft
// is retained unchanged.
func (c *Controller) Reanalyze(ctx context.Context, notes string) (Snapshot, error) {
	c.mu.Lock()
	if err := c.busyLocked(); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	if c.state != StateReviewing || c.draft == nil {
		c.mu.Unlock()
		return Snapshot{}, errors.New(errors.KindConflict, "controller.reanalyze",
			"no draft under review")
	}

	prior := c.draft
	correction := BuildCorrectionSummary(prior, notes)
	c.state = StateAnalyzing
	c.mu.Unlock()

	raw, err := c.analyzer.Analyze(ctx, AnalyzeRequest{
		ImageData:  prior.ImageData,
		Format:     prior.ImageFormat,
		Language:   c.language,
		Correction: correction,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateReviewing
	if err != nil {
		// Draft retained unchanged.
		return Snapshot{}, errors.Wrap(errors.KindAnalysis, "controller.reanalyze", "re-analysis call failed", err)
	}

	analysis := Normalize(raw)
	c.draft = &PendingMeal{
		ImageData:   prior.ImageData,
		ImageFormat: prior.ImageFormat,
		Analysis:    analysis,
	}

	c.publish(eventbus.TopicMealAnalyzed, eventbus.MealAnalyzedEvent{
		MealName:    analysis.Name,
		Ingredients: len(analysis.Ingredients),
		Reanalysis:  true,
	})

	return c.snapshotLocked(), nil
}

// Post commits the draft for the first time. Already-posted drafts are not
// re-postable; edits after a post must go through Update.
func (c *Controller) Post(ctx context.Context) (string, error) {
	c.mu.Lock()
	if err := c.busyLocked(); err != nil {
		c.mu.Unlock()
		return "", err
	}
	if c.mealID != "" {
		c.mu.Unlock()
		return "", errors.New(errors.KindConflict, "controller.post", "meal already posted, use update")
	}
	if c.state != StateReviewing || c.draft == nil {
		c.mu.Unlock()
		return "", errors.New(errors.KindConflict, "controller.post", "no draft to post")
	}

	draft := c.draft.Clone()
	c.state = StatePosting
	c.mu.Unlock()

	mealID, err := c.persister.Create(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateReviewing
		return "", errors.Wrap(errors.KindPersistence, "controller.post", "create call failed", err)
	}

	c.mealID = mealID
	c.state = StatePosted

	// A failed durable write after a successful remote create leaves a known
	// inconsistency window; it is logged, not reconciled.
	if err := c.refs.Save(ctx, mealID); err != nil {
		c.logger.WarnTag("Meal", "posted meal reference not persisted: id=%s err=%v", mealID, err)
	}

	c.publish(eventbus.TopicMealPosted, eventbus.MealPostedEvent{MealID: mealID})

	return mealID, nil
}

// Update revises an already-committed meal with a correction summary and, on
// success, finalizes the lifecycle: draft and reference are cleared and the
// controller returns to Idle.
func (c *Controller) Update(ctx context.Context, notes string) error {
	c.mu.Lock()
	if err := c.busyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.mealID == "" {
		c.mu.Unlock()
		return errors.New(errors.KindValidation, "controller.update", "no posted meal to update")
	}
	if c.state != StatePosted {
		c.mu.Unlock()
		return errors.New(errors.KindConflict, "controller.update",
			fmt.Sprintf("cannot update from state %s", c.state))
	}

	mealID := c.mealID
	correction := BuildCorrectionSummary(c.draft, notes)
	c.state = StateUpdating
	c.mu.Unlock()

	err := c.persister.Update(ctx, mealID, correction)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StatePosted
		return errors.Wrap(errors.KindPersistence, "controller.update", "update call failed", err)
	}

	if err := c.refs.Clear(ctx); err != nil {
		c.logger.WarnTag("Meal", "posted meal reference not cleared: id=%s err=%v", mealID, err)
	}
	c.draft = nil
	c.mealID = ""
	c.state = StateIdle

	c.publish(eventbus.TopicMealUpdated, eventbus.MealUpdatedEvent{MealID: mealID})

	return nil
}

// Discard unconditionally clears the draft, the in-memory meal id and the
// durable record together. User confirmation is the transport's concern.
func (c *Controller) Discard(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.busyLocked(); err != nil {
		return err
	}

	hadMealID := c.mealID != ""
	if err := c.clearLocked(ctx); err != nil {
		return err
	}

	c.publish(eventbus.TopicMealDiscarded, eventbus.MealDiscardedEvent{HadMealID: hadMealID})
	return nil
}

// ---- draft edits ----

func (c *Controller) editableLocked() error {
	if err := c.busyLocked(); err != nil {
		return err
	}
	if c.state != StateReviewing && c.state != StatePosted {
		return errors.New(errors.KindConflict, "controller.edit",
			fmt.Sprintf("no editable draft in state %s", c.state))
	}
	if c.draft == nil {
		return errors.New(errors.KindConflict, "controller.edit", "no draft loaded")
	}
	return nil
}

// SetName updates the draft's meal name.
func (c *Controller) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.draft.Analysis.Name = name
	return nil
}

// SetDescription updates the draft's description.
func (c *Controller) SetDescription(description string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.draft.Analysis.Description = description
	return nil
}

// SetIngredientField updates one field on an ingredient. Numeric fields go
// through the same coercion as normalization: malformed or negative input
// resets the field to zero instead of propagating.
func (c *Controller) SetIngredientField(id, field string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}

	ing := c.findIngredientLocked(id)
	if ing == nil {
		return errors.New(errors.KindValidation, "controller.edit", "ingredient not found: "+id)
	}

	switch field {
	case "name":
		s, ok := value.(string)
		if !ok {
			return errors.New(errors.KindValidation, "controller.edit", "name must be a string")
		}
		ing.Name = s
	case "calories":
		ing.Calories = CoerceNumber(value)
	case "protein_g":
		ing.ProteinG = CoerceNumber(value)
	case "carbs_g":
		ing.CarbsG = CoerceNumber(value)
	case "fat_g":
		ing.FatG = CoerceNumber(value)
	case "fiber_g":
		n := CoerceNumber(value)
		ing.FiberG = &n
	case "sugar_g":
		n := CoerceNumber(value)
		ing.SugarG = &n
	case "sodium_mg":
		n := CoerceNumber(value)
		ing.SodiumMg = &n
	default:
		return errors.New(errors.KindValidation, "controller.edit", "unknown ingredient field: "+field)
	}
	return nil
}

// AddIngredient appends a new named ingredient with zeroed nutrients.
func (c *Controller) AddIngredient(name string) (Ingredient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return Ingredient{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Ingredient{}, errors.New(errors.KindValidation, "controller.edit", "ingredient name required")
	}

	ing := Ingredient{
		ID:   c.nextIngredientIDLocked(),
		Name: name,
	}
	c.draft.Analysis.Ingredients = append(c.draft.Analysis.Ingredients, ing)
	return ing, nil
}

// RemoveIngredient deletes an ingredient from the draft.
func (c *Controller) RemoveIngredient(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	return c.removeIngredientLocked(id)
}

// ReleaseDrag applies the drag-to-remove gesture rule to a released
// ingredient row. Returns whether the ingredient was removed.
func (c *Controller) ReleaseDrag(id string, dx, dy float64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return false, err
	}

	if DecideDrag(dx, dy) != DragRemove {
		return false, nil
	}
	if err := c.removeIngredientLocked(id); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) removeIngredientLocked(id string) error {
	ingredients := c.draft.Analysis.Ingredients
	for i, ing := range ingredients {
		if ing.ID == id {
			c.draft.Analysis.Ingredients = append(ingredients[:i], ingredients[i+1:]...)
			return nil
		}
	}
	return errors.New(errors.KindValidation, "controller.edit", "ingredient not found: "+id)
}

func (c *Controller) findIngredientLocked(id string) *Ingredient {
	for i := range c.draft.Analysis.Ingredients {
		if c.draft.Analysis.Ingredients[i].ID == id {
			return &c.draft.Analysis.Ingredients[i]
		}
	}
	return nil
}

// nextIngredientIDLocked continues the positional id sequence past the
// highest index ever assigned, so removals never cause id reuse.
func (c *Controller) nextIngredientIDLocked() string {
	next := 0
	for _, ing := range c.draft.Analysis.Ingredients {
		if idx, ok := strings.CutPrefix(ing.ID, "ing_"); ok {
			if n, err := strconv.Atoi(idx); err == nil && n >= next {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("ing_%d", next)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:  c.state,
		Draft:  c.draft.Clone(),
		MealID: c.mealID,
	}
}
