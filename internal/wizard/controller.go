// Package wizard owns the task posting wizard: the accumulated draft, the
// current step, and the navigation rules between them.
package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/kazipost/kazipost/internal/draft"
	apperrors "github.com/kazipost/kazipost/internal/platform/errors"
	"github.com/kazipost/kazipost/internal/telemetry"
)

// UploadGate is the controller's view of the upload coordinator: the current
// attachment list and a gate that settles once nothing is in flight.
type UploadGate interface {
	Snapshot() []draft.Attachment
	Settle(ctx context.Context) error
	RemoveAll()
}

// Publisher posts a completed draft and returns the created task's ID.
type Publisher interface {
	Publish(ctx context.Context, d *draft.TaskDraft) (string, error)
}

// StepUpdate carries one step's form fields into the draft. Each update
// mutates only the fields its step owns.
type StepUpdate interface {
	Step() int
	apply(d *draft.TaskDraft)
}

// TitleScheduleUpdate is the title/date step's form payload.
type TitleScheduleUpdate struct {
	Title      string
	Scheduling draft.Scheduling
}

func (TitleScheduleUpdate) Step() int { return draft.StepTitleSchedule }

func (u TitleScheduleUpdate) apply(d *draft.TaskDraft) {
	d.Title = u.Title
	d.Scheduling = u.Scheduling
}

// LocationUpdate is the location step's form payload.
type LocationUpdate struct {
	Location draft.LocationSpec
}

func (LocationUpdate) Step() int { return draft.StepLocation }

func (u LocationUpdate) apply(d *draft.TaskDraft) {
	d.Location = u.Location
}

// DetailsUpdate is the details step's form payload. Attachments are not part
// of it: the upload coordinator owns those.
type DetailsUpdate struct {
	Description string
}

func (DetailsUpdate) Step() int { return draft.StepDetails }

func (u DetailsUpdate) apply(d *draft.TaskDraft) {
	d.Description = u.Description
}

// BudgetUpdate is the budget step's form payload.
type BudgetUpdate struct {
	Input string
}

func (BudgetUpdate) Step() int { return draft.StepBudget }

func (u BudgetUpdate) apply(d *draft.TaskDraft) {
	d.BudgetInput = u.Input
	if minor, code := draft.ParseBudget(u.Input); code == apperrors.CodeUnknown {
		d.BudgetMinorUnits = minor
	}
}

// StepProgress carries one step's completion state.
type StepProgress struct {
	Step     int
	Key      string
	Complete bool
}

// Progress is the wizard-wide completion summary.
type Progress struct {
	Steps        []StepProgress
	NextStep     int
	Ready        bool
	UnmetReasons []string
}

// Controller drives one posting session. It exclusively owns the draft and
// the step index; collaborators only ever see clones.
type Controller struct {
	mu        sync.Mutex
	step      int
	draft     *draft.TaskDraft
	uploads   UploadGate
	publisher Publisher
	emitter   *telemetry.Emitter
	clock     func() time.Time
	closed    bool
	advancing bool
}

// New creates a controller at the first step with a defaulted draft.
// uploads, publisher and emitter may each be nil; the affected operations
// degrade to no-ops or errors at the call site.
func New(uploads UploadGate, publisher Publisher, emitter *telemetry.Emitter) *Controller {
	return &Controller{
		step:      draft.StepTitleSchedule,
		draft:     draft.New(),
		uploads:   uploads,
		publisher: publisher,
		emitter:   emitter,
		clock:     time.Now,
	}
}

// Step returns the current step number.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Closed reports whether the session has been published or cancelled.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Draft returns a clone of the draft with the live attachment list merged in.
func (c *Controller) Draft() *draft.TaskDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncAttachmentsLocked()
	return c.draft.Clone()
}

// syncAttachmentsLocked copies the coordinator's attachment list into the
// draft. The coordinator owns status transitions and membership; the draft
// only mirrors them.
func (c *Controller) syncAttachmentsLocked() {
	if c.uploads == nil {
		return
	}
	c.draft.Attachments = c.uploads.Snapshot()
}

// Save commits a step's form fields without validating or navigating. Back
// navigation uses it so edits are never lost.
func (c *Controller) Save(update StepUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperrors.New(apperrors.CodeWizardSessionClosed, "posting session is closed")
	}
	update.apply(c.draft)
	return nil
}

// Advance validates the current step with the update applied and, when
// valid, commits it and moves forward. Invalid input still commits the
// typed fields so nothing is lost, but the step does not change.
//
// On the details step a valid advance first waits for every upload to reach
// a terminal status. A second Advance arriving while one is blocked there is
// a no-op, so repeated submits cannot double-navigate.
func (c *Controller) Advance(ctx context.Context, update StepUpdate) (draft.StepValidationResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return draft.StepValidationResult{}, apperrors.New(apperrors.CodeWizardSessionClosed, "posting session is closed")
	}
	if c.advancing {
		c.mu.Unlock()
		return draft.StepValidationResult{Valid: true}, nil
	}
	if c.step == draft.StepReview {
		c.mu.Unlock()
		return draft.StepValidationResult{}, apperrors.New(apperrors.CodeWizardStepBlocked, "the review step publishes instead of advancing")
	}
	if update.Step() != c.step {
		c.mu.Unlock()
		return draft.StepValidationResult{}, apperrors.WithMetadata(apperrors.CodeWizardStepBlocked, "update targets a different step", map[string]string{
			"current": draft.StepKey(c.step),
			"update":  draft.StepKey(update.Step()),
		})
	}

	update.apply(c.draft)
	c.syncAttachmentsLocked()
	today := draft.DateOf(c.clock())
	result := draft.ValidateStep(c.step, c.draft, today)
	if !result.Valid {
		c.mu.Unlock()
		return result, nil
	}

	if c.step == draft.StepDetails && c.uploads != nil {
		c.advancing = true
		// An attachment enqueued while the gate was briefly open re-arms the
		// wait, so the step never completes with a non-terminal attachment.
		for {
			c.mu.Unlock()
			err := c.uploads.Settle(ctx)
			c.mu.Lock()
			if err != nil {
				c.advancing = false
				c.mu.Unlock()
				return result, apperrors.Wrap(apperrors.CodeWizardStepBlocked, "waiting for uploads to finish", err)
			}
			if c.closed {
				c.advancing = false
				c.mu.Unlock()
				return result, apperrors.New(apperrors.CodeWizardSessionClosed, "posting session is closed")
			}
			c.syncAttachmentsLocked()
			if attachmentsSettled(c.draft.Attachments) {
				break
			}
		}
		c.advancing = false
	}

	c.step++
	c.mu.Unlock()
	return result, nil
}

func attachmentsSettled(atts []draft.Attachment) bool {
	for _, att := range atts {
		if !att.Status.Terminal() {
			return false
		}
	}
	return true
}

// Retreat moves one step back. It is always allowed and never discards
// entered data. The first step retreats to itself.
func (c *Controller) Retreat() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > draft.StepTitleSchedule {
		c.step--
	}
	return c.step
}

// Publish posts the draft. It is allowed only from the review step. On
// failure the draft is preserved unchanged so the poster can retry; on
// success the session closes.
func (c *Controller) Publish(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", apperrors.New(apperrors.CodeWizardSessionClosed, "posting session is closed")
	}
	if c.step != draft.StepReview {
		c.mu.Unlock()
		return "", apperrors.WithMetadata(apperrors.CodeWizardNotAtReview, "publishing requires the review step", map[string]string{
			"current": draft.StepKey(c.step),
		})
	}
	if c.publisher == nil {
		c.mu.Unlock()
		return "", apperrors.New(apperrors.CodeSubmissionFailed, "publisher is not configured")
	}
	c.syncAttachmentsLocked()
	snapshot := c.draft.Clone()
	c.mu.Unlock()

	_ = c.emitter.Emit(ctx, telemetry.Event{Kind: telemetry.KindPublishAttempted})

	taskID, err := c.publisher.Publish(ctx, snapshot)
	if err != nil {
		_ = c.emitter.Emit(ctx, telemetry.Event{Kind: telemetry.KindPublishFailed, Detail: err.Error()})
		return "", err
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	_ = c.emitter.Emit(ctx, telemetry.Event{Kind: telemetry.KindPublishSucceeded, EntityID: taskID})
	return taskID, nil
}

// Cancel abandons the session, releasing every attachment.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	uploads := c.uploads
	c.mu.Unlock()
	if uploads != nil {
		uploads.RemoveAll()
	}
}

// Progress reports per-step completion against the current draft. A step
// before the current one counts as complete when its validator still passes;
// the review step completes on publish.
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncAttachmentsLocked()

	today := draft.DateOf(c.clock())
	steps := make([]StepProgress, 0, draft.StepCount)
	var unmet []string
	allValid := true
	for step := draft.StepTitleSchedule; step <= draft.StepReview; step++ {
		result := draft.ValidateStep(step, c.draft, today)
		complete := result.Valid && step < c.step
		if step == draft.StepReview {
			complete = c.closed
		}
		if !result.Valid {
			allValid = false
			for _, code := range result.FieldErrors {
				unmet = append(unmet, string(code))
			}
		}
		steps = append(steps, StepProgress{
			Step:     step,
			Key:      draft.StepKey(step),
			Complete: complete,
		})
	}

	return Progress{
		Steps:        steps,
		NextStep:     c.step,
		Ready:        allValid && c.step == draft.StepReview,
		UnmetReasons: unmet,
	}
}
