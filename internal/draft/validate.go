package draft

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/kazipost/kazipost/internal/platform/errors"
)

// Form field names reported by validators. The web layer uses them to
// highlight offending inputs.
const (
	FieldTitle       = "title"
	FieldDate        = "date"
	FieldAddress     = "address"
	FieldDescription = "description"
	FieldBudget      = "budget"
)

// DescriptionMinLength is the minimum trimmed description length. A product
// rule: 24 characters is rejected, 25 is accepted.
const DescriptionMinLength = 25

// BudgetMaxMajorUnits caps the accepted budget. Anything above it is junk
// input rather than a real budget, and the cap keeps the minor-unit
// conversion far away from int64 range.
const BudgetMaxMajorUnits = 100_000_000

// StepValidationResult reports every violated field of one step at once, so
// the UI can highlight all of them simultaneously. Field errors carry codes;
// rendering them as text is the i18n layer's concern.
type StepValidationResult struct {
	Valid       bool
	FieldErrors map[string]apperrors.Code
}

func valid() StepValidationResult {
	return StepValidationResult{Valid: true}
}

func invalid(fieldErrors map[string]apperrors.Code) StepValidationResult {
	return StepValidationResult{Valid: len(fieldErrors) == 0, FieldErrors: fieldErrors}
}

// ValidateTitleSchedule checks the title/date step: non-empty trimmed title,
// and for dated schedules a date that is today or later in the poster's
// local calendar.
func ValidateTitleSchedule(d *TaskDraft, today CalendarDate) StepValidationResult {
	fieldErrors := map[string]apperrors.Code{}

	if strings.TrimSpace(d.Title) == "" {
		fieldErrors[FieldTitle] = apperrors.CodeDraftTitleEmpty
	}

	switch d.Scheduling.Kind {
	case ScheduleOn, ScheduleBefore:
		if d.Scheduling.Date.IsZero() {
			fieldErrors[FieldDate] = apperrors.CodeDraftDateMissing
		} else if d.Scheduling.Date.Before(today) {
			fieldErrors[FieldDate] = apperrors.CodeDraftDateInPast
		}
	}

	return invalid(fieldErrors)
}

// ValidateLocation checks the location step: in-person tasks need a
// non-empty trimmed address, online tasks are always valid. Coordinates are
// never required.
func ValidateLocation(d *TaskDraft) StepValidationResult {
	if d.Location.Mode == LocationOnline {
		return valid()
	}
	if strings.TrimSpace(d.Location.Address) == "" {
		return invalid(map[string]apperrors.Code{FieldAddress: apperrors.CodeDraftAddressEmpty})
	}
	return valid()
}

// ValidateDetails checks the details step: a trimmed description of at least
// DescriptionMinLength characters. Attachment state is not consulted here;
// the controller gates on in-flight uploads separately and failed uploads
// never block.
func ValidateDetails(d *TaskDraft) StepValidationResult {
	trimmed := strings.TrimSpace(d.Description)
	if trimmed == "" {
		return invalid(map[string]apperrors.Code{FieldDescription: apperrors.CodeDraftDescriptionEmpty})
	}
	if len([]rune(trimmed)) < DescriptionMinLength {
		return invalid(map[string]apperrors.Code{FieldDescription: apperrors.CodeDraftDescriptionTooShort})
	}
	return valid()
}

// ValidateBudget checks the budget step against the raw input text. Empty
// input is reported distinctly from non-numeric and negative input. Zero is
// a valid budget.
func ValidateBudget(d *TaskDraft) StepValidationResult {
	_, code := ParseBudget(d.BudgetInput)
	if code == apperrors.CodeUnknown {
		return valid()
	}
	return invalid(map[string]apperrors.Code{FieldBudget: code})
}

// ValidateReview never fails: the prior four validators are the gate for
// reaching the review step.
func ValidateReview(d *TaskDraft) StepValidationResult {
	return valid()
}

// ValidateStep dispatches to the validator owning the given step. today is
// consulted only by the title/date step.
func ValidateStep(step int, d *TaskDraft, today CalendarDate) StepValidationResult {
	switch step {
	case StepTitleSchedule:
		return ValidateTitleSchedule(d, today)
	case StepLocation:
		return ValidateLocation(d)
	case StepDetails:
		return ValidateDetails(d)
	case StepBudget:
		return ValidateBudget(d)
	case StepReview:
		return ValidateReview(d)
	default:
		return valid()
	}
}

// ParseBudget parses raw budget text into minor units (cents). It returns
// CodeUnknown when the input parses cleanly, otherwise the code naming what
// is wrong: required, not a number, negative, or beyond the cap.
func ParseBudget(raw string) (int64, apperrors.Code) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, apperrors.CodeBudgetRequired
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, apperrors.CodeBudgetNotANumber
	}
	if value < 0 {
		return 0, apperrors.CodeBudgetNegative
	}
	if value > BudgetMaxMajorUnits {
		return 0, apperrors.CodeBudgetTooLarge
	}
	return int64(math.Round(value * 100)), apperrors.CodeUnknown
}
