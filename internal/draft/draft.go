// Package draft holds the task draft accumulated across the posting wizard
// and the per-step validation rules that gate forward navigation.
package draft

import (
	"fmt"
	"time"
)

// Wizard step numbers. The wizard moves strictly between StepTitleSchedule
// and StepReview.
const (
	StepTitleSchedule = 1
	StepLocation      = 2
	StepDetails       = 3
	StepBudget        = 4
	StepReview        = 5

	StepCount = 5
)

// StepKey returns the stable identifier for a step number.
func StepKey(step int) string {
	switch step {
	case StepTitleSchedule:
		return "title_schedule"
	case StepLocation:
		return "location"
	case StepDetails:
		return "details"
	case StepBudget:
		return "budget"
	case StepReview:
		return "review"
	default:
		return ""
	}
}

// ScheduleKind selects how the poster wants the task scheduled.
type ScheduleKind string

const (
	// ScheduleOn means the task must happen on the given date.
	ScheduleOn ScheduleKind = "on"
	// ScheduleBefore means the task must happen on or before the given date.
	ScheduleBefore ScheduleKind = "before"
	// ScheduleFlexible means any time works, optionally narrowed to a slot.
	ScheduleFlexible ScheduleKind = "flexible"
)

// TimeSlot narrows a flexible schedule to a part of the day.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
)

// CalendarDate is a civil date in the poster's local calendar. Comparing
// calendar dates avoids the UTC-shift pitfalls of comparing instants.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of the given instant in its location.
func DateOf(t time.Time) CalendarDate {
	year, month, day := t.Date()
	return CalendarDate{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(value string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Before reports whether d is strictly earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// String formats the date as YYYY-MM-DD. Zero dates format as the empty string.
func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Scheduling captures when the task should happen. Date is meaningful only
// for the on/before kinds; TimeOfDay only for flexible.
type Scheduling struct {
	Kind      ScheduleKind
	Date      CalendarDate
	TimeOfDay TimeSlot
}

// LocationMode distinguishes tasks that need a physical presence.
type LocationMode string

const (
	LocationInPerson LocationMode = "in-person"
	LocationOnline   LocationMode = "online"
)

// Coordinates is a geographic point resolved from a place suggestion.
type Coordinates struct {
	Lat float64
	Lng float64
}

// LocationSpec describes where the task happens. Coordinates are best-effort:
// they stay nil when resolution failed or was skipped, and that never blocks
// the wizard.
type LocationSpec struct {
	Mode        LocationMode
	Address     string
	Coordinates *Coordinates
}

// AttachmentStatus tracks one media file through its upload lifecycle.
type AttachmentStatus string

const (
	AttachmentPending   AttachmentStatus = "pending"
	AttachmentUploading AttachmentStatus = "uploading"
	AttachmentUploaded  AttachmentStatus = "uploaded"
	AttachmentFailed    AttachmentStatus = "failed"
)

// Terminal reports whether no further automatic transition occurs.
func (s AttachmentStatus) Terminal() bool {
	return s == AttachmentUploaded || s == AttachmentFailed
}

// Attachment is one media file attached to the draft.
//
// Exactly one of PreviewRef/RemoteURL is authoritative for display: the
// preview until the upload succeeds, the remote URL afterwards.
type Attachment struct {
	LocalID     string
	Status      AttachmentStatus
	PreviewRef  string
	RemoteURL   string
	Preexisting bool
}

// PlaceSuggestion is one autocomplete candidate. It lives only for the
// duration of the autocomplete interaction.
type PlaceSuggestion struct {
	Label    string
	OpaqueID string
}

// TaskDraft is the record accumulated across the wizard. Every field holds a
// well-defined default from construction so back-navigation always has
// something to render.
type TaskDraft struct {
	Title       string
	Scheduling  Scheduling
	Location    LocationSpec
	Description string
	Attachments []Attachment

	// BudgetInput is the raw budget text as entered; BudgetMinorUnits is its
	// parsed value. Keeping the raw text lets the budget step re-render what
	// the poster typed and distinguish empty from invalid input.
	BudgetInput      string
	BudgetMinorUnits int64
}

// New returns a draft with defaults for every field.
func New() *TaskDraft {
	return &TaskDraft{
		Scheduling: Scheduling{Kind: ScheduleFlexible},
		Location:   LocationSpec{Mode: LocationInPerson},
	}
}

// Clone returns a deep copy of the draft. The controller hands out clones so
// readers cannot mutate the owned record.
func (d *TaskDraft) Clone() *TaskDraft {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Location.Coordinates != nil {
		coords := *d.Location.Coordinates
		clone.Location.Coordinates = &coords
	}
	clone.Attachments = append([]Attachment(nil), d.Attachments...)
	return &clone
}

// UploadedImageURLs returns the remote URLs of every uploaded attachment in
// attachment order. Failed and in-flight attachments contribute nothing.
func (d *TaskDraft) UploadedImageURLs() []string {
	urls := make([]string, 0, len(d.Attachments))
	for _, att := range d.Attachments {
		if att.Status == AttachmentUploaded && att.RemoteURL != "" {
			urls = append(urls, att.RemoteURL)
		}
	}
	return urls
}
