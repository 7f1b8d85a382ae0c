// Package templates renders the posting wizard's pages and htmx fragments.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/kazipost/kazipost/internal/draft"
	"github.com/kazipost/kazipost/internal/wizard"
)

// StepView is the data one wizard step needs to render.
type StepView struct {
	Step        int
	Draft       *draft.TaskDraft
	FieldErrors map[string]string
	Progress    wizard.Progress
	Banner      string
}

func esc(s string) string {
	return html.EscapeString(s)
}

func write(w io.Writer, parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(w, part); err != nil {
			return err
		}
	}
	return nil
}

func fieldError(view StepView, field string) string {
	msg, ok := view.FieldErrors[field]
	if !ok {
		return ""
	}
	return `<p class="field-error">` + esc(msg) + `</p>`
}

func checked(cond bool) string {
	if cond {
		return ` checked`
	}
	return ""
}

func selectedMode(view StepView, mode draft.LocationMode) string {
	return checked(view.Draft.Location.Mode == mode)
}

// Page wraps a wizard fragment in the full document shell.
func Page(view StepView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<title>Post a task</title>`,
			`<script src="https://unpkg.com/htmx.org@1.9.12" integrity="sha384-ujb1lZYygJmzgSwoxRggbCHcjc0rB2XoQrxeTUQyRjrOnlCoYta87iKBWq3EsdM2" crossorigin="anonymous"></script>`,
			`</head><body><main id="wizard">`,
		); err != nil {
			return err
		}
		if err := StepFragment(view).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// StepFragment renders the form for the view's step, with the progress rail.
func StepFragment(view StepView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section class="wizard-step" data-step="`, fmt.Sprint(view.Step), `">`); err != nil {
			return err
		}
		if err := progressRail(view.Progress).Render(ctx, w); err != nil {
			return err
		}
		if view.Banner != "" {
			if err := write(w, `<div class="banner" role="alert">`, esc(view.Banner), `</div>`); err != nil {
				return err
			}
		}
		var body templ.Component
		switch view.Step {
		case draft.StepTitleSchedule:
			body = titleScheduleForm(view)
		case draft.StepLocation:
			body = locationForm(view)
		case draft.StepDetails:
			body = detailsForm(view)
		case draft.StepBudget:
			body = budgetForm(view)
		case draft.StepReview:
			body = reviewPanel(view)
		default:
			body = templ.ComponentFunc(func(context.Context, io.Writer) error { return nil })
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</section>`)
	})
}

func progressRail(progress wizard.Progress) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<ol class="progress">`); err != nil {
			return err
		}
		for _, step := range progress.Steps {
			class := "pending"
			if step.Complete {
				class = "complete"
			}
			if step.Step == progress.NextStep {
				class = "current"
			}
			if err := write(w, `<li class="`, class, `">`, esc(step.Key), `</li>`); err != nil {
				return err
			}
		}
		return write(w, `</ol>`)
	})
}

func stepForm(view StepView, inner func(ctx context.Context, w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<form hx-post="/post/step" hx-target="#wizard">`,
			`<input type="hidden" name="step" value="`, fmt.Sprint(view.Step), `">`,
		); err != nil {
			return err
		}
		if err := inner(ctx, w); err != nil {
			return err
		}
		if err := write(w, `<button type="submit">Continue</button>`); err != nil {
			return err
		}
		if view.Step > draft.StepTitleSchedule {
			if err := write(w, `<button type="submit" formaction="/post/back" formnovalidate>Back</button>`); err != nil {
				return err
			}
		}
		return write(w, `</form>`)
	})
}

func titleScheduleForm(view StepView) templ.Component {
	d := view.Draft
	return stepForm(view, func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<label>What do you need done?`,
			`<input name="title" value="`, esc(d.Title), `"></label>`,
			fieldError(view, draft.FieldTitle),
			`<fieldset><legend>When?</legend>`,
			`<label><input type="radio" name="scheduleKind" value="on"`, checked(d.Scheduling.Kind == draft.ScheduleOn), `> On date</label>`,
			`<label><input type="radio" name="scheduleKind" value="before"`, checked(d.Scheduling.Kind == draft.ScheduleBefore), `> Before date</label>`,
			`<label><input type="radio" name="scheduleKind" value="flexible"`, checked(d.Scheduling.Kind == draft.ScheduleFlexible), `> I'm flexible</label>`,
			`<input type="date" name="date" value="`, esc(d.Scheduling.Date.String()), `">`,
			fieldError(view, draft.FieldDate),
			`<select name="timeOfDay">`,
			`<option value="">Any time</option>`,
			timeSlotOption(d, draft.TimeSlotMorning, "Morning"),
			timeSlotOption(d, draft.TimeSlotAfternoon, "Afternoon"),
			timeSlotOption(d, draft.TimeSlotEvening, "Evening"),
			`</select>`,
			`</fieldset>`,
		)
	})
}

func timeSlotOption(d *draft.TaskDraft, slot draft.TimeSlot, label string) string {
	selected := ""
	if d.Scheduling.TimeOfDay == slot {
		selected = ` selected`
	}
	return `<option value="` + string(slot) + `"` + selected + `>` + label + `</option>`
}

func locationForm(view StepView) templ.Component {
	d := view.Draft
	return stepForm(view, func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<fieldset><legend>Where?</legend>`,
			`<label><input type="radio" name="mode" value="in-person"`, selectedMode(view, draft.LocationInPerson), `> In person</label>`,
			`<label><input type="radio" name="mode" value="online"`, selectedMode(view, draft.LocationOnline), `> Online</label>`,
			`</fieldset>`,
			`<label>Address`,
			`<input name="address" value="`, esc(d.Location.Address), `"`,
			` hx-get="/post/suggestions" hx-trigger="keyup changed delay:300ms" hx-target="#suggestions" hx-vals="js:{q: event.target.value}">`,
			`</label>`,
			fieldError(view, draft.FieldAddress),
			`<div id="suggestions"></div>`,
			`<input type="hidden" name="placeId" value="">`,
		)
	})
}

// SuggestionList is the autocomplete dropdown fragment.
func SuggestionList(suggestions []draft.PlaceSuggestion) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(suggestions) == 0 {
			return write(w, `<ul class="suggestions"></ul>`)
		}
		if err := write(w, `<ul class="suggestions">`); err != nil {
			return err
		}
		for _, s := range suggestions {
			if err := write(w,
				`<li><button type="button" hx-post="/post/location/select" hx-target="#wizard"`,
				` hx-vals='{"placeId":"`, esc(s.OpaqueID), `","label":"`, esc(s.Label), `"}'>`,
				esc(s.Label), `</button></li>`,
			); err != nil {
				return err
			}
		}
		return write(w, `</ul>`)
	})
}

func detailsForm(view StepView) templ.Component {
	d := view.Draft
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		form := stepForm(view, func(ctx context.Context, w io.Writer) error {
			return write(w,
				`<label>Describe the task`,
				`<textarea name="description">`, esc(d.Description), `</textarea></label>`,
				fieldError(view, draft.FieldDescription),
			)
		})
		if err := form.Render(ctx, w); err != nil {
			return err
		}
		if err := write(w,
			`<form hx-post="/post/attachments" hx-target="#attachments" hx-encoding="multipart/form-data">`,
			`<input type="file" name="image" accept="image/*">`,
			`<button type="submit">Add photo</button></form>`,
			`<div id="attachments">`,
		); err != nil {
			return err
		}
		if err := AttachmentList(d.Attachments).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</div>`)
	})
}

// AttachmentList is the photo grid fragment, re-rendered as uploads move.
func AttachmentList(attachments []draft.Attachment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<ul class="attachments">`); err != nil {
			return err
		}
		for _, att := range attachments {
			src := att.RemoteURL
			if src == "" {
				src = att.PreviewRef
			}
			if err := write(w,
				`<li class="attachment `, string(att.Status), `" data-local-id="`, esc(att.LocalID), `">`,
				`<img src="`, esc(src), `" alt="">`,
				`<span class="status">`, string(att.Status), `</span>`,
				`<button type="button" hx-post="/post/attachments/`, esc(att.LocalID), `/remove" hx-target="#attachments">Remove</button>`,
				`</li>`,
			); err != nil {
				return err
			}
		}
		return write(w, `</ul>`)
	})
}

func budgetForm(view StepView) templ.Component {
	d := view.Draft
	return stepForm(view, func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<label>What is your budget?`,
			`<input name="budget" inputmode="decimal" value="`, esc(d.BudgetInput), `"></label>`,
			fieldError(view, draft.FieldBudget),
		)
	})
}

func reviewPanel(view StepView) templ.Component {
	d := view.Draft
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		schedule := string(d.Scheduling.Kind)
		if !d.Scheduling.Date.IsZero() {
			schedule += " " + d.Scheduling.Date.String()
		}
		where := "Online"
		if d.Location.Mode == draft.LocationInPerson {
			where = d.Location.Address
		}
		if err := write(w,
			`<dl class="review">`,
			`<dt>Task</dt><dd>`, esc(d.Title), `</dd>`,
			`<dt>When</dt><dd>`, esc(schedule), `</dd>`,
			`<dt>Where</dt><dd>`, esc(where), `</dd>`,
			`<dt>Details</dt><dd>`, esc(d.Description), `</dd>`,
			`<dt>Budget</dt><dd>`, esc(d.BudgetInput), `</dd>`,
			`<dt>Photos</dt><dd>`, fmt.Sprint(len(d.UploadedImageURLs())), `</dd>`,
			`</dl>`,
			`<form hx-post="/post/publish" hx-target="#wizard">`,
			`<button type="submit">Post task</button>`,
			`<button type="submit" formaction="/post/back" formnovalidate>Back</button>`,
			`</form>`,
			`<form hx-post="/post/cancel" hx-target="#wizard">`,
			`<button type="submit" class="cancel">Discard draft</button></form>`,
		); err != nil {
			return err
		}
		return nil
	})
}

// Published confirms the created task.
func Published(taskID string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<section class="published"><h1>Your task is live</h1>`,
			`<p data-task-id="`, esc(taskID), `">Task `, esc(taskID), ` has been posted.</p>`,
			`<a href="/post">Post another task</a></section>`,
		)
	})
}

// Cancelled confirms a discarded draft.
func Cancelled() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<section class="cancelled"><h1>Draft discarded</h1>`,
			`<a href="/post">Start a new task</a></section>`,
		)
	})
}

// PublishedPage and CancelledPage wrap the fragments for non-htmx requests.
func PublishedPage(taskID string) templ.Component {
	return pageShell(Published(taskID))
}

func CancelledPage() templ.Component {
	return pageShell(Cancelled())
}

func pageShell(body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<title>Post a task</title></head><body><main id="wizard">`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}
