// Package web is the browser-facing surface of the posting wizard. Each
// posting session lives behind a cookie; htmx swaps step fragments in place.
package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/message"

	"github.com/kazipost/kazipost/internal/draft"
	apperrors "github.com/kazipost/kazipost/internal/platform/errors"
	"github.com/kazipost/kazipost/internal/platform/i18n"
	"github.com/kazipost/kazipost/internal/web/templates"
	"github.com/kazipost/kazipost/internal/wizard"
)

// maxUploadBytes bounds one attachment's payload.
const maxUploadBytes = 10 << 20

// Handler serves the wizard routes.
type Handler struct {
	registry *registry
}

// newHandler builds the wizard's route mux over the given collaborators.
func newHandler(deps sessionDeps) http.Handler {
	h := &Handler{registry: newRegistry(deps)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /post", h.startSession)
	mux.HandleFunc("GET /post/step", h.showStep)
	mux.HandleFunc("POST /post/step", h.advanceStep)
	mux.HandleFunc("POST /post/back", h.retreatStep)
	mux.HandleFunc("POST /post/attachments", h.addAttachment)
	mux.HandleFunc("POST /post/attachments/{id}/remove", h.removeAttachment)
	mux.HandleFunc("GET /post/suggestions", h.suggestions)
	mux.HandleFunc("POST /post/location/select", h.selectPlace)
	mux.HandleFunc("POST /post/publish", h.publish)
	mux.HandleFunc("POST /post/cancel", h.cancel)
	return mux
}

func printerFor(r *http.Request) *message.Printer {
	locale := strings.TrimSpace(r.URL.Query().Get("lang"))
	if locale == "" {
		if cookie, err := r.Cookie("lang"); err == nil {
			locale = cookie.Value
		}
	}
	if locale == "" {
		accepted := r.Header.Get("Accept-Language")
		locale = strings.TrimSpace(strings.Split(strings.Split(accepted, ",")[0], ";")[0])
	}
	return i18n.Printer(locale)
}

// view assembles the render data for the session's current step.
func view(s *session, fieldErrors map[string]apperrors.Code, banner string, p *message.Printer) templates.StepView {
	rendered := make(map[string]string, len(fieldErrors))
	for field, code := range fieldErrors {
		rendered[field] = i18n.ErrorMessage(p, code)
	}
	return templates.StepView{
		Step:        s.controller.Step(),
		Draft:       s.controller.Draft(),
		FieldErrors: rendered,
		Progress:    s.controller.Progress(),
		Banner:      banner,
	}
}

func (h *Handler) renderStep(w http.ResponseWriter, r *http.Request, s *session, status int, fieldErrors map[string]apperrors.Code, banner string) {
	v := view(s, fieldErrors, banner, printerFor(r))
	renderPage(w, r, status, templates.StepFragment(v), templates.Page(v))
}

// sessionOrGone resolves the request's session, answering 410 when it is
// missing or already closed.
func (h *Handler) sessionOrGone(w http.ResponseWriter, r *http.Request) *session {
	s := h.registry.fromRequest(r)
	if s == nil || s.controller.Closed() {
		p := printerFor(r)
		msg := i18n.ErrorMessage(p, apperrors.CodeWizardSessionClosed)
		http.Error(w, msg, http.StatusGone)
		return nil
	}
	return s
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.create()
	if err != nil {
		http.Error(w, "could not start a posting session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, s.id)
	http.Redirect(w, r, "/post/step", http.StatusSeeOther)
}

func (h *Handler) showStep(w http.ResponseWriter, r *http.Request) {
	s := h.registry.fromRequest(r)
	if s == nil || s.controller.Closed() {
		http.Redirect(w, r, "/post", http.StatusSeeOther)
		return
	}
	h.renderStep(w, r, s, http.StatusOK, nil, "")
}

// parseStepUpdate maps one step's form fields to its update.
func parseStepUpdate(step int, r *http.Request) (wizard.StepUpdate, error) {
	switch step {
	case draft.StepTitleSchedule:
		kind := draft.ScheduleKind(r.FormValue("scheduleKind"))
		switch kind {
		case draft.ScheduleOn, draft.ScheduleBefore, draft.ScheduleFlexible:
		default:
			kind = draft.ScheduleFlexible
		}
		var date draft.CalendarDate
		if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
			if parsed, err := draft.ParseDate(raw); err == nil {
				date = parsed
			}
		}
		return wizard.TitleScheduleUpdate{
			Title: r.FormValue("title"),
			Scheduling: draft.Scheduling{
				Kind:      kind,
				Date:      date,
				TimeOfDay: draft.TimeSlot(r.FormValue("timeOfDay")),
			},
		}, nil

	case draft.StepLocation:
		mode := draft.LocationMode(r.FormValue("mode"))
		if mode != draft.LocationOnline {
			mode = draft.LocationInPerson
		}
		loc := draft.LocationSpec{Mode: mode, Address: r.FormValue("address")}
		if mode == draft.LocationInPerson {
			lat, latErr := strconv.ParseFloat(r.FormValue("lat"), 64)
			lng, lngErr := strconv.ParseFloat(r.FormValue("lng"), 64)
			if latErr == nil && lngErr == nil {
				loc.Coordinates = &draft.Coordinates{Lat: lat, Lng: lng}
			}
		}
		return wizard.LocationUpdate{Location: loc}, nil

	case draft.StepDetails:
		return wizard.DetailsUpdate{Description: r.FormValue("description")}, nil

	case draft.StepBudget:
		return wizard.BudgetUpdate{Input: r.FormValue("budget")}, nil

	default:
		return nil, fmt.Errorf("step %d has no form", step)
	}
}

func (h *Handler) advanceStep(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	step, err := strconv.Atoi(r.FormValue("step"))
	if err != nil {
		step = s.controller.Step()
	}
	update, err := parseStepUpdate(step, r)
	if err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	result, err := s.controller.Advance(r.Context(), update)
	if err != nil {
		code := apperrors.GetCode(err)
		banner := i18n.ErrorMessage(printerFor(r), code)
		h.renderStep(w, r, s, code.HTTPStatus(), nil, banner)
		return
	}
	if !result.Valid {
		h.renderStep(w, r, s, http.StatusUnprocessableEntity, result.FieldErrors, "")
		return
	}
	h.renderStep(w, r, s, http.StatusOK, nil, "")
}

func (h *Handler) retreatStep(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	if err := r.ParseForm(); err == nil {
		// Keep whatever was typed before stepping back.
		if step, convErr := strconv.Atoi(r.FormValue("step")); convErr == nil {
			if update, parseErr := parseStepUpdate(step, r); parseErr == nil && step == s.controller.Step() {
				_ = s.controller.Save(update)
			}
		}
	}
	s.controller.Retreat()
	h.renderStep(w, r, s, http.StatusOK, nil, "")
}

func (h *Handler) addAttachment(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read image", http.StatusBadRequest)
		return
	}
	if _, err := s.uploads.Enqueue(header.Filename, content); err != nil {
		http.Error(w, "could not queue upload", http.StatusInternalServerError)
		return
	}
	h.renderAttachments(w, r, s)
}

func (h *Handler) removeAttachment(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	s.uploads.Remove(r.PathValue("id"))
	h.renderAttachments(w, r, s)
}

func (h *Handler) renderAttachments(w http.ResponseWriter, r *http.Request, s *session) {
	fragment := templates.AttachmentList(s.uploads.Snapshot())
	renderPage(w, r, http.StatusOK, fragment, fragment)
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	results := s.resolver.QueryNow(r.Context(), r.URL.Query().Get("q"))
	fragment := templates.SuggestionList(results)
	renderPage(w, r, http.StatusOK, fragment, fragment)
}

func (h *Handler) selectPlace(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	// A suggestion click from a stale tab must not touch the draft once the
	// session has moved past the location step.
	if s.controller.Step() != draft.StepLocation {
		code := apperrors.CodeWizardStepBlocked
		http.Error(w, i18n.ErrorMessage(printerFor(r), code), code.HTTPStatus())
		return
	}
	suggestion := draft.PlaceSuggestion{
		Label:    r.FormValue("label"),
		OpaqueID: r.FormValue("placeId"),
	}

	loc := draft.LocationSpec{Mode: draft.LocationInPerson, Address: suggestion.Label}
	// Coordinates are best-effort; the address alone keeps the step valid.
	if coords, ok := s.resolver.ResolveCoordinates(r.Context(), suggestion); ok {
		loc.Coordinates = &coords
	}
	if err := s.controller.Save(wizard.LocationUpdate{Location: loc}); err != nil {
		code := apperrors.GetCode(err)
		http.Error(w, i18n.ErrorMessage(printerFor(r), code), code.HTTPStatus())
		return
	}
	h.renderStep(w, r, s, http.StatusOK, nil, "")
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	taskID, err := s.controller.Publish(r.Context())
	if err != nil {
		code := apperrors.GetCode(err)
		banner := i18n.ErrorMessage(printerFor(r), code)
		h.renderStep(w, r, s, code.HTTPStatus(), nil, banner)
		return
	}

	h.registry.drop(s.id)
	clearSessionCookie(w)
	renderPage(w, r, http.StatusOK, templates.Published(taskID), templates.PublishedPage(taskID))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	s := h.sessionOrGone(w, r)
	if s == nil {
		return
	}
	s.controller.Cancel()
	h.registry.drop(s.id)
	clearSessionCookie(w)
	renderPage(w, r, http.StatusOK, templates.Cancelled(), templates.CancelledPage())
}
