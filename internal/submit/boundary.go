// Package submit assembles a completed draft into the task-creation payload
// and posts it to the task service.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kazipost/kazipost/internal/draft"
	apperrors "github.com/kazipost/kazipost/internal/platform/errors"
	"github.com/kazipost/kazipost/internal/platform/timeouts"
)

// Payload is the task-creation request body.
type Payload struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	WorkMode         string   `json:"workMode"`
	BudgetMinorUnits int64    `json:"budgetMinorUnits"`
	ImageURLs        []string `json:"imageUrls"`
	ScheduleKind     string   `json:"scheduleKind"`
	ScheduleDate     string   `json:"scheduleDate,omitempty"`
	TimeOfDay        string   `json:"timeOfDay,omitempty"`
	Address          string   `json:"address,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
}

type ack struct {
	TaskID string `json:"taskId"`
}

// Boundary posts assembled payloads to the task-creation endpoint.
type Boundary struct {
	endpoint   string
	httpClient *http.Client
}

// NewBoundary creates a boundary for the given endpoint URL. When httpClient
// is nil a default client with traced transport is used.
func NewBoundary(endpoint string, httpClient *http.Client) *Boundary {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Boundary{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: httpClient,
	}
}

// BuildPayload assembles the request body from a draft. The wizard validates
// each step before the draft ever gets here, so failures are internal errors,
// not user-facing validation; obviously incomplete drafts are rejected rather
// than posted.
func BuildPayload(d *draft.TaskDraft) (Payload, error) {
	if d == nil {
		return Payload{}, apperrors.New(apperrors.CodeDraftIncomplete, "draft is nil")
	}
	if strings.TrimSpace(d.Title) == "" {
		return Payload{}, apperrors.New(apperrors.CodeDraftIncomplete, "draft has no title")
	}
	if strings.TrimSpace(d.Description) == "" {
		return Payload{}, apperrors.New(apperrors.CodeDraftIncomplete, "draft has no description")
	}
	if d.Location.Mode == draft.LocationInPerson && strings.TrimSpace(d.Location.Address) == "" {
		return Payload{}, apperrors.New(apperrors.CodeDraftIncomplete, "in-person draft has no address")
	}
	if d.BudgetMinorUnits < 0 {
		return Payload{}, apperrors.New(apperrors.CodeDraftIncomplete, "draft has a negative budget")
	}

	p := Payload{
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		WorkMode:         string(d.Location.Mode),
		BudgetMinorUnits: d.BudgetMinorUnits,
		ImageURLs:        d.UploadedImageURLs(),
		ScheduleKind:     string(d.Scheduling.Kind),
	}

	switch d.Scheduling.Kind {
	case draft.ScheduleOn, draft.ScheduleBefore:
		p.ScheduleDate = d.Scheduling.Date.String()
	case draft.ScheduleFlexible:
		p.TimeOfDay = string(d.Scheduling.TimeOfDay)
	}

	if d.Location.Mode == draft.LocationInPerson {
		p.Address = strings.TrimSpace(d.Location.Address)
		if coords := d.Location.Coordinates; coords != nil {
			lat, lng := coords.Lat, coords.Lng
			p.Lat = &lat
			p.Lng = &lng
		}
	}

	return p, nil
}

// Publish posts the draft exactly once and returns the created task's ID.
// Any transport or server failure comes back as a submission error; the
// caller's draft is untouched either way, so retrying is always safe.
func (b *Boundary) Publish(ctx context.Context, d *draft.TaskDraft) (string, error) {
	if b == nil || b.endpoint == "" {
		return "", apperrors.New(apperrors.CodeSubmissionFailed, "task endpoint is not configured")
	}

	payload, err := BuildPayload(d)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSubmissionFailed, "encode task payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Submission)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSubmissionFailed, "build task request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSubmissionFailed, "post task", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", apperrors.New(apperrors.CodeSubmissionFailed, fmt.Sprintf("task endpoint returned status %d", resp.StatusCode))
	}

	var parsed ack
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.Wrap(apperrors.CodeSubmissionFailed, "decode task response", err)
	}
	if strings.TrimSpace(parsed.TaskID) == "" {
		return "", apperrors.New(apperrors.CodeSubmissionFailed, "task response carried no id")
	}
	return parsed.TaskID, nil
}
