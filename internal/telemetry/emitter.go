// Package telemetry records operational events emitted by the wizard's
// asynchronous collaborators.
package telemetry

import (
	"context"
	"time"
)

// Event kinds emitted by the posting wizard.
const (
	KindUploadFailed     = "upload_failed"
	KindUploadOrphaned   = "upload_orphaned"
	KindGeocodeDegraded  = "geocode_degraded"
	KindQuerySuperseded  = "geocode_query_superseded"
	KindPublishAttempted = "publish_attempted"
	KindPublishSucceeded = "publish_succeeded"
	KindPublishFailed    = "publish_failed"
)

// Event is one operational telemetry record.
type Event struct {
	Kind      string
	EntityID  string
	Detail    string
	Timestamp time.Time
}

// Store persists telemetry events.
type Store interface {
	AppendEvent(ctx context.Context, evt Event) error
}

// Emitter records operational telemetry events.
type Emitter struct {
	store Store
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store Store) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the emitter or its
// store is nil, so call sites never need to guard.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	return e.store.AppendEvent(ctx, evt)
}
