// Package timeouts defines shared timeout constants used across the wizard's
// outbound collaborators. Centralizing these values prevents drift between
// call sites and makes the durations discoverable.
package timeouts

import "time"

// MediaUpload caps the time allowed for a single attachment upload request.
const MediaUpload = 30 * time.Second

// MediaDelete caps the time allowed for a compensating remote-delete call.
const MediaDelete = 10 * time.Second

// Geocode caps the time allowed for an autocomplete or place resolution
// lookup. Lookups are best-effort, so this stays short.
const Geocode = 5 * time.Second

// Submission caps the time allowed for the task-creation request.
const Submission = 15 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
