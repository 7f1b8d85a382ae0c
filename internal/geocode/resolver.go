package geocode

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kazipost/kazipost/internal/draft"
	"github.com/kazipost/kazipost/internal/telemetry"
)

const (
	// MinQueryLength is the shortest trimmed input that triggers a lookup.
	MinQueryLength = 3
	// DefaultQuietPeriod is how long input must be stable before a lookup
	// fires. A tuning knob, not a correctness contract.
	DefaultQuietPeriod = 300 * time.Millisecond
)

// Lookup is the provider surface the resolver queries. *Client satisfies it.
type Lookup interface {
	Autocomplete(ctx context.Context, query string) ([]draft.PlaceSuggestion, error)
	ResolvePlace(ctx context.Context, opaqueID string) (draft.Coordinates, error)
}

// Resolver debounces keystrokes into provider lookups and keeps the visible
// suggestion list consistent under out-of-order responses. Each Query bumps a
// generation counter; a response is applied only if its generation is still
// current, so stale results never overwrite newer ones.
type Resolver struct {
	mu          sync.Mutex
	lookup      Lookup
	emitter     *telemetry.Emitter
	quiet       time.Duration
	timer       *time.Timer
	gen         uint64
	suggestions []draft.PlaceSuggestion
	closed      bool
}

// NewResolver creates a resolver over the given provider. quiet <= 0 selects
// DefaultQuietPeriod. emitter may be nil.
func NewResolver(lookup Lookup, emitter *telemetry.Emitter, quiet time.Duration) *Resolver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Resolver{
		lookup:  lookup,
		emitter: emitter,
		quiet:   quiet,
	}
}

// Query registers a keystroke. Input shorter than MinQueryLength clears the
// suggestion list and issues no lookup; otherwise a lookup fires once the
// input has been stable for the quiet period. A newer Query supersedes any
// pending or in-flight lookup.
func (r *Resolver) Query(text string) {
	if r == nil {
		return
	}
	trimmed := strings.TrimSpace(text)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		r.suggestions = nil
		return
	}

	gen := r.gen
	r.timer = time.AfterFunc(r.quiet, func() {
		r.runLookup(gen, trimmed)
	})
}

// QueryNow performs a lookup immediately, skipping the quiet period. The
// min-length gate and generation ordering still apply. It returns the
// suggestion list now visible, which reflects a newer query if this one was
// superseded while in flight.
func (r *Resolver) QueryNow(ctx context.Context, text string) []draft.PlaceSuggestion {
	if r == nil {
		return nil
	}
	trimmed := strings.TrimSpace(text)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		r.suggestions = nil
		r.mu.Unlock()
		return nil
	}
	gen := r.gen
	r.mu.Unlock()

	r.fetchAndApply(ctx, gen, trimmed)
	return r.Suggestions()
}

// runLookup is the debounce timer's target.
func (r *Resolver) runLookup(gen uint64, query string) {
	r.fetchAndApply(context.Background(), gen, query)
}

func (r *Resolver) fetchAndApply(ctx context.Context, gen uint64, query string) {
	r.mu.Lock()
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	suggestions, err := r.lookup.Autocomplete(ctx, query)
	if err != nil {
		// Degrade to no suggestions; the typed text stays usable as the raw
		// address either way.
		log.Printf("geocode: autocomplete %q failed: %v", query, err)
		_ = r.emitter.Emit(context.Background(), telemetry.Event{
			Kind:   telemetry.KindGeocodeDegraded,
			Detail: err.Error(),
		})
		suggestions = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if gen != r.gen {
		_ = r.emitter.Emit(context.Background(), telemetry.Event{
			Kind:   telemetry.KindQuerySuperseded,
			Detail: query,
		})
		return
	}
	r.suggestions = suggestions
}

// Suggestions returns a copy of the currently visible suggestion list.
func (r *Resolver) Suggestions() []draft.PlaceSuggestion {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.suggestions) == 0 {
		return nil
	}
	out := make([]draft.PlaceSuggestion, len(r.suggestions))
	copy(out, r.suggestions)
	return out
}

// ResolveCoordinates resolves a selected suggestion into coordinates. A false
// result means resolution failed or the place is unknown; callers leave the
// draft's coordinates unset in that case.
func (r *Resolver) ResolveCoordinates(ctx context.Context, suggestion draft.PlaceSuggestion) (draft.Coordinates, bool) {
	if r == nil {
		return draft.Coordinates{}, false
	}
	coords, err := r.lookup.ResolvePlace(ctx, suggestion.OpaqueID)
	if err != nil {
		log.Printf("geocode: resolve place %q failed: %v", suggestion.OpaqueID, err)
		_ = r.emitter.Emit(context.Background(), telemetry.Event{
			Kind:     telemetry.KindGeocodeDegraded,
			EntityID: suggestion.OpaqueID,
			Detail:   err.Error(),
		})
		return draft.Coordinates{}, false
	}
	return coords, true
}

// Close stops any pending lookup and makes further queries no-ops.
func (r *Resolver) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.suggestions = nil
}
