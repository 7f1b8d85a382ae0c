// Package geocode resolves freeform address text into place suggestions and
// selected places into coordinates, via an external geocoding provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kazipost/kazipost/internal/draft"
	"github.com/kazipost/kazipost/internal/platform/timeouts"
)

// ErrPlaceNotFound reports that the provider no longer knows the opaque ID.
var ErrPlaceNotFound = errors.New("place not found")

// Client talks to the provider's autocomplete and place endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client for the given base URL. When
// httpClient is nil a default client with traced transport is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

type suggestionPayload struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

type placePayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Autocomplete returns the provider's ranked suggestions for the query text.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]draft.PlaceSuggestion, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("geocode client is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Geocode)
	defer cancel()

	endpoint := c.baseURL + "/autocomplete?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build autocomplete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("autocomplete %q: unexpected status %d", query, resp.StatusCode)
	}

	var payload []suggestionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode autocomplete response: %w", err)
	}

	suggestions := make([]draft.PlaceSuggestion, 0, len(payload))
	for _, s := range payload {
		if strings.TrimSpace(s.Label) == "" || strings.TrimSpace(s.ID) == "" {
			continue
		}
		suggestions = append(suggestions, draft.PlaceSuggestion{
			Label:    s.Label,
			OpaqueID: s.ID,
		})
	}
	return suggestions, nil
}

// ResolvePlace returns the coordinates behind a suggestion's opaque ID.
func (c *Client) ResolvePlace(ctx context.Context, opaqueID string) (draft.Coordinates, error) {
	if c == nil || c.baseURL == "" {
		return draft.Coordinates{}, fmt.Errorf("geocode client is not configured")
	}
	if strings.TrimSpace(opaqueID) == "" {
		return draft.Coordinates{}, fmt.Errorf("opaque id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Geocode)
	defer cancel()

	endpoint := c.baseURL + "/place?id=" + url.QueryEscape(opaqueID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return draft.Coordinates{}, fmt.Errorf("build place request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return draft.Coordinates{}, fmt.Errorf("resolve place %q: %w", opaqueID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return draft.Coordinates{}, ErrPlaceNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return draft.Coordinates{}, fmt.Errorf("resolve place %q: unexpected status %d", opaqueID, resp.StatusCode)
	}

	var payload placePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return draft.Coordinates{}, fmt.Errorf("decode place response: %w", err)
	}
	return draft.Coordinates{Lat: payload.Lat, Lng: payload.Lng}, nil
}
