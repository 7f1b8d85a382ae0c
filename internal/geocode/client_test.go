package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAutocompleteParsesSuggestions(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/autocomplete" {
			t.Errorf("path = %s, want /autocomplete", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"label":"Westlands, Nairobi","id":"p1"},
			{"label":"","id":"p2"},
			{"label":"Westlands Road","id":"p3"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	suggestions, err := client.Autocomplete(context.Background(), "westlands")
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if gotQuery != "westlands" {
		t.Fatalf("query = %q, want %q", gotQuery, "westlands")
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions after dropping the blank one, got %d", len(suggestions))
	}
	if suggestions[0].Label != "Westlands, Nairobi" || suggestions[0].OpaqueID != "p1" {
		t.Fatalf("first suggestion = %+v", suggestions[0])
	}
}

func TestAutocompleteRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	if _, err := client.Autocomplete(context.Background(), "westlands"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestResolvePlaceParsesCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/place" {
			t.Errorf("path = %s, want /place", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "p1" {
			t.Errorf("id = %q, want %q", got, "p1")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"lat":-1.2635,"lng":36.8047}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	coords, err := client.ResolvePlace(context.Background(), "p1")
	if err != nil {
		t.Fatalf("resolve place: %v", err)
	}
	if coords.Lat != -1.2635 || coords.Lng != 36.8047 {
		t.Fatalf("coords = %+v", coords)
	}
}

func TestResolvePlaceNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	if _, err := client.ResolvePlace(context.Background(), "gone"); !errors.Is(err, ErrPlaceNotFound) {
		t.Fatalf("err = %v, want ErrPlaceNotFound", err)
	}
}

func TestResolvePlaceRequiresID(t *testing.T) {
	client := NewClient("http://unused.example", nil)
	if _, err := client.ResolvePlace(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank id")
	}
}
