package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// htmxHeader is the request header htmx sets on partial updates.
const htmxHeader = "HX-Request"

func isHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(htmxHeader), "true")
}

// renderPage writes the fragment for htmx requests and the full page
// otherwise.
func renderPage(w http.ResponseWriter, r *http.Request, status int, fragment, full templ.Component) {
	target := full
	if isHTMXRequest(r) && fragment != nil {
		target = fragment
	}
	if target == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := target.Render(r.Context(), w); err != nil {
		log.Printf("render page: %v", err)
	}
}
