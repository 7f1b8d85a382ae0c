package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kazipost/kazipost/internal/geocode"
	"github.com/kazipost/kazipost/internal/platform/id"
	"github.com/kazipost/kazipost/internal/telemetry"
	"github.com/kazipost/kazipost/internal/upload"
	"github.com/kazipost/kazipost/internal/wizard"
)

// sessionCookie carries the posting session ID between requests.
const sessionCookie = "kazipost_wizard"

// session bundles the per-draft collaborators. Each posting session owns its
// own coordinator and resolver; the controller ties them together.
type session struct {
	id         string
	controller *wizard.Controller
	uploads    *upload.Coordinator
	resolver   *geocode.Resolver
	createdAt  time.Time
}

// sessionDeps are the collaborators shared across sessions.
type sessionDeps struct {
	media     upload.Store
	lookup    geocode.Lookup
	publisher wizard.Publisher
	emitter   *telemetry.Emitter
}

// registry tracks live posting sessions by ID.
type registry struct {
	mu       sync.Mutex
	deps     sessionDeps
	sessions map[string]*session
	clock    func() time.Time
}

func newRegistry(deps sessionDeps) *registry {
	return &registry{
		deps:     deps,
		sessions: make(map[string]*session),
		clock:    time.Now,
	}
}

// create starts a fresh posting session.
func (r *registry) create() (*session, error) {
	sessionID, err := id.NewID()
	if err != nil {
		return nil, fmt.Errorf("new session id: %w", err)
	}

	uploads := upload.NewCoordinator(r.deps.media, r.deps.emitter)
	resolver := geocode.NewResolver(r.deps.lookup, r.deps.emitter, 0)
	s := &session{
		id:         sessionID,
		controller: wizard.New(uploads, r.deps.publisher, r.deps.emitter),
		uploads:    uploads,
		resolver:   resolver,
		createdAt:  r.clock(),
	}

	r.mu.Lock()
	r.sessions[sessionID] = s
	r.mu.Unlock()
	return s, nil
}

// get returns the session for an ID, or nil.
func (r *registry) get(sessionID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID]
}

// drop removes a session and stops its resolver.
func (r *registry) drop(sessionID string) {
	r.mu.Lock()
	s := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if s != nil {
		s.resolver.Close()
	}
}

// fromRequest resolves the request's session cookie to a live session.
func (r *registry) fromRequest(req *http.Request) *session {
	cookie, err := req.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return r.get(cookie.Value)
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/post",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/post",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
