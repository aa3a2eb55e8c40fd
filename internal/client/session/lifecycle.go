// Package session decides, on every route entry, whether the current
// process session may keep its authentication state. A fresh session
// (no session-scoped marker yet) entering a protected route is forced to
// log in again; in-session navigation keeps the session. A short-lived
// grace flag set right after login suppresses exactly one forced logout,
// so the manager cannot undo the login it just observed.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/YaniYesh22/snot/internal/client/auth"
	"github.com/YaniYesh22/snot/internal/client/storage"
	"github.com/YaniYesh22/snot/internal/logging"
)

// State of the lifecycle state machine. Each Evaluate call walks
// StateUninitialized -> StateChecking -> a terminal state.
type State int

const (
	StateUninitialized State = iota
	StateChecking
	StateAuthorized
	StateRedirectingToLogin
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateRedirectingToLogin:
		return "redirecting-to-login"
	default:
		return "unknown"
	}
}

// Decision is the terminal outcome of one evaluation. Redirect is set only
// for StateRedirectingToLogin; the caller must render nothing and navigate.
type Decision struct {
	State    State
	Redirect string
}

// gateway is the slice of auth.Gateway the manager needs.
type gateway interface {
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*auth.Session, error)
}

// identityCache is the slice of auth.IdentityCache the manager needs.
type identityCache interface {
	Clear(ctx context.Context) error
}

// Manager evaluates the session lifecycle once per route entry.
type Manager struct {
	gateway  gateway
	identity identityCache
	sessions storage.Port
	log      logging.Logger

	loginRoute  string
	allowExact  []string
	allowPrefix []string

	now func() time.Time
}

// NewManager builds a Manager. sessions must be the session-scoped store:
// its contents survive in-app navigation but not a process restart.
func NewManager(gw gateway, identity identityCache, sessions storage.Port, log logging.Logger) *Manager {
	return &Manager{
		gateway:     gw,
		identity:    identity,
		sessions:    sessions,
		log:         log,
		loginRoute:  "/",
		allowExact:  []string{"/"},
		allowPrefix: []string{"/debug", "/notebook/"},
		now:         time.Now,
	}
}

// MarkJustLoggedIn arms the grace flag. The next Evaluate consumes it and
// skips the forced-logout check exactly once.
func (m *Manager) MarkJustLoggedIn(ctx context.Context) error {
	return m.sessions.Set(ctx, storage.KeyJustLoggedIn, []byte("true"))
}

// Evaluate runs the state machine for one route entry.
func (m *Manager) Evaluate(ctx context.Context, route string) Decision {
	if m.isAllowListed(route) {
		m.stampMarker(ctx)
		return Decision{State: StateAuthorized}
	}

	grace, err := m.sessions.Get(ctx, storage.KeyJustLoggedIn)
	if err != nil {
		m.log.Warn(ctx, "failed to read grace flag", "error", err)
	}
	if grace != nil {
		// Consume the flag exactly once and keep the fresh login.
		if err := m.sessions.Remove(ctx, storage.KeyJustLoggedIn); err != nil {
			m.log.Warn(ctx, "failed to clear grace flag", "error", err)
		}
		m.stampMarker(ctx)
		return Decision{State: StateAuthorized}
	}

	marker, err := m.sessions.Get(ctx, storage.KeySessionMarker)
	if err != nil {
		m.log.Warn(ctx, "failed to read session marker", "error", err)
	}
	if marker == nil {
		return m.forceLogout(ctx)
	}

	m.stampMarker(ctx)

	current, err := m.gateway.CurrentSession(ctx)
	if err != nil {
		// Identity cannot be determined on a protected route: redirect,
		// render nothing.
		m.log.Warn(ctx, "failed to determine identity", "route", route, "error", err)
		return Decision{State: StateRedirectingToLogin, Redirect: m.loginRoute}
	}
	if !current.IsAuthenticated() {
		// Expected absence, not a failure: no sign-out, silent redirect.
		return Decision{State: StateRedirectingToLogin, Redirect: m.loginRoute}
	}

	return Decision{State: StateAuthorized}
}

// forceLogout handles the fresh-session case: sign out, wipe the cached
// identity, and send the user to the login route.
func (m *Manager) forceLogout(ctx context.Context) Decision {
	m.log.Info(ctx, "fresh session detected, clearing auth state")

	if err := m.gateway.SignOut(ctx); err != nil && !errors.Is(err, auth.ErrNotAuthenticated) {
		// Not-authenticated outcomes are expected here; anything else is
		// worth a warning but never blocks the redirect.
		m.log.Warn(ctx, "sign-out during session reset failed", "error", err)
	}
	if err := m.identity.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear identity cache", "error", err)
	}

	m.stampMarker(ctx)
	return Decision{State: StateRedirectingToLogin, Redirect: m.loginRoute}
}

func (m *Manager) isAllowListed(route string) bool {
	for _, exact := range m.allowExact {
		if route == exact {
			return true
		}
	}
	for _, prefix := range m.allowPrefix {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}

func (m *Manager) stampMarker(ctx context.Context) {
	stamp := strconv.FormatInt(m.now().UnixMilli(), 10)
	if err := m.sessions.Set(ctx, storage.KeySessionMarker, []byte(stamp)); err != nil {
		m.log.Warn(ctx, "failed to stamp session marker", "error", err)
	}
}
