// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides the authentication session manager for the CLI.
// It drives the OAuth implicit-grant flow through a redirect agent, validates
// the returned state, exchanges the token for the user profile, and keeps the
// in-memory session, the persisted record and the HTTP client's Authorization
// header in agreement.
//
// Sign-in and sign-out are mutually exclusive per Manager: while either runs,
// further calls fail with errors.ErrAlreadyInProgress.
package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"streamauth/cli/internal/backend"
	autherr "streamauth/cli/internal/errors"
	"streamauth/cli/internal/logging"
)

// ErrNotSignedIn is returned by operations that need an active session.
var ErrNotSignedIn = errors.New("not signed in")

// Manager owns the authenticated session.
type Manager struct {
	clientID string
	flow     *Flow
	profiles *ProfileFetcher
	store    *Store
	api      backend.API
	log      *zap.Logger

	mu         sync.Mutex
	session    *Session
	signingIn  bool
	signingOut bool
	// generation counts commits and clears of the session.
	generation uint64
}

// NewManager wires a Manager. api is the shared HTTP client whose default
// headers the Manager keeps in sync; nothing else should write them.
func NewManager(clientID string, flow *Flow, api backend.API, store *Store, log *zap.Logger) *Manager {
	return &Manager{
		clientID: clientID,
		flow:     flow,
		profiles: NewProfileFetcher(api),
		store:    store,
		api:      api,
		log:      log.Named("session"),
	}
}

// Bootstrap restores a persisted session without running the authorization
// flow. It performs a single store read and reports whether a session was restored.
// It never replaces a session and restores nothing while a sign-in or sign-out
// is in flight or after one completed during the store read.
func (m *Manager) Bootstrap() bool {
	m.api.SetHeader(backend.HeaderClientID, m.clientID)

	m.mu.Lock()
	if m.busyLocked() {
		m.mu.Unlock()
		return false
	}
	gen := m.generation
	m.mu.Unlock()

	sess, ok := m.store.Load()
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busyLocked() || m.generation != gen {
		m.log.Debug("stored session ignored; session changed during bootstrap")
		return false
	}
	m.session = &sess
	m.api.SetHeader(backend.HeaderAuthorization, "Bearer "+sess.AccessToken)
	m.log.Debug("session restored", zap.String("user", sess.Profile.ID))
	return true
}

// busyLocked reports whether an operation is in flight or a session is held.
func (m *Manager) busyLocked() bool {
	return m.signingIn || m.signingOut || m.session != nil
}

// SignIn runs the authorization flow, fetches the profile and commits the new
// session. Every failure is returned as errors.ErrAuthenticationFailed wrapping
// the cause, and leaves the previous state untouched.
func (m *Manager) SignIn(ctx context.Context) error {
	if !m.begin(&m.signingIn) {
		return autherr.ErrAlreadyInProgress
	}
	defer m.finish(&m.signingIn)

	token, err := m.flow.Run(ctx)
	if err != nil {
		return m.failSignIn(err)
	}

	profile, err := m.profiles.Fetch(ctx, token)
	if err != nil {
		return m.failSignIn(err)
	}

	m.commit(Session{Profile: profile, AccessToken: token})
	m.log.Info("signed in", zap.String("user", profile.ID))
	return nil
}

func (m *Manager) failSignIn(err error) error {
	m.log.Info("sign-in failed", zap.String("kind", string(autherr.KindOf(err))), logging.Err(err))
	return autherr.Wrap(autherr.AuthenticationFailed, "sign-in failed", err)
}

// commit publishes sess to memory and the HTTP header together, then persists
// it. The store is a cache for later processes, so a failed write is logged only.
func (m *Manager) commit(sess Session) {
	m.mu.Lock()
	m.session = &sess
	m.generation++
	m.api.SetHeader(backend.HeaderAuthorization, "Bearer "+sess.AccessToken)
	m.mu.Unlock()

	if err := m.store.Save(sess); err != nil {
		m.log.Warn("session not persisted", logging.Err(err))
	}
}

// SignOut revokes the token with the provider (best effort) and then always
// clears the in-memory session, the persisted record and the Authorization
// header. It only returns an error when another operation is in flight.
func (m *Manager) SignOut(ctx context.Context) error {
	if !m.begin(&m.signingOut) {
		return autherr.ErrAlreadyInProgress
	}
	defer m.finish(&m.signingOut)

	m.mu.Lock()
	var token string
	if m.session != nil {
		token = m.session.AccessToken
	}
	m.mu.Unlock()

	if token != "" {
		if err := m.api.Revoke(ctx, token, m.clientID); err != nil {
			m.log.Warn("token revocation failed", logging.Err(err))
		}
	}

	m.mu.Lock()
	m.session = nil
	m.generation++
	m.api.DelHeader(backend.HeaderAuthorization)
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Warn("session record not removed", logging.Err(err))
	}
	m.log.Info("signed out")
	return nil
}

// Verify fetches the profile for the current token without changing any state.
func (m *Manager) Verify(ctx context.Context) (Profile, error) {
	sess, ok := m.Session()
	if !ok {
		return Profile{}, ErrNotSignedIn
	}
	return m.profiles.Fetch(ctx, sess.AccessToken)
}

// Profile returns the current user's profile, or the zero Profile when signed out.
func (m *Manager) Profile() Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Profile{}
	}
	return m.session.Profile
}

// Session returns a copy of the active session.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// begin sets flag if neither operation is in flight.
func (m *Manager) begin(flag *bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signingIn || m.signingOut {
		return false
	}
	*flag = true
	return true
}

func (m *Manager) finish(flag *bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*flag = false
}
