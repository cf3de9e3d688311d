package auth

// State is a read-only snapshot of the Manager for presentation layers.
type State struct {
	Profile    Profile
	SigningIn  bool
	SigningOut bool
}

// IsLoggedIn reports whether the snapshot carries an authenticated profile.
func (s State) IsLoggedIn() bool { return !s.Profile.IsZero() }

// State returns a consistent snapshot of the session and in-flight flags.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{SigningIn: m.signingIn, SigningOut: m.signingOut}
	if m.session != nil {
		st.Profile = m.session.Profile
	}
	return st
}

// IsSigningIn reports whether a sign-in is in flight.
func (m *Manager) IsSigningIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signingIn
}

// IsSigningOut reports whether a sign-out is in flight.
func (m *Manager) IsSigningOut() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signingOut
}
