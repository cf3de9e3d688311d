package auth

// Profile is the canonical user profile returned by the provider.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

// IsZero reports whether p is the unauthenticated sentinel.
func (p Profile) IsZero() bool { return p == Profile{} }

// Session is an authenticated session. It owns the access token for its lifetime.
type Session struct {
	Profile     Profile
	AccessToken string
}
