package auth

import (
	"context"

	"streamauth/cli/internal/backend"
	autherr "streamauth/cli/internal/errors"
)

// ProfileFetcher exchanges a bearer token for the canonical user profile.
type ProfileFetcher struct {
	api backend.API
}

// NewProfileFetcher creates a ProfileFetcher over api.
func NewProfileFetcher(api backend.API) *ProfileFetcher {
	return &ProfileFetcher{api: api}
}

// Fetch returns the first element of the users collection for token.
func (f *ProfileFetcher) Fetch(ctx context.Context, token string) (Profile, error) {
	users, err := f.api.GetUsers(ctx, token)
	if err != nil {
		return Profile{}, autherr.Wrap(autherr.ProfileFetchFailed, "request profile", err)
	}
	if len(users) == 0 {
		return Profile{}, autherr.New(autherr.ProfileFetchFailed, "profile response is empty")
	}
	u := users[0]
	if u.ID == "" {
		return Profile{}, autherr.New(autherr.ProfileFetchFailed, "profile has no id")
	}
	return Profile{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.ProfileImageURL,
	}, nil
}
