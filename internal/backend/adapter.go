// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the HTTP client used to talk to the streaming platform.
// It carries process-wide default headers (Client-Id, Authorization), fetches the
// authenticated user's profile and revokes access tokens.
package backend

import "context"

// API defines provider operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// SetHeader sets a default header sent with every subsequent request.
	SetHeader(key, value string)
	// DelHeader removes a default header.
	DelHeader(key string)
	// Header returns the current value of a default header.
	Header(key string) string
	// GetUsers returns the users collection for the bearer token.
	// The provider answers with a list even for the token's own user.
	GetUsers(ctx context.Context, accessToken string) ([]User, error)
	// Revoke invalidates accessToken with the provider.
	Revoke(ctx context.Context, accessToken, clientID string) error
}
