// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"streamauth/cli/internal/backend"
	autherr "streamauth/cli/internal/errors"
	"streamauth/cli/internal/keychain"
	"streamauth/cli/internal/logging"
)

// SessionKey is the single storage key holding the persisted session record.
const SessionKey = "@stream.data:user"

// KV is the persistent key-value store backing the Session Store.
// Get returns keychain.ErrNotFound for a missing key.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// record is the persisted JSON shape.
type record struct {
	ID              backend.UserID `json:"id"`
	DisplayName     string         `json:"display_name"`
	Email           string         `json:"email"`
	ProfileImageURL string         `json:"profile_image_url"`
	AccessToken     string         `json:"access_token"`
}

// Store persists exactly one serialized Session.
type Store struct {
	kv  KV
	log *zap.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv KV, log *zap.Logger) *Store {
	return &Store{kv: kv, log: log.Named("store")}
}

// Load reads the persisted session. Missing, unreadable or undecodable records
// all yield (Session{}, false); only the latter two are logged.
func (s *Store) Load() (Session, bool) {
	data, err := s.kv.Get(SessionKey)
	if errors.Is(err, keychain.ErrNotFound) {
		return Session{}, false
	}
	if err != nil {
		s.log.Warn("session record unreadable", logging.Err(err))
		return Session{}, false
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		s.log.Warn("session record corrupt", logging.Err(err))
		return Session{}, false
	}
	if r.AccessToken == "" {
		s.log.Warn("session record has no access token")
		return Session{}, false
	}

	return Session{
		Profile: Profile{
			ID:          string(r.ID),
			DisplayName: r.DisplayName,
			Email:       r.Email,
			AvatarURL:   r.ProfileImageURL,
		},
		AccessToken: r.AccessToken,
	}, true
}

// Save serializes sess and overwrites the record.
func (s *Store) Save(sess Session) error {
	b, err := json.Marshal(record{
		ID:              backend.UserID(sess.Profile.ID),
		DisplayName:     sess.Profile.DisplayName,
		Email:           sess.Profile.Email,
		ProfileImageURL: sess.Profile.AvatarURL,
		AccessToken:     sess.AccessToken,
	})
	if err != nil {
		return autherr.Wrap(autherr.StorageFailed, "encode session", err)
	}
	if err := s.kv.Set(SessionKey, b); err != nil {
		return autherr.Wrap(autherr.StorageFailed, "write session", err)
	}
	return nil
}

// Clear removes the record. Clearing an absent record is not an error.
func (s *Store) Clear() error {
	if err := s.kv.Remove(SessionKey); err != nil && !errors.Is(err, keychain.ErrNotFound) {
		return autherr.Wrap(autherr.StorageFailed, "remove session", err)
	}
	return nil
}
