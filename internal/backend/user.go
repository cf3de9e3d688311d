// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// UserID accepts a JSON string or number. Twitch sends strings; older
// fixtures and some mirrors send numbers.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("user id %s is not an integer", n)
	}
	*id = UserID(n.String())
	return nil
}

// User is one element of the users collection.
type User struct {
	ID              UserID `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url"`
}

type usersResponse struct {
	Data []User `json:"data"`
}

// GetUsers calls GET {api}/users with the bearer token on the request itself,
// so a token under validation never leaks into the shared default headers.
func (h *HTTP) GetUsers(ctx context.Context, accessToken string) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.apiURL+"/users", nil)
	if err != nil {
		return nil, err
	}
	if accessToken != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+accessToken)
	}
	h.setStandardHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get users failed: %d %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out usersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return out.Data, nil
}
