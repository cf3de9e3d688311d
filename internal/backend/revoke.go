package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Revoke calls POST {revoke} with the client id and token as a form body.
func (h *HTTP) Revoke(ctx context.Context, accessToken, clientID string) error {
	form := url.Values{
		"client_id": {clientID},
		"token":     {accessToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("revoke failed: %d %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
