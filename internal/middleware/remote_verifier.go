package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jyotai-backend/internal/core"
)

// RemoteVerifier checks sessions by calling a verification endpoint over HTTP, for deployments
// where the admin pages are served by a different process than the API.
type RemoteVerifier struct {
	url    string
	client *http.Client
}

// NewRemoteVerifier creates a RemoteVerifier posting to url.
func NewRemoteVerifier(url string) *RemoteVerifier {
	return &RemoteVerifier{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

type remoteVerifyResponse struct {
	OK      bool   `json:"ok"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (v *RemoteVerifier) VerifySession(ctx context.Context, sessionCookie string) (*core.Identity, error) {
	body, err := json.Marshal(map[string]string{"sessionCookie": sessionCookie})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: verify request failed: %v", core.ErrUnauthorized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: verify endpoint returned %d", core.ErrUnauthorized, resp.StatusCode)
	}
	var out remoteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: undecodable verify response: %v", core.ErrUnauthorized, err)
	}
	return &core.Identity{UID: out.UID, Email: out.Email, IsAdmin: out.IsAdmin}, nil
}
