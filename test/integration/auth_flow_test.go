//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"
)

// Exercises the session lifecycle against a running gateway:
// sign-up, sign-in, rotation, superseded-token rejection, logout.
func TestAuthFlow(t *testing.T) {
	cfg := LoadCfg()
	u, err := url.Parse(cfg.AGBaseURL)
	if err != nil {
		t.Fatalf("bad IT_AG_BASE: %v", err)
	}
	WaitTCP(t, "api-gateway", u.Host, 30*time.Second)

	client := &http.Client{Timeout: 10 * time.Second}
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	creds := map[string]string{"email": email, "password": "it-password-1"}

	// sign-up issues a pair and sets the refresh cookie
	data, resp := httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/sign-up", creds, nil, http.StatusOK)
	var signedUp struct {
		ID          int64  `json:"id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &signedUp); err != nil {
		t.Fatalf("decode sign-up: %v", err)
	}
	if signedUp.ID == 0 || signedUp.AccessToken == "" {
		t.Fatalf("incomplete sign-up response: %s", string(data))
	}
	first := cookieByName(resp, "refresh_token")
	if first == nil || first.Value == "" {
		t.Fatal("sign-up did not set refresh_token cookie")
	}

	// duplicate sign-up conflicts
	httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/sign-up", creds, nil, http.StatusConflict)

	// sign-in supersedes the sign-up session
	_, resp = httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/sign-in", creds, nil, http.StatusOK)
	second := cookieByName(resp, "refresh_token")
	if second == nil || second.Value == first.Value {
		t.Fatal("sign-in did not rotate the refresh cookie")
	}
	httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/refresh", nil, []*http.Cookie{first}, http.StatusUnauthorized)

	// rotation invalidates the presented token
	_, resp = httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/refresh", nil, []*http.Cookie{second}, http.StatusOK)
	third := cookieByName(resp, "refresh_token")
	if third == nil || third.Value == second.Value {
		t.Fatal("refresh did not rotate the cookie")
	}
	httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/refresh", nil, []*http.Cookie{second}, http.StatusUnauthorized)

	// logout kills the current session
	httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/logout", nil, []*http.Cookie{third}, http.StatusNoContent)
	httpJSON(t, client, http.MethodPost, cfg.AGBaseURL+"/v1/auth/refresh", nil, []*http.Cookie{third}, http.StatusUnauthorized)
}
