package auth

import (
	"time"
)

// TokenPair is one issuance of signed credentials. Pairs are never persisted;
// only the hash of RefreshToken survives, inside the refresh-token store.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserRef is the minimal identity reference auth checks resolve to.
type UserRef struct {
	ID int64 `json:"id"`
}

// OAuthIdentity is the normalized fact set asserted by an upstream OAuth
// provider. It carries identity facts only, no authorization decisions.
type OAuthIdentity struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
}

// Event kinds published to the audit stream.
const (
	EventLogin          = "auth.login"
	EventLogout         = "auth.logout"
	EventRefresh        = "auth.refresh"
	EventPasswordChange = "auth.password_change"
)

// Event is a single auth audit record.
type Event struct {
	Kind   string    `json:"kind"`
	UserID int64     `json:"user_id"`
	OK     bool      `json:"ok"`
	At     time.Time `json:"at"`
}
