package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/reelhouse/reelhouse/internal/domain/auth"
	"github.com/reelhouse/reelhouse/internal/domain/user"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrPasswordMismatch    = errors.New("new password confirmation does not match")
	ErrEmailExists         = errors.New("email already registered")
	ErrWeakPassword        = errors.New("password is too weak")
)

type Config struct {
	// RefreshSessionTTL bounds how long a stored refresh-token hash stays
	// valid without being rotated. Loaded once at startup.
	RefreshSessionTTL time.Duration
}

// Service orchestrates issuance, hashing and storage of session credentials.
// It owns the refresh-record lifecycle end to end but never constructs or
// deletes users; those belong to the user store.
type Service struct {
	users  user.Repo
	store  domainauth.RefreshTokenStore
	hasher *SecretHasher
	tokens *TokenIssuer
	events domainauth.EventSink
	cfg    Config
}

func NewService(users user.Repo, store domainauth.RefreshTokenStore, hasher *SecretHasher, tokens *TokenIssuer, events domainauth.EventSink, cfg Config) *Service {
	return &Service{
		users:  users,
		store:  store,
		hasher: hasher,
		tokens: tokens,
		events: events,
		cfg:    cfg,
	}
}

// LoginResult is the login/OAuth response shape; rotation responses carry the
// pair without the id.
type LoginResult struct {
	ID           int64  `json:"id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Login issues a fresh pair for userID and replaces the stored refresh hash.
// There is no prior-session check: a second login simply supersedes the first.
func (s *Service) Login(ctx context.Context, userID int64) (*LoginResult, error) {
	pair, err := s.issueAndStore(ctx, userID)
	if err != nil {
		s.emit(ctx, domainauth.EventLogin, userID, false)
		return nil, err
	}
	s.emit(ctx, domainauth.EventLogin, userID, true)
	return &LoginResult{ID: userID, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Logout drops the user's refresh slot. Idempotent: logging out twice, or
// with no session at all, succeeds silently.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("drop refresh session: %w", err)
	}
	s.emit(ctx, domainauth.EventLogout, userID, true)
	return nil
}

// RefreshTokens is the issue-new-pair half of rotation. Callers must have
// authenticated the request through ValidateRefreshToken first; no credential
// check happens here.
func (s *Service) RefreshTokens(ctx context.Context, userID int64) (domainauth.TokenPair, error) {
	pair, err := s.issueAndStore(ctx, userID)
	if err != nil {
		s.emit(ctx, domainauth.EventRefresh, userID, false)
		return domainauth.TokenPair{}, err
	}
	s.emit(ctx, domainauth.EventRefresh, userID, true)
	return pair, nil
}

// ValidateRefreshToken is the authentication gate for rotation: it checks the
// presented raw token against the stored hash. Absent, expired and mismatched
// all collapse into ErrInvalidRefreshToken.
func (s *Service) ValidateRefreshToken(ctx context.Context, userID int64, raw string) (domainauth.UserRef, error) {
	stored, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domainauth.ErrNoSession) {
			return domainauth.UserRef{}, ErrInvalidRefreshToken
		}
		return domainauth.UserRef{}, fmt.Errorf("read refresh session: %w", err)
	}
	if !s.hasher.VerifyRefreshSecret(stored, raw) {
		return domainauth.UserRef{}, ErrInvalidRefreshToken
	}
	return domainauth.UserRef{ID: userID}, nil
}

// GenerateTokens issues a pair without touching the store.
func (s *Service) GenerateTokens(ctx context.Context, userID int64) (domainauth.TokenPair, error) {
	return s.tokens.Issue(ctx, userID)
}

// ValidateLocalUser checks an email/password pair. Unknown email, an
// OAuth-only account and a wrong password are indistinguishable to the caller.
func (s *Service) ValidateLocalUser(ctx context.Context, email, password string) (domainauth.UserRef, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return domainauth.UserRef{}, ErrInvalidCredentials
		}
		return domainauth.UserRef{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.HasPassword() {
		return domainauth.UserRef{}, ErrInvalidCredentials
	}
	if !s.hasher.VerifyPassword(password, u.PasswordHash) {
		return domainauth.UserRef{}, ErrInvalidCredentials
	}
	return domainauth.UserRef{ID: u.ID}, nil
}

// ValidateOAuthUser resolves a provider-asserted identity to a local user,
// creating one without a password hash on first sight. The upstream provider
// is trusted; no credential check happens on this path.
func (s *Service) ValidateOAuthUser(ctx context.Context, id domainauth.OAuthIdentity) (domainauth.UserRef, error) {
	email := normalizeEmail(id.Email)
	if email == "" {
		return domainauth.UserRef{}, ErrInvalidCredentials
	}

	if u, err := s.users.GetByEmail(ctx, email); err == nil {
		return domainauth.UserRef{ID: u.ID}, nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return domainauth.UserRef{}, fmt.Errorf("lookup oauth user: %w", err)
	}

	nu := &user.User{Email: email}
	if err := s.users.Create(ctx, nu); err != nil {
		if errors.Is(err, user.ErrConflict) {
			// concurrent first login for the same email landed first
			u, lerr := s.users.GetByEmail(ctx, email)
			if lerr != nil {
				return domainauth.UserRef{}, fmt.Errorf("relookup oauth user: %w", lerr)
			}
			return domainauth.UserRef{ID: u.ID}, nil
		}
		return domainauth.UserRef{}, fmt.Errorf("create oauth user: %w", err)
	}
	return domainauth.UserRef{ID: nu.ID}, nil
}

// RegisterLocalUser creates a password-backed account.
func (s *Service) RegisterLocalUser(ctx context.Context, email, password string) (domainauth.UserRef, error) {
	email = normalizeEmail(email)
	if len(password) < 8 {
		return domainauth.UserRef{}, ErrWeakPassword
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return domainauth.UserRef{}, err
	}
	nu := &user.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, nu); err != nil {
		if errors.Is(err, user.ErrConflict) {
			return domainauth.UserRef{}, ErrEmailExists
		}
		return domainauth.UserRef{}, fmt.Errorf("create user: %w", err)
	}
	return domainauth.UserRef{ID: nu.ID}, nil
}

// PasswordChange is the updatePassword input.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// UpdatePassword verifies the current password and persists the new one,
// hashed. The confirmation check runs after authentication but before any
// write, so a mismatch never touches the store.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, ch PasswordChange) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.emit(ctx, domainauth.EventPasswordChange, userID, false)
			return ErrInvalidCredentials
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !u.HasPassword() {
		// OAuth-only accounts have no current password to verify against.
		s.emit(ctx, domainauth.EventPasswordChange, userID, false)
		return ErrInvalidCredentials
	}
	if !s.hasher.VerifyPassword(ch.Current, u.PasswordHash) {
		s.emit(ctx, domainauth.EventPasswordChange, userID, false)
		return ErrInvalidCredentials
	}
	if ch.New != ch.Confirm {
		s.emit(ctx, domainauth.EventPasswordChange, userID, false)
		return ErrPasswordMismatch
	}

	hash, err := s.hasher.HashPassword(ch.New)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	s.emit(ctx, domainauth.EventPasswordChange, userID, true)
	return nil
}

// GetHashedRefreshToken reads through to the store; an absent slot is not an
// error here, just an empty hash.
func (s *Service) GetHashedRefreshToken(ctx context.Context, userID int64) (string, error) {
	h, err := s.store.Get(ctx, userID)
	if errors.Is(err, domainauth.ErrNoSession) {
		return "", nil
	}
	return h, err
}

// ParseAccess exposes access-token validation to transport middleware.
func (s *Service) ParseAccess(tokenStr string) (int64, error) {
	id, err := s.tokens.ParseAccess(tokenStr)
	if err != nil {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}

// ParseRefresh validates a refresh token's signature and returns its subject.
func (s *Service) ParseRefresh(tokenStr string) (int64, error) {
	id, err := s.tokens.ParseRefresh(tokenStr)
	if err != nil {
		return 0, ErrInvalidRefreshToken
	}
	return id, nil
}

func (s *Service) issueAndStore(ctx context.Context, userID int64) (domainauth.TokenPair, error) {
	pair, err := s.GenerateTokens(ctx, userID)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	hash, err := s.hasher.HashRefreshSecret(pair.RefreshToken)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("hash refresh token: %w", err)
	}
	// Single atomic overwrite: racing rotations settle last-writer-wins.
	if err := s.store.Put(ctx, userID, hash, s.cfg.RefreshSessionTTL); err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

func (s *Service) emit(ctx context.Context, kind string, userID int64, ok bool) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, domainauth.Event{Kind: kind, UserID: userID, OK: ok, At: time.Now().UTC()})
}
