package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/reelhouse/reelhouse/internal/domain/auth"
)

// SigningConfig is one token class: its secret material and lifetime.
type SigningConfig struct {
	Secret []byte
	TTL    time.Duration
}

// TokenIssuer mints HS256 access/refresh pairs carrying `sub`. The two
// classes are signed under independent configs, so leaking one secret never
// compromises the other class.
type TokenIssuer struct {
	access  SigningConfig
	refresh SigningConfig
	now     func() time.Time
}

func NewTokenIssuer(access, refresh SigningConfig) *TokenIssuer {
	return &TokenIssuer{
		access:  access,
		refresh: refresh,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs both tokens concurrently; they share no state beyond the user id.
func (t *TokenIssuer) Issue(ctx context.Context, userID int64) (domainauth.TokenPair, error) {
	var pair domainauth.TokenPair

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := t.sign(userID, t.access)
		if err != nil {
			return fmt.Errorf("sign access: %w", err)
		}
		pair.AccessToken = s
		return nil
	})
	g.Go(func() error {
		s, err := t.sign(userID, t.refresh)
		if err != nil {
			return fmt.Errorf("sign refresh: %w", err)
		}
		pair.RefreshToken = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return domainauth.TokenPair{}, err
	}
	return pair, nil
}

func (t *TokenIssuer) sign(userID int64, cfg SigningConfig) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

// ParseAccess validates an access token and returns its subject user id.
func (t *TokenIssuer) ParseAccess(tokenStr string) (int64, error) {
	return parseSubject(tokenStr, t.access.Secret)
}

// ParseRefresh validates a refresh token's signature and expiry and returns
// its subject. Possession of a parseable refresh token is not enough to
// rotate: the proof check against the stored hash comes separately.
func (t *TokenIssuer) ParseRefresh(tokenStr string) (int64, error) {
	return parseSubject(tokenStr, t.refresh.Secret)
}

func parseSubject(tokenStr string, secret []byte) (int64, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return 0, err
	}
	if !tok.Valid {
		return 0, jwt.ErrTokenUnverifiable
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}
	return id, nil
}
