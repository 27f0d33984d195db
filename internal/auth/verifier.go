package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/tenancy"
)

// TokenVerifier validates a raw bearer token and extracts the caller
// identity. Implementations must not consult the user store; that is the
// resolver's job.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

// RevocationList answers whether a token id has been revoked before expiry.
type RevocationList interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

const scopeRefresh = "refresh"

type localClaims struct {
	Email string `json:"email"`
	OrgID string `json:"org_id,omitempty"`
	Role  string `json:"role,omitempty"`
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// LocalVerifier validates HS256 tokens issued by this service against a
// shared secret and an optional revocation list.
type LocalVerifier struct {
	secret     []byte
	ttl        time.Duration
	refreshTTL time.Duration
	revoked    RevocationList
}

// NewLocalVerifier constructs a verifier/issuer for locally signed tokens.
func NewLocalVerifier(secret string, ttl time.Duration, revoked RevocationList) *LocalVerifier {
	return &LocalVerifier{
		secret:     []byte(secret),
		ttl:        ttl,
		refreshTTL: 7 * 24 * time.Hour,
		revoked:    revoked,
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func (v *LocalVerifier) WithRefreshTTL(ttl time.Duration) *LocalVerifier {
	if ttl > 0 {
		v.refreshTTL = ttl
	}
	return v
}

// verifyClaims checks signature, expiry and revocation. Scope checks are the
// caller's responsibility.
func (v *LocalVerifier) verifyClaims(ctx context.Context, raw string) (*localClaims, error) {
	claims := &localClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken(err)
	}
	if v.revoked != nil && claims.ID != "" {
		gone, err := v.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, errProviderUnavailable(err)
		}
		if gone {
			return nil, errInvalidToken(errors.New("token revoked"))
		}
	}
	return claims, nil
}

// Verify checks an access token and returns the caller identity. Refresh
// tokens are not valid as access tokens.
func (v *LocalVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	claims, err := v.verifyClaims(ctx, raw)
	if err != nil {
		return Identity{}, err
	}
	if claims.Scope == scopeRefresh {
		return Identity{}, errInvalidToken(errors.New("refresh token used as access token"))
	}
	extra := map[string]any{}
	if claims.OrgID != "" {
		extra["org_id"] = claims.OrgID
	}
	if claims.Role != "" {
		extra["role"] = claims.Role
	}
	return Identity{
		ID:      claims.Subject,
		Email:   claims.Email,
		TokenID: claims.ID,
		Claims:  extra,
	}, nil
}

// VerifyRefresh checks a refresh token and returns the subject it was issued
// to. Access tokens are rejected here.
func (v *LocalVerifier) VerifyRefresh(ctx context.Context, raw string) (string, error) {
	claims, err := v.verifyClaims(ctx, raw)
	if err != nil {
		return "", err
	}
	if claims.Scope != scopeRefresh {
		return "", errInvalidToken(errors.New("not a refresh token"))
	}
	return claims.Subject, nil
}

// Issue signs a new access token for the given user.
func (v *LocalVerifier) Issue(userID, email, orgID string, role tenancy.Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(v.ttl)
	claims := localClaims{
		Email: email,
		OrgID: orgID,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefresh signs a long-lived refresh token carrying only the subject.
func (v *LocalVerifier) IssueRefresh(userID string) (string, error) {
	now := time.Now()
	claims := localClaims{
		Scope: scopeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Revoke places the token on the denylist for its remaining lifetime. Works
// for access and refresh tokens alike.
func (v *LocalVerifier) Revoke(ctx context.Context, raw string) error {
	if v.revoked == nil {
		return nil
	}
	claims, err := v.verifyClaims(ctx, raw)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return nil
	}
	ttl := v.ttl
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return v.revoked.Revoke(ctx, claims.ID, ttl)
}

var _ TokenVerifier = (*LocalVerifier)(nil)

// VerifierChain tries each verifier in order and returns the first success.
// A provider outage stops the chain so callers surface 503 instead of
// mistaking the token for an invalid one.
type VerifierChain struct {
	verifiers []TokenVerifier
}

// NewVerifierChain combines verifiers; self-issued tokens typically go first
// so they verify offline.
func NewVerifierChain(verifiers ...TokenVerifier) *VerifierChain {
	return &VerifierChain{verifiers: verifiers}
}

func (c *VerifierChain) Verify(ctx context.Context, raw string) (Identity, error) {
	var last error
	for _, v := range c.verifiers {
		identity, err := v.Verify(ctx, raw)
		if err == nil {
			return identity, nil
		}
		var authErr *Error
		if errors.As(err, &authErr) && authErr.Code == CodeProviderUnavailable {
			return Identity{}, err
		}
		last = err
	}
	if last == nil {
		last = errInvalidToken(errors.New("no verifier configured"))
	}
	return Identity{}, last
}

var _ TokenVerifier = (*VerifierChain)(nil)
