package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clearvat/clearvat/internal/shared"
)

// Credential joins the user record with its password hash for local login.
type Credential struct {
	UserRecord
	PasswordHash string
}

// CredentialStore looks up login credentials by email.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Credential, error)
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         UserRecord
}

// Service wraps local authentication business rules.
type Service struct {
	creds  CredentialStore
	users  UserStore
	issuer *LocalVerifier
}

// NewService constructs a Service.
func NewService(creds CredentialStore, users UserStore, issuer *LocalVerifier) *Service {
	return &Service{creds: creds, users: users, issuer: issuer}
}

// Login validates email/password credentials and issues an access token.
// Inactive accounts fail the same way as bad credentials to avoid account
// probing.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	cred, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !cred.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	token, expiresAt, err := s.issuer.Issue(cred.ID, cred.Email, cred.OrgID, cred.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefresh(cred.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         cred.UserRecord,
	}, nil
}

// Refresh exchanges a valid refresh token for a new session. The presented
// refresh token is revoked so each one is single use, and a deactivated
// account cannot refresh.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*Session, error) {
	userID, err := s.issuer.VerifyRefresh(ctx, rawRefresh)
	if err != nil {
		return nil, err
	}
	record, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if record == nil || !record.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.issuer.Revoke(ctx, rawRefresh); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.issuer.Issue(record.ID, record.Email, record.OrgID, record.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefresh(record.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         *record,
	}, nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	return s.issuer.Revoke(ctx, rawToken)
}
