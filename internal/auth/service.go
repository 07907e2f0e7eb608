package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

const minPasswordLength = 8

// Service orchestrates registration, login, refresh, logout and password
// changes on top of the credential store, hasher, token issuer and
// refresh-token store.
type Service struct {
	store   Store
	refresh RefreshStore
	issuer  *Issuer
	hasher  *Hasher
}

func NewService(store Store, refresh RefreshStore, issuer *Issuer, hasher *Hasher) *Service {
	return &Service{
		store:   store,
		refresh: refresh,
		issuer:  issuer,
		hasher:  hasher,
	}
}

func validateCredentials(username, email, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}

// Register creates a new account. Only an elevated caller (an
// authenticated admin) may set a role other than the default.
func (s *Service) Register(ctx context.Context, username, email, password string, role Role, elevated bool) (*User, error) {
	if err := validateCredentials(username, email, password); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if role != RoleUser && !elevated {
		return nil, ErrForbidden
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, username, email, hash, role)
}

// Login checks the credentials and mints a token pair. Unknown email,
// wrong password and a deactivated account all fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issuePair(ctx, user)
}

// Refresh verifies the refresh token, re-reads role and active status
// from storage so stale privileges cannot survive a role change, then
// rotates the refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	stored, err := s.refresh.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if stored != claims.ID {
		// Rotated or revoked since issuance.
		return nil, ErrUnauthenticated
	}
	user, err := s.store.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}
	return s.issuePair(ctx, user)
}

// ChangePassword re-verifies the old password before accepting the new one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

// Logout revokes the user's current refresh capability. Outstanding
// access tokens stay valid until they expire.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.refresh.Delete(ctx, userID)
}

func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	return s.store.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, username, email string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return s.store.UpdateProfile(ctx, userID, username, email)
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	access, _, err := s.issuer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, jti, _, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.Put(ctx, user.ID, jti, s.issuer.RefreshTTL()); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}
