// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt), Policy
//
// All the sign-up gating, credential checking, and role derivation lives
// here, away from HTTP concerns, so it can be tested with plain function
// calls and mock repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/daily-log/internal/apperror"
	"github.com/sakif/daily-log/internal/auth"
	"github.com/sakif/daily-log/internal/model"
	"github.com/sakif/daily-log/internal/repository"
)

// AuthService handles registration, sign-in, and role derivation.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	policy    *auth.Policy
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	policy *auth.Policy,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		policy:    policy,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler
// can set the session cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignUp registers a new account and signs it in.
//
// The registration allow-list is checked BEFORE any account is created —
// an email not on the list gets a Forbidden error and no row is written.
// The client may mirror the check for UX, but only this one counts.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	if !s.policy.CanRegister(email) {
		return nil, apperror.Forbidden("this email address is not authorized to register")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueSession(user)
}

// SignIn verifies email + password and issues a session.
//
// Both "no such account" and "wrong password" return the same
// Unauthorized message so the response doesn't reveal which emails have
// accounts.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user %s: %w", email, err)
	}

	// OAuth-only accounts have no password hash to compare against.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// SignInGitHub resolves a completed OAuth exchange to a local account,
// creating one on first sign-in. The registration allow-list applies to
// new accounts the same as password sign-up.
func (s *AuthService) SignInGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetByGitHubID(ctx, ghUser.ID)
	if err == nil {
		s.logger.Info("user signed in via GitHub", slog.String("userID", user.ID))
		return s.issueSession(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up GitHub user %d: %w", ghUser.ID, err)
	}

	// First GitHub sign-in — create the account, gated by the allow-list.
	email := strings.ToLower(strings.TrimSpace(ghUser.Email))
	if email == "" {
		return nil, apperror.Unauthorized("GitHub did not return an email address")
	}
	if !s.policy.CanRegister(email) {
		return nil, apperror.Forbidden("this email address is not authorized to register")
	}

	user = &model.User{
		Email:    email,
		GitHubID: ghUser.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user %s: %w", email, err)
	}

	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueSession(user)
}

// Session describes the current identity as the client sees it. IsAdmin
// is derived from the allow-list at call time, never stored.
type Session struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// GetSession resolves a userID (from a validated token) to the current
// session view. Returns Unauthorized if the account no longer exists —
// a valid token for a deleted user is not a session.
func (s *AuthService) GetSession(ctx context.Context, userID string) (*Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return &Session{
		ID:      user.ID,
		Email:   user.Email,
		IsAdmin: s.policy.IsAdmin(user.Email),
	}, nil
}

// IsAdmin reports whether the user currently holds the admin role.
// Satisfies auth.AdminChecker for the route guard.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.policy.IsAdmin(user.Email), nil
}

func (s *AuthService) issueSession(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
