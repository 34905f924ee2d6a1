// accounts.go implements registration and session management. Sessions are an
// access/refresh token pair: the access token is a stateless JWT, the refresh
// token is the only persisted artifact (bcrypt hash + prefix) so logout can
// actually revoke it. Refresh rotates the token — the presented one is
// revoked and a fresh one issued — so a stolen token stops working as soon as
// the legitimate client refreshes.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/auth"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
)

// TokenPair is a freshly issued session: a short-lived access token and the
// plaintext refresh token (shown to the client exactly once).
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

// AccountService manages user accounts and their sessions.
type AccountService struct {
	users         *repositories.UserRepository
	refreshTokens *repositories.RefreshTokenRepository
	memberships   *repositories.MembershipRepository
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewAccountService creates a new account service
func NewAccountService(
	users *repositories.UserRepository,
	refreshTokens *repositories.RefreshTokenRepository,
	memberships *repositories.MembershipRepository,
	accessTTL, refreshTTL time.Duration,
) *AccountService {
	return &AccountService{
		users:         users,
		refreshTokens: refreshTokens,
		memberships:   memberships,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Register creates a new user account. A taken email yields Conflict.
func (s *AccountService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation("a valid email address is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.Validation("name is required")
	}
	if len(password) < 8 {
		return nil, apierr.Validation("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, apierr.Conflict("an account with that email already exists")
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password are deliberately the same error.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, nil, apierr.Unauthorized("invalid email or password")
	}

	pair, err := s.issuePair(ctx, user, "", "")
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is verified against
// the stored hashes, revoked, and a fresh pair issued. A token that matches
// nothing — wrong, revoked, or expired — is a single Unauthorized.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.lookupRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.Unauthorized("invalid refresh token")
	}

	if err := s.refreshTokens.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}

	return s.issuePair(ctx, user, "", "")
}

// Logout revokes the presented refresh token. The access token stays valid
// until its own expiry; only the refresh capability is destroyed.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.lookupRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.refreshTokens.Revoke(ctx, stored.ID)
}

// LogoutAll revokes every refresh token of a user, ending all their sessions.
func (s *AccountService) LogoutAll(ctx context.Context, userID string) error {
	return s.refreshTokens.RevokeAllForUser(ctx, userID)
}

// SwitchTenant re-reads the user's membership in the requested workspace and
// issues an access token carrying that tenant and role as claims. The
// membership read is authoritative here — the previous token's claims carry
// no weight. A suspended membership is rejected identically to no membership.
func (s *AccountService) SwitchTenant(ctx context.Context, user *models.User, tenantID string) (string, error) {
	member, err := s.memberships.Get(ctx, tenantID, user.ID)
	if err != nil {
		return "", err
	}
	if member == nil || member.IsSuspended {
		return "", apierr.Forbidden("you do not have access to this workspace")
	}

	return auth.IssueAccessToken(user, tenantID, member.Role, s.accessTTL)
}

// issuePair creates and persists a new session for user.
func (s *AccountService) issuePair(ctx context.Context, user *models.User, tenantID string, role models.Role) (*TokenPair, error) {
	accessToken, err := auth.IssueAccessToken(user, tenantID, role, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, hash, prefix, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		Prefix:    prefix,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.refreshTokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// lookupRefreshToken narrows the presented token to the candidate rows
// sharing its prefix, then bcrypt-compares against each. GetByPrefix already
// filters revoked and expired rows.
func (s *AccountService) lookupRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, apierr.Unauthorized("refresh token required")
	}

	candidates, err := s.refreshTokens.GetByPrefix(ctx, auth.TokenPrefix(token))
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		if auth.ValidateRefreshToken(token, candidate.TokenHash) {
			return candidate, nil
		}
	}
	return nil, apierr.Unauthorized("invalid refresh token")
}
