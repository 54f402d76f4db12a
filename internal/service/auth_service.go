package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/repository"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/oauth"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	LinkGoogleID(ctx context.Context, id, googleID, name, avatar string) (bool, error)
	UpdateProfile(ctx context.Context, id, name, avatar string) error
}

type sessionStore interface {
	Save(ctx context.Context, userID, token string, ttl time.Duration) error
	Exists(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) error
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) (bool, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	SessionTTL      time.Duration
	StateTTL        time.Duration
	AdminSeedEmails []string
}

// AuthService provides the OAuth login, token and session use cases.
type AuthService struct {
	users    authUserRepository
	sessions sessionStore
	provider oauth.Provider
	tokens   *TokenIssuer
	logger   *zap.Logger
	config   AuthConfig
	seeds    map[string]struct{}
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions sessionStore, provider oauth.Provider, tokens *TokenIssuer, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.StateTTL <= 0 {
		config.StateTTL = 10 * time.Minute
	}
	seeds := make(map[string]struct{}, len(config.AdminSeedEmails))
	for _, email := range config.AdminSeedEmails {
		seeds[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &AuthService{users: users, sessions: sessions, provider: provider, tokens: tokens, logger: logger, config: config, seeds: seeds}
}

// BeginLogin records a fresh state and returns the provider consent URL.
func (s *AuthService) BeginLogin(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.sessions.SaveState(ctx, state, s.config.StateTTL); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store oauth state")
	}
	return s.provider.LoginURL(state), nil
}

// CompleteLogin validates the state, exchanges the code and issues a session token.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state string) (*models.TokenResult, error) {
	ok, err := s.sessions.ConsumeState(ctx, state)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify oauth state")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid oauth state")
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "identity provider exchange failed")
	}

	user, err := s.LoginWithProvider(ctx, profile)
	if err != nil {
		return nil, err
	}
	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.TokenResult{Token: token, User: user}, nil
}

// LoginWithProvider resolves the local account for a provider identity, linking by email
// or creating it when needed.
func (s *AuthService) LoginWithProvider(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	if profile == nil || profile.ProviderUserID == "" || profile.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "provider profile is missing id or email")
	}

	user, err := s.users.FindByGoogleID(ctx, profile.ProviderUserID)
	switch {
	case err == nil:
		return s.refreshProfile(ctx, user, profile), nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user, err = s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		return s.link(ctx, user, profile)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	googleID := profile.ProviderUserID
	user = &models.User{
		GoogleID: &googleID,
		Email:    profile.Email,
		Name:     profile.Name,
		Avatar:   profile.Avatar,
		Role:     s.initialRole(profile.Email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrLinkConflict, "account already exists for this identity")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *AuthService) link(ctx context.Context, user *models.User, profile *oauth.Profile) (*models.User, error) {
	if user.GoogleID != nil {
		if *user.GoogleID != profile.ProviderUserID {
			return nil, appErrors.ErrLinkConflict
		}
		return s.refreshProfile(ctx, user, profile), nil
	}

	linked, err := s.users.LinkGoogleID(ctx, user.ID, profile.ProviderUserID, profile.Name, profile.Avatar)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrLinkConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link account")
	}
	if !linked {
		return nil, appErrors.ErrLinkConflict
	}

	googleID := profile.ProviderUserID
	user.GoogleID = &googleID
	user.Name = profile.Name
	user.Avatar = profile.Avatar
	s.logger.Info("linked provider identity", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthService) refreshProfile(ctx context.Context, user *models.User, profile *oauth.Profile) *models.User {
	if user.Name == profile.Name && user.Avatar == profile.Avatar {
		return user
	}
	if err := s.users.UpdateProfile(ctx, user.ID, profile.Name, profile.Avatar); err != nil {
		s.logger.Warn("failed to refresh profile", zap.String("user_id", user.ID), zap.Error(err))
		return user
	}
	user.Name = profile.Name
	user.Avatar = profile.Avatar
	return user
}

func (s *AuthService) initialRole(email string) models.UserRole {
	if _, ok := s.seeds[strings.ToLower(email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleStudent
}

// IssueToken signs a token and records it as the user's only session.
func (s *AuthService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	if err := s.sessions.Save(ctx, user.ID, token, s.config.SessionTTL); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}
	return token, nil
}

// VerifyToken checks signature, expiry and that the user's session is still live.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	live, err := s.sessions.Exists(ctx, claims.UserID)
	if err != nil {
		s.logger.Warn("session lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session unavailable")
	}
	if !live {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or revoked")
	}
	return claims, nil
}

// Me returns the current user record.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Logout revokes the user's session.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	return nil
}

// Refresh reloads the user so role changes take effect and issues a replacement token.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*models.TokenResult, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.TokenResult{Token: token, User: user}, nil
}
