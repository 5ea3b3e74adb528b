package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration, login and password flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.ResetTokenStore
	tokenMgr   *auth.TokenManager
	mailer     notify.Mailer
	audit      *AuditService
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	baseURL    string
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	ResetTokens repository.ResetTokenStore
	Mailer      notify.Mailer
	Audit       *AuditService
	Logger      *zap.Logger
}

// Session is the result of a successful login or registration.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.ResetTokens,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		mailer:     deps.Mailer,
		audit:      deps.Audit,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		baseURL:    strings.TrimRight(cfg.App.BaseURL, "/"),
		now:        time.Now,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a requester account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password, department string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Department:   strings.TrimSpace(department),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.NewForbidden("account disabled")
	}
	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &user.ID, domain.AuditLogin, map[string]any{"email": user.Email}, ip)
	return session, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", nil)
	}
	if auth.ComparePassword(user.PasswordHash, currentPassword) != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return s.setPassword(ctx, user, newPassword)
}

// RequestPasswordReset emails a single-use token. Unknown or disabled
// accounts get the same silent success so emails cannot be probed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return nil
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	reset := domain.PasswordResetToken{Token: token, UserID: user.ID, ExpiresAt: s.now().UTC().Add(s.resetTTL)}
	if err := s.resets.Save(ctx, reset); err != nil {
		return apperrors.MapError(err)
	}

	if s.mailer == nil {
		return nil
	}
	err = s.mailer.Send(ctx, notify.Message{
		To:       user.Email,
		Subject:  "Password reset",
		Template: notify.TemplatePasswordReset,
		Data: map[string]any{
			"Name":      user.Name,
			"Link":      s.baseURL + "/reset-password?token=" + token,
			"ExpiresIn": s.resetTTL.String(),
		},
	})
	if err != nil && !errors.Is(err, notify.ErrMailDisabled) {
		s.logger.Error("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ConfirmPasswordReset consumes the token and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	reset, err := s.resets.Consume(ctx, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("reset token invalid or expired", nil)
		}
		return apperrors.MapError(err)
	}
	user, err := s.users.GetByID(ctx, reset.UserID)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", nil)
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	s.audit.Record(ctx, &user.ID, domain.AuditPasswordReset, map[string]any{"email": user.Email}, "")
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return apperrors.NotFoundOr(s.users.Update(ctx, user), "user", nil)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, meta, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: meta.ExpiresAt}, nil
}
