package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// SettingsProvider is the injected read side of the settings document.
type SettingsProvider interface {
	Current(ctx context.Context) (domain.Settings, error)
}

// cacheInvalidator is implemented by cached settings repositories.
type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SettingsService owns the process-wide settings document.
type SettingsService struct {
	repo   repository.SettingsRepository
	users  repository.UserRepository
	audit  *AuditService
	logger *zap.Logger
	now    func() time.Time
}

// NewSettingsService builds the service.
func NewSettingsService(repo repository.SettingsRepository, users repository.UserRepository, audit *AuditService, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, users: users, audit: audit, logger: logger, now: time.Now}
}

// Current returns the stored document merged over the defaults.
func (s *SettingsService) Current(ctx context.Context) (domain.Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, apperrors.MapError(err)
	}
	return withDefaults(*stored), nil
}

// Public returns the fields shown to anonymous visitors.
func (s *SettingsService) Public(ctx context.Context) (name, logoURL string, err error) {
	current, err := s.Current(ctx)
	if err != nil {
		return "", "", err
	}
	return current.AppName, current.LogoURL, nil
}

// Update replaces the document after re-checking the actor's password. Last writer wins.
func (s *SettingsService) Update(ctx context.Context, actor *domain.User, password string, next domain.Settings, ip string) (domain.Settings, error) {
	if !auth.CanManageSettings(actor) {
		return domain.Settings{}, apperrors.NewForbidden("settings are restricted to administrators")
	}
	fresh, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return domain.Settings{}, apperrors.NotFoundOr(err, "user", nil)
	}
	if password == "" || auth.ComparePassword(fresh.PasswordHash, password) != nil {
		return domain.Settings{}, apperrors.NewUnauthorized("password confirmation failed")
	}
	if err := validateSettings(next); err != nil {
		return domain.Settings{}, err
	}

	previous, err := s.Current(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if next.SMTP.Password == "" {
		next.SMTP.Password = previous.SMTP.Password
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, &next); err != nil {
		return domain.Settings{}, apperrors.MapError(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.AuditSettingsUpdated, map[string]any{
		"app_name":  next.AppName,
		"sla_hours": next.SLAHours,
	}, ip)
	return withDefaults(next), nil
}

// Reload drops any cached copy and re-reads the store.
func (s *SettingsService) Reload(ctx context.Context) (domain.Settings, error) {
	if inv, ok := s.repo.(cacheInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.logger.Warn("settings cache invalidation failed", zap.Error(err))
		}
	}
	return s.Current(ctx)
}

func withDefaults(s domain.Settings) domain.Settings {
	defaults := domain.DefaultSettings()
	if s.AppName == "" {
		s.AppName = defaults.AppName
	}
	if s.SLAHours == nil {
		s.SLAHours = defaults.SLAHours
	}
	if s.ModuleAccess == nil {
		s.ModuleAccess = defaults.ModuleAccess
	} else {
		for module, roles := range defaults.ModuleAccess {
			if _, ok := s.ModuleAccess[module]; !ok {
				s.ModuleAccess[module] = roles
			}
		}
	}
	return s
}

func validateSettings(s domain.Settings) error {
	for priority, hours := range s.SLAHours {
		if !priority.Valid() {
			return apperrors.NewValidationError("unknown priority in sla_hours", map[string]any{"priority": priority})
		}
		if hours <= 0 {
			return apperrors.NewValidationError("sla hours must be positive", map[string]any{"priority": priority})
		}
	}
	for module, roles := range s.ModuleAccess {
		for _, role := range roles {
			if !role.Valid() {
				return apperrors.NewValidationError(fmt.Sprintf("unknown role for module %s", module), map[string]any{"role": role})
			}
		}
	}
	if s.SMTP.Enabled && s.SMTP.Host == "" {
		return apperrors.NewValidationError("smtp host required when email is enabled", nil)
	}
	return nil
}
