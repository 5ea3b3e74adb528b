package service

import (
	"context"
	"errors"
	"strings"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// UserService is the administrative side of account management.
type UserService struct {
	users      repository.UserRepository
	audit      *AuditService
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, audit *AuditService, bcryptCost int) *UserService {
	return &UserService{users: users, audit: audit, bcryptCost: bcryptCost}
}

// UserCreateInput describes an account created by an administrator.
type UserCreateInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	Department string
}

// UserUpdateInput is a partial account update.
type UserUpdateInput struct {
	Name       *string
	Role       *domain.Role
	Department *string
	Active     *bool
	Password   *string
}

// List returns accounts matching filter.
func (s *UserService) List(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if !auth.CanManageUsers(actor) {
		return nil, apperrors.NewForbidden("user management is restricted to administrators")
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListAgents returns active staff eligible for assignment.
func (s *UserService) ListAgents(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !auth.IsStaff(actor) {
		return nil, apperrors.NewForbidden("agent listing is restricted to staff")
	}
	active := true
	users, err := repository.ListAllUsers(ctx, s.users, repository.UserFilter{
		Roles:  []domain.Role{domain.RoleAgent, domain.RoleAdmin},
		Active: &active,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Create adds an account with any role the actor may grant.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserCreateInput, ip string) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if !auth.CanGrantRole(actor, role) {
		return nil, apperrors.NewForbidden("not allowed to grant this role")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         role,
		Department:   strings.TrimSpace(input.Department),
		Active:       true,
	}
	if user.Name == "" || user.Email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}
	s.audit.Record(ctx, &actor.ID, domain.AuditUserCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	}, ip)
	return user, nil
}

// Update changes role, activation, profile or password of an account.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, input UserUpdateInput, ip string) (*domain.User, error) {
	if !auth.CanManageUsers(actor) {
		return nil, apperrors.NewForbidden("user management is restricted to administrators")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	if user.ID != actor.ID && !auth.CanGrantRole(actor, user.Role) {
		return nil, apperrors.NewForbidden("not allowed to modify this account")
	}

	changed := map[string]any{"user_id": user.ID}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
		changed["name"] = name
	}
	if input.Department != nil {
		user.Department = strings.TrimSpace(*input.Department)
		changed["department"] = user.Department
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		if !auth.CanGrantRole(actor, *input.Role) {
			return nil, apperrors.NewForbidden("not allowed to grant this role")
		}
		user.Role = *input.Role
		changed["role"] = user.Role
	}
	if input.Active != nil {
		if user.ID == actor.ID && !*input.Active {
			return nil, apperrors.NewConflict("cannot deactivate your own account", nil)
		}
		user.Active = *input.Active
		changed["active"] = user.Active
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		changed["password"] = "changed"
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	s.audit.Record(ctx, &actor.ID, domain.AuditUserUpdated, changed, ip)
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id, ip string) error {
	if !auth.CanManageUsers(actor) {
		return apperrors.NewForbidden("user management is restricted to administrators")
	}
	if actor.ID == id {
		return apperrors.NewConflict("cannot delete your own account", nil)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	if !auth.CanGrantRole(actor, user.Role) {
		return apperrors.NewForbidden("not allowed to delete this account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	s.audit.Record(ctx, &actor.ID, domain.AuditUserDeleted, map[string]any{"user_id": id, "email": user.Email}, ip)
	return nil
}
