package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

	validRoles = map[string]bool{
		entity.RoleAdmin:              true,
		entity.RoleSupervisor:         true,
		entity.RoleMaintenanceTech:    true,
		entity.RoleMaintenanceManager: true,
		entity.RoleInventoryManager:   true,
	}
)

// UserService administrator-managed local accounts. Deleting deactivates.
type UserService struct {
	repo  *repository.UserRepository
	audit *AuditWriter
}

func NewUserService(repos *repository.Repositories, audit *AuditWriter) *UserService {
	return &UserService{repo: repos.User, audit: audit}
}

// CreateUserRequest new account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest partial update; nil fields are left alone
type UpdateUserRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func (s *UserService) List(ctx context.Context, params repository.UserListParams) ([]entity.User, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "User")
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, actor entity.Actor, req *CreateUserRequest) (*entity.User, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can manage users")
	}
	username := strings.TrimSpace(req.Username)
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if err := validateUserFields(username, strings.TrimSpace(req.FullName), role); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, username, ""); err != nil {
		return nil, err
	}

	user := &entity.User{
		Username: username,
		FullName: strings.TrimSpace(req.FullName),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionCreate,
		EntityType:  entity.EntityUser,
		EntityID:    user.ID,
		Description: "User created: " + user.Username,
		NewValues:   user,
	})
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor entity.Actor, id string, req *UpdateUserRequest) (*entity.User, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can manage users")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *user
	if req.Username != nil {
		next.Username = strings.TrimSpace(*req.Username)
	}
	if req.FullName != nil {
		next.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		next.Role = strings.ToUpper(*req.Role)
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}
	if err := validateUserFields(next.Username, next.FullName, next.Role); err != nil {
		return nil, err
	}
	if next.Username != user.Username {
		if err := s.ensureUsernameFree(ctx, next.Username, user.ID); err != nil {
			return nil, err
		}
	}
	if user.ID == actor.UserID && (!next.IsActive || next.Role != user.Role) {
		return nil, newError(ErrInvalidInput, "Cannot deactivate or change the role of your own account")
	}

	if err := s.repo.Updates(ctx, user.ID, map[string]interface{}{
		"username":  next.Username,
		"full_name": next.FullName,
		"role":      next.Role,
		"is_active": next.IsActive,
	}); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntityUser,
		EntityID:    user.ID,
		Description: "User updated: " + next.Username,
		OldValues:   user,
		NewValues:   next,
	})
	return s.Get(ctx, user.ID)
}

// Deactivate soft deletes an account.
func (s *UserService) Deactivate(ctx context.Context, actor entity.Actor, id string) error {
	if !actor.IsAdmin() {
		return newError(ErrForbidden, "Only administrators can manage users")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return newError(ErrInvalidInput, "Cannot delete your own account")
	}
	if err := s.repo.Updates(ctx, user.ID, map[string]interface{}{"is_active": false}); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionDelete,
		EntityType:  entity.EntityUser,
		EntityID:    user.ID,
		Description: "User deactivated: " + user.Username,
		OldValues:   map[string]interface{}{"is_active": user.IsActive},
		NewValues:   map[string]interface{}{"is_active": false},
	})
	return nil
}

func validateUserFields(username, fullName, role string) error {
	if !usernamePattern.MatchString(username) {
		return newError(ErrInvalidInput, "Username must be 3-50 letters, numbers, underscores or hyphens")
	}
	if n := len([]rune(fullName)); n < 2 || n > 100 {
		return newError(ErrInvalidInput, "Full name must be 2-100 characters")
	}
	if !validRoles[role] {
		return newError(ErrInvalidInput, "Invalid role: %s", role)
	}
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if existing.ID != selfID {
		return newError(ErrInvalidInput, "The username '%s' is already taken", username)
	}
	return nil
}
