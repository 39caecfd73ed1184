package service

import (
	"context"
	"fmt"
	"time"

	"panjar/internal/model"
	"panjar/internal/repository"

	"github.com/google/uuid"
)

type RoleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `json:"is_system"`
	CreatedAt   string `json:"created_at"`
}

type AssignRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,required"`
}

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	AssignRoles(ctx context.Context, userID uuid.UUID, req AssignRolesRequest) (*UserResponse, error)
}

type roleService struct {
	roleRepo  repository.RoleRepository
	userRepo  repository.UserRepository
	txManager repository.TransactionManager
}

func NewRoleService(roleRepo repository.RoleRepository, userRepo repository.UserRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{roleRepo: roleRepo, userRepo: userRepo, txManager: txManager}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

// AssignRoles replaces the roles held by a user. Every name must exist.
func (s *roleService) AssignRoles(ctx context.Context, userID uuid.UUID, req AssignRolesRequest) (*UserResponse, error) {
	if err := validateDTO(req); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.userRepo.GetByID(txCtx, userID)
		if err != nil {
			return lookupErr("user", err)
		}

		roles, err := resolveRoles(txCtx, s.roleRepo, req.Roles)
		if err != nil {
			return err
		}
		if err := s.userRepo.ReplaceRoles(txCtx, user, roles); err != nil {
			return fmt.Errorf("failed to assign roles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func resolveRoles(ctx context.Context, repo repository.RoleRepository, names []string) ([]model.Role, error) {
	roles, err := repo.FindByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	found := make(map[string]bool, len(roles))
	for _, r := range roles {
		found[r.Name] = true
	}
	for _, n := range names {
		if !found[n] {
			return nil, invalidf("unknown role: %s", n)
		}
	}
	return roles, nil
}

func toRoleResponse(r model.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
