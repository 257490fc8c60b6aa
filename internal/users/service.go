package users

import (
	"context"
	"log/slog"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// Service handles account administration rules.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns accounts for the admin console.
func (s *Service) List(ctx context.Context, actor rbac.AccessContext, search string, page shared.Pagination) ([]User, shared.Pagination, error) {
	if !rbac.HasPermission(actor, rbac.PermUsersManage) {
		return nil, shared.Pagination{}, httpx.ErrForbidden
	}
	page = shared.NewPagination(page.Page, page.PerPage, 0)
	items, total, err := s.repo.List(ctx, search, page.PerPage, page.Offset())
	if err != nil {
		s.logger.Error("list users", slog.Any("error", err))
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// SetActive toggles an account on or off.
func (s *Service) SetActive(ctx context.Context, actor rbac.AccessContext, id string, active bool) error {
	if !rbac.HasPermission(actor, rbac.PermUsersManage) {
		return httpx.ErrForbidden
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.UserID, "users.set_active", id, map[string]any{"active": active})
	return nil
}

// SetRole changes an account's role. Granting or revoking admin roles is a
// super-admin capability.
func (s *Service) SetRole(ctx context.Context, actor rbac.AccessContext, id string, role rbac.Role) error {
	if !role.Valid() {
		return httpx.ErrValidation
	}
	needed := rbac.PermUsersManage
	if role == rbac.RoleAdmin || role == rbac.RoleSuperAdmin {
		needed = rbac.PermAdminsManage
	}
	if !rbac.HasPermission(actor, needed) {
		return httpx.ErrForbidden
	}
	previous, err := s.repo.SetRole(ctx, id, string(role))
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor.UserID, "users.set_role", id, map[string]any{"role": role, "previous": previous})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, userID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "user", EntityID: userID, Meta: meta})
	if err != nil {
		s.logger.Warn("audit users", slog.Any("error", err))
	}
}
