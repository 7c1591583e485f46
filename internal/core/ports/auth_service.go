package ports

import (
	"context"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

// AuthService covers credential login for both principal kinds and the
// request-time resolution of bearer tokens into principals.
type AuthService interface {
	LoginUser(ctx context.Context, username, password string) (string, *domain.User, error)
	LoginAdmin(ctx context.Context, username, password string) (string, error)
	// Authenticate verifies token and re-loads its subject for the requested
	// kind. A token issued for the other kind is rejected as invalid.
	Authenticate(ctx context.Context, kind domain.PrincipalKind, token string) (domain.Principal, error)
}

// AdminService covers account provisioning.
type AdminService interface {
	CreateUser(ctx context.Context, actor domain.Principal, username, password, endpointID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateAdmin(ctx context.Context, username, password string) (*domain.Admin, error)
}

// AuditSink receives authentication events. Record must not block.
type AuditSink interface {
	Record(event domain.AuthEvent)
}
