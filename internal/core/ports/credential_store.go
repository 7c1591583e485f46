package ports

import (
	"context"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

// UserRepository persists tenant accounts. Implementations must enforce
// uniqueness of username and endpoint id themselves and report violations as
// domain.ErrUserExists.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// ExistsByUsernameOrEndpoint is an advisory pre-check; the store's unique
	// indexes remain the source of truth.
	ExistsByUsernameOrEndpoint(ctx context.Context, username, endpointID string) (bool, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// AdminRepository persists operator accounts.
type AdminRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Admin, error)
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
}

// AuthEventRepository stores the authentication audit trail.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
