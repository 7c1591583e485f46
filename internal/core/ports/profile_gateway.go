package ports

import (
	"context"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

// ProfileGateway is the external profile API keyed by endpoint id.
type ProfileGateway interface {
	FetchProfile(ctx context.Context, endpointID string) (domain.ProfileData, error)
	UpdateProfile(ctx context.Context, endpointID string, patch domain.ProfileData) (domain.ProfileData, error)
}

// ProfileService exposes the caller's own profile. The endpoint id is taken
// from the principal only.
type ProfileService interface {
	GetProfile(ctx context.Context, principal domain.Principal) (domain.ProfileData, error)
	UpdateProfile(ctx context.Context, principal domain.Principal, patch domain.ProfileData) (domain.ProfileData, error)
}
