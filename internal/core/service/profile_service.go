package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
)

// ProfileService is the tenant resource gateway: it resolves the caller's
// endpoint from the principal and forwards to the upstream profile API.
type ProfileService struct {
	gateway ports.ProfileGateway
	log     zerolog.Logger
}

func NewProfileService(gateway ports.ProfileGateway, log zerolog.Logger) *ProfileService {
	return &ProfileService{gateway: gateway, log: log}
}

func (s *ProfileService) GetProfile(ctx context.Context, principal domain.Principal) (domain.ProfileData, error) {
	if !principal.IsTenant() {
		return nil, domain.ErrNotTenant
	}

	profile, err := s.gateway.FetchProfile(ctx, principal.EndpointID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", principal.ID).Str("endpoint_id", principal.EndpointID).Msg("profile fetch failed")
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, principal domain.Principal, patch domain.ProfileData) (domain.ProfileData, error) {
	if !principal.IsTenant() {
		return nil, domain.ErrNotTenant
	}

	profile, err := s.gateway.UpdateProfile(ctx, principal.EndpointID, patch)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", principal.ID).Str("endpoint_id", principal.EndpointID).Msg("profile update failed")
		return nil, err
	}

	s.log.Info().Str("user_id", principal.ID).Str("endpoint_id", principal.EndpointID).Msg("profile updated")
	return profile, nil
}
