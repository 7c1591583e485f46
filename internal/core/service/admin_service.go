package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
	"github.com/controld-portal/profile-manager/pkg/metrics"
)

// DefaultHashCost is the bcrypt work factor for newly created accounts.
const DefaultHashCost = 12

// AdminService provisions user and admin accounts.
type AdminService struct {
	users    ports.UserRepository
	admins   ports.AdminRepository
	audit    ports.AuditSink
	log      zerolog.Logger
	hashCost int
}

// AdminOption customises an AdminService.
type AdminOption func(*AdminService)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AdminOption {
	return func(s *AdminService) { s.hashCost = cost }
}

func NewAdminService(
	users ports.UserRepository,
	admins ports.AdminRepository,
	audit ports.AuditSink,
	log zerolog.Logger,
	opts ...AdminOption,
) *AdminService {
	if audit == nil {
		audit = NopAuditSink{}
	}
	s := &AdminService{users: users, admins: admins, audit: audit, log: log, hashCost: DefaultHashCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxPasswordBytes is the most bcrypt hashes; longer input is rejected.
const maxPasswordBytes = 72

// CreateUser stores a new active user. Username and endpoint id are stored
// exactly as given; blank values are rejected. The collision check here only
// gives a friendly error early; a concurrent insert is still caught by the
// store's unique indexes and surfaces as the same domain.ErrUserExists.
func (s *AdminService) CreateUser(ctx context.Context, actor domain.Principal, username, password, endpointID string) (*domain.User, error) {
	if blank(username) || password == "" || blank(endpointID) {
		return nil, domain.ErrInvalidInput
	}
	if len(password) > maxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}

	exists, err := s.users.ExistsByUsernameOrEndpoint(ctx, username, endpointID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if exists {
		s.recordCreated(actor, username, "duplicate")
		return nil, domain.ErrUserExists
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		EndpointID:   endpointID,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.recordCreated(actor, username, "duplicate")
		}
		return nil, err
	}

	metrics.UsersProvisionedTotal.Inc()
	s.recordCreated(actor, username, "")
	s.log.Info().
		Str("user_id", created.ID).
		Str("username", created.Username).
		Str("endpoint_id", created.EndpointID).
		Str("admin_id", actor.ID).
		Msg("user provisioned")

	return created, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateAdmin is used by out-of-band provisioning only; no HTTP route calls it.
func (s *AdminService) CreateAdmin(ctx context.Context, username, password string) (*domain.Admin, error) {
	if blank(username) || password == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(password) > maxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	created, err := s.admins.Create(ctx, &domain.Admin{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("admin_id", created.ID).Str("username", created.Username).Msg("admin provisioned")
	return created, nil
}

func (s *AdminService) hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (s *AdminService) recordCreated(actor domain.Principal, username, reason string) {
	s.audit.Record(domain.AuthEvent{
		Type:      domain.EventUserCreated,
		Username:  username,
		Success:   reason == "",
		Reason:    reason,
		ActorID:   actor.ID,
		Timestamp: time.Now().UTC(),
	})
}
