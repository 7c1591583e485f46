package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
	"github.com/controld-portal/profile-manager/pkg/metrics"
)

// AuthService implements credential login and bearer token resolution for
// both users and admins.
type AuthService struct {
	users  ports.UserRepository
	admins ports.AdminRepository
	tokens ports.TokenService
	audit  ports.AuditSink
	log    zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	admins ports.AdminRepository,
	tokens ports.TokenService,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &AuthService{users: users, admins: admins, tokens: tokens, audit: audit, log: log}
}

// LoginUser returns ErrInactiveAccount for both unknown and deactivated
// usernames so callers cannot tell them apart.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, fmt.Errorf("login user: %w", err)
	}
	if user == nil || !user.IsActive {
		s.recordLogin(domain.EventUserLogin, username, "unknown_or_inactive")
		return "", nil, domain.ErrInactiveAccount
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordLogin(domain.EventUserLogin, username, "bad_password")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueUserToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("login user: %w", err)
	}

	s.recordLogin(domain.EventUserLogin, username, "")
	return token, user, nil
}

// LoginAdmin collapses unknown admin and wrong password into one error.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		s.recordLogin(domain.EventAdminLogin, username, "missing_fields")
		return "", domain.ErrInvalidCredentials
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			s.recordLogin(domain.EventAdminLogin, username, "unknown")
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login admin: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		s.recordLogin(domain.EventAdminLogin, username, "bad_password")
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAdminToken(admin.ID)
	if err != nil {
		return "", fmt.Errorf("login admin: %w", err)
	}

	s.recordLogin(domain.EventAdminLogin, username, "")
	return token, nil
}

// Authenticate resolves a bearer token into a principal of the given kind.
//
// Errors:
//   - domain.ErrInvalidToken: bad signature, expired, or the claim for this
//     kind is absent (a token of the other kind).
//   - domain.ErrUserNotFound / domain.ErrInactiveAccount / domain.ErrAdminNotFound:
//     the subject no longer qualifies.
func (s *AuthService) Authenticate(ctx context.Context, kind domain.PrincipalKind, token string) (domain.Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Principal{}, domain.ErrInvalidToken
	}

	switch kind {
	case domain.PrincipalUser:
		if claims.UserID == "" {
			return domain.Principal{}, domain.ErrInvalidToken
		}
		user, err := s.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.Principal{}, domain.ErrUserNotFound
			}
			return domain.Principal{}, fmt.Errorf("authenticate user: %w", err)
		}
		if !user.IsActive {
			return domain.Principal{}, domain.ErrInactiveAccount
		}
		return domain.UserPrincipal(user), nil

	case domain.PrincipalAdmin:
		if claims.AdminID == "" {
			return domain.Principal{}, domain.ErrInvalidToken
		}
		admin, err := s.admins.FindByID(ctx, claims.AdminID)
		if err != nil {
			if errors.Is(err, domain.ErrAdminNotFound) {
				return domain.Principal{}, domain.ErrAdminNotFound
			}
			return domain.Principal{}, fmt.Errorf("authenticate admin: %w", err)
		}
		return domain.AdminPrincipal(admin), nil
	}

	return domain.Principal{}, domain.ErrInvalidToken
}

func (s *AuthService) recordLogin(typ domain.AuthEventType, username, reason string) {
	result := "success"
	if reason != "" {
		result = "failure"
		s.log.Info().Str("event", string(typ)).Str("username", username).Str("reason", reason).Msg("login rejected")
	}
	metrics.LoginAttemptsTotal.WithLabelValues(string(typ), result).Inc()

	s.audit.Record(domain.AuthEvent{
		Type:      typ,
		Username:  username,
		Success:   reason == "",
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// NopAuditSink discards events.
type NopAuditSink struct{}

func (NopAuditSink) Record(domain.AuthEvent) {}
