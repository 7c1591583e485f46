package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
)

const (
	UserTokenTTL  = 24 * time.Hour
	AdminTokenTTL = 7 * 24 * time.Hour
)

// sessionClaims is the wire shape of both token kinds. User tokens carry
// userId and username, admin tokens carry adminId.
type sessionClaims struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	AdminID  string `json:"adminId,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 session tokens with a single process-wide secret.
type TokenService struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: signing secret is empty")
	}
	return &TokenService{
		secret:   []byte(secret),
		userTTL:  UserTokenTTL,
		adminTTL: AdminTokenTTL,
		now:      time.Now,
	}, nil
}

func (s *TokenService) IssueUserToken(userID, username string) (string, error) {
	return s.sign(sessionClaims{UserID: userID, Username: username}, s.userTTL)
}

func (s *TokenService) IssueAdminToken(adminID string) (string, error) {
	return s.sign(sessionClaims{AdminID: adminID}, s.adminTTL)
}

func (s *TokenService) sign(claims sessionClaims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. It does not decide which
// principal kind the token belongs to.
func (s *TokenService) Verify(token string) (*ports.TokenClaims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	return &ports.TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		AdminID:   claims.AdminID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
