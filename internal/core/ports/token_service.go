package ports

import "time"

// TokenClaims is the decoded payload of a session token. Exactly one of
// UserID and AdminID is set on a well-formed token; callers decide which
// one they trust.
type TokenClaims struct {
	UserID    string
	Username  string
	AdminID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies signed session tokens.
type TokenService interface {
	IssueUserToken(userID, username string) (string, error)
	IssueAdminToken(adminID string) (string, error)
	Verify(token string) (*TokenClaims, error)
}
