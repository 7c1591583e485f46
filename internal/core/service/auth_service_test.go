package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

type authFixture struct {
	svc    *AuthService
	users  *stubUserRepo
	admins *stubAdminRepo
	tokens *TokenService
	audit  *recordingAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := NewTokenService("secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	f := &authFixture{
		users:  newStubUserRepo(),
		admins: newStubAdminRepo(),
		tokens: tokens,
		audit:  &recordingAudit{},
	}
	f.svc = NewAuthService(f.users, f.admins, tokens, f.audit, zerolog.Nop())
	return f
}

func TestAuthService_LoginUser_Success(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.users.seed(t, "alice", "correct", "e-alice", true)

	token, user, err := f.svc.LoginUser(context.Background(), "alice", "correct")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.ID != seeded.ID || user.EndpointID != "e-alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims, err := f.tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != seeded.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if ev := f.audit.last(); ev.Type != domain.EventUserLogin || !ev.Success {
		t.Fatalf("expected successful login audit event, got %+v", ev)
	}
}

func TestAuthService_LoginUser_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.users.seed(t, "alice", "correct", "e-alice", true)

	if _, _, err := f.svc.LoginUser(context.Background(), "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if ev := f.audit.last(); ev.Success || ev.Reason != "bad_password" {
		t.Fatalf("expected failed audit event, got %+v", ev)
	}
}

func TestAuthService_LoginUser_UnknownAndInactiveAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.users.seed(t, "mallory", "correct", "e-mallory", false)

	_, _, errUnknown := f.svc.LoginUser(context.Background(), "ghost", "whatever")
	_, _, errInactive := f.svc.LoginUser(context.Background(), "mallory", "correct")

	if !errors.Is(errUnknown, domain.ErrInactiveAccount) || !errors.Is(errInactive, domain.ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount for both, got %v / %v", errUnknown, errInactive)
	}
}

func TestAuthService_LoginUser_MissingFields(t *testing.T) {
	f := newAuthFixture(t)

	if _, _, err := f.svc.LoginUser(context.Background(), "", "pwd"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := f.svc.LoginUser(context.Background(), "alice", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_LoginUser_StoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	boom := errors.New("connection reset")
	f.users.findErr = boom

	if _, _, err := f.svc.LoginUser(context.Background(), "alice", "pwd"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthService_LoginAdmin(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.admins.seed(t, "root", "hunter2")

	token, err := f.svc.LoginAdmin(context.Background(), "root", "hunter2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := f.tokens.Verify(token)
	if err != nil || claims.AdminID != admin.ID {
		t.Fatalf("unexpected claims %+v (err %v)", claims, err)
	}

	if _, err := f.svc.LoginAdmin(context.Background(), "root", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := f.svc.LoginAdmin(context.Background(), "nobody", "hunter2"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown admin, got %v", err)
	}
}

func TestAuthService_Authenticate_User(t *testing.T) {
	f := newAuthFixture(t)
	u := f.users.seed(t, "alice", "correct", "e-alice", true)
	token, _ := f.tokens.IssueUserToken(u.ID, u.Username)

	p, err := f.svc.Authenticate(context.Background(), domain.PrincipalUser, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Kind != domain.PrincipalUser || p.ID != u.ID || p.EndpointID != "e-alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthService_Authenticate_InactiveUserRejectedBeforeExpiry(t *testing.T) {
	f := newAuthFixture(t)
	u := f.users.seed(t, "alice", "correct", "e-alice", true)
	token, _ := f.tokens.IssueUserToken(u.ID, u.Username)

	f.users.byID[u.ID].IsActive = false

	if _, err := f.svc.Authenticate(context.Background(), domain.PrincipalUser, token); !errors.Is(err, domain.ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestAuthService_Authenticate_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	token, _ := f.tokens.IssueUserToken("user-404", "ghost")

	if _, err := f.svc.Authenticate(context.Background(), domain.PrincipalUser, token); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Authenticate_CrossKindFailsClosed(t *testing.T) {
	f := newAuthFixture(t)
	u := f.users.seed(t, "alice", "correct", "e-alice", true)
	a := f.admins.seed(t, "root", "hunter2")

	userToken, _ := f.tokens.IssueUserToken(u.ID, u.Username)
	adminToken, _ := f.tokens.IssueAdminToken(a.ID)

	if _, err := f.svc.Authenticate(context.Background(), domain.PrincipalAdmin, userToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("user token on admin path: expected ErrInvalidToken, got %v", err)
	}
	if _, err := f.svc.Authenticate(context.Background(), domain.PrincipalUser, adminToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("admin token on user path: expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Authenticate_Admin(t *testing.T) {
	f := newAuthFixture(t)
	a := f.admins.seed(t, "root", "hunter2")
	token, _ := f.tokens.IssueAdminToken(a.ID)

	p, err := f.svc.Authenticate(context.Background(), domain.PrincipalAdmin, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Kind != domain.PrincipalAdmin || p.ID != a.ID || p.Username != "root" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.EndpointID != "" || p.IsTenant() {
		t.Fatalf("admin principal must not be a tenant: %+v", p)
	}

	orphan, _ := f.tokens.IssueAdminToken("admin-404")
	if _, err := f.svc.Authenticate(context.Background(), domain.PrincipalAdmin, orphan); !errors.Is(err, domain.ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}

func TestAuthService_Authenticate_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.users.seed(t, "alice", "correct", "e-alice", true)

	issuedAt := time.Now().Add(-48 * time.Hour)
	f.tokens.now = func() time.Time { return issuedAt }
	token, _ := f.tokens.IssueUserToken(u.ID, u.Username)
	f.tokens.now = time.Now

	if _, err := f.svc.Authenticate(context.Background(), domain.PrincipalUser, token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
