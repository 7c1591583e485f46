package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/controld-portal/profile-manager/internal/api/middleware"
	"github.com/controld-portal/profile-manager/internal/core/domain"
)

type stubAuthService struct {
	loginUserFn  func(ctx context.Context, username, password string) (string, *domain.User, error)
	loginAdminFn func(ctx context.Context, username, password string) (string, error)
}

func (s *stubAuthService) LoginUser(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginUserFn(ctx, username, password)
}

func (s *stubAuthService) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	return s.loginAdminFn(ctx, username, password)
}

func (s *stubAuthService) Authenticate(context.Context, domain.PrincipalKind, string) (domain.Principal, error) {
	panic("Authenticate is exercised by the middleware tests")
}

type stubAdminService struct {
	createUserFn func(ctx context.Context, actor domain.Principal, username, password, endpointID string) (*domain.User, error)
	listUsersFn  func(ctx context.Context) ([]*domain.User, error)
}

func (s *stubAdminService) CreateUser(ctx context.Context, actor domain.Principal, username, password, endpointID string) (*domain.User, error) {
	return s.createUserFn(ctx, actor, username, password, endpointID)
}

func (s *stubAdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listUsersFn(ctx)
}

func (s *stubAdminService) CreateAdmin(context.Context, string, string) (*domain.Admin, error) {
	panic("CreateAdmin has no HTTP route")
}

type stubProfileService struct {
	getFn    func(ctx context.Context, p domain.Principal) (domain.ProfileData, error)
	updateFn func(ctx context.Context, p domain.Principal, patch domain.ProfileData) (domain.ProfileData, error)
}

func (s *stubProfileService) GetProfile(ctx context.Context, p domain.Principal) (domain.ProfileData, error) {
	return s.getFn(ctx, p)
}

func (s *stubProfileService) UpdateProfile(ctx context.Context, p domain.Principal, patch domain.ProfileData) (domain.ProfileData, error) {
	return s.updateFn(ctx, p, patch)
}

// newContext builds an echo context with the validator installed and, when
// principal is non-nil, the principal the guard would have attached.
func newContext(method, target, body string, principal *domain.Principal) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(middleware.PrincipalKey, *principal)
	}
	return c, rec, e
}

// run invokes h and renders any returned error with echo's default handler.
func run(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
}

var (
	alice = domain.Principal{Kind: domain.PrincipalUser, ID: "u1", Username: "alice", EndpointID: "e1"}
	root  = domain.Principal{Kind: domain.PrincipalAdmin, ID: "a1", Username: "root"}
)

