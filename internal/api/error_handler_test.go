package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

func handle(t *testing.T, method string, err error) (int, string) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	if method == http.MethodHead {
		return rec.Code, rec.Body.String()
	}
	var body errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
	}
	return rec.Code, body.Error
}

func TestErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"http error", echo.NewHTTPError(http.StatusUnauthorized, "Access token required"), http.StatusUnauthorized, "Access token required"},
		{"upstream message", &domain.UpstreamError{Op: "update", StatusCode: 400, Message: "quota exceeded"}, http.StatusInternalServerError, "quota exceeded"},
		{"wrapped upstream", fmt.Errorf("svc: %w", &domain.UpstreamError{Op: "fetch", Message: "Failed to fetch profile"}), http.StatusInternalServerError, "Failed to fetch profile"},
		{"not tenant", domain.ErrNotTenant, http.StatusForbidden, "Invalid or inactive user"},
		{"duplicate", fmt.Errorf("create: %w", domain.ErrUserExists), http.StatusBadRequest, "Username or endpoint ID already exists"},
		{"unknown", errors.New("mongo: server selection timeout 10.0.0.5:27017"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := handle(t, http.MethodGet, tc.err)
			if status != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, status)
			}
			if msg != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, msg)
			}
		})
	}
}

func TestErrorHandler_HeadHasNoBody(t *testing.T) {
	status, body := handle(t, http.MethodHead, errors.New("boom"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body != "" {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("response was modified: %d %q", rec.Code, rec.Body.String())
	}
}
