package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type countingStore struct {
	limit int
	seen  map[string]int
	err   error
}

func (s *countingStore) Allow(id string) (bool, error) {
	if s.err != nil {
		return true, s.err
	}
	if s.seen == nil {
		s.seen = map[string]int{}
	}
	s.seen[id]++
	return s.seen[id] <= s.limit, nil
}

func limitedServer(store *countingStore) *echo.Echo {
	e := echo.New()
	e.Use(RateLimit(store, zerolog.Nop()))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	return e
}

func get(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	e := limitedServer(&countingStore{limit: 2})

	for i := 0; i < 2; i++ {
		if rec := get(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := get(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := errorMessage(t, rec); got != rateLimitedMessage {
		t.Fatalf("unexpected message %q", got)
	}

	if rec := get(e, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", rec.Code)
	}
}

func TestRateLimit_StoreErrorFailsOpen(t *testing.T) {
	e := limitedServer(&countingStore{limit: 0, err: errors.New("redis down")})

	if rec := get(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
