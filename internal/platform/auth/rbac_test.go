package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		actor   string
		allowed []string
		want    bool
	}{
		{RoleAdmin, []string{RoleAdmin}, true},
		{RoleDoctor, []string{RoleDoctor}, true},
		{RolePatient, []string{RolePatient}, true},
		{RoleAdmin, []string{RoleDoctor}, false},
		{RoleDoctor, []string{RoleAdmin, RolePatient}, false},
		{RolePatient, []string{RolePatient, RoleAdmin}, true},
		{"", []string{RoleAdmin}, false},
	}

	for _, tc := range cases {
		if got := Allowed(tc.actor, tc.allowed...); got != tc.want {
			t.Errorf("Allowed(%q, %v) = %v, want %v", tc.actor, tc.allowed, got, tc.want)
		}
	}
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{AccountID: uuid.New(), Role: RoleDoctor}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	}

	if err := RequireRole(RoleDoctor)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run for matching role")
	}
}

func TestRequireRole_RejectsWrongRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{AccountID: uuid.New(), Role: RolePatient}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		return nil
	}

	err := RequireRole(RoleAdmin)(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if called {
		t.Error("handler must not run for a denied request")
	}
}

func TestRequireRole_AdminHasNoImplicitAccess(t *testing.T) {
	// Admin is not a superuser: a doctor-only route denies admins too.
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{AccountID: uuid.New(), Role: RoleAdmin}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(RoleDoctor)(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on doctor route, got %v", err)
	}
}

func TestRequireRole_RejectsUnauthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(RolePatient)(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_SetsIdentity(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	accountID := uuid.New()
	token, err := issuer.Issue(accountID, RolePatient)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patient/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		identity, ok := IdentityFromContext(c.Request().Context())
		if !ok {
			t.Fatal("expected identity on context")
		}
		if identity.AccountID != accountID {
			t.Errorf("expected account %s, got %s", accountID, identity.AccountID)
		}
		if identity.Role != RolePatient {
			t.Errorf("expected role patient, got %s", identity.Role)
		}
		return c.NoContent(http.StatusOK)
	}

	if err := Middleware(issuer, nil)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/doctors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(issuer, nil)(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_SkipperBypassesAuth(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/auth/login")

	called := false
	handler := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}

	if err := Middleware(issuer, Skipper)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected login path to bypass auth")
	}
}

func TestIsPublicPath(t *testing.T) {
	if !IsPublicPath("/health") {
		t.Error("expected /health to be public")
	}
	if !IsPublicPath("/auth/register") {
		t.Error("expected /auth/register to be public")
	}
	if IsPublicPath("/admin/doctors") {
		t.Error("expected /admin/doctors to require auth")
	}
}
