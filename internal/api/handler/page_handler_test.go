package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
)

func decodePage(t *testing.T, body []byte) pageDescriptor {
	t.Helper()
	var p pageDescriptor
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return p
}

func TestPageHandler_Home(t *testing.T) {
	h := NewPageHandler()

	c, rec := newJSONContext(http.MethodGet, "/", "")
	middleware.SetSession(c, signedIn())
	if err := h.Home(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/customers" {
		t.Fatalf("signed-in home must redirect to /customers, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	c, rec = newJSONContext(http.MethodGet, "/", "")
	if err := h.Home(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if p := decodePage(t, rec.Body.Bytes()); p.Page != "home" || p.Links.Login != "/login" {
		t.Fatalf("unexpected descriptor: %+v", p)
	}
}

func TestPageHandler_LoginBanner(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantKind string
		wantMsg  string
	}{
		{"none", "", "", ""},
		{"credentials", "?error=CredentialsSignin", "error", "Invalid username or password"},
		{"configuration", "?error=Configuration", "error", "Authentication configuration error. Please check SESSION_SECRET and BASE_URL."},
		{"verbatim", "?error=AccessDenied", "error", "AccessDenied"},
		{"registered", "?registered=true", "success", "Registration successful. Please sign in."},
		{"error wins", "?error=CredentialsSignin&registered=true", "error", "Invalid username or password"},
	}

	h := NewPageHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodGet, "/login"+tt.query, "")
			if err := h.Login(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			p := decodePage(t, rec.Body.Bytes())
			if tt.wantKind == "" {
				if p.Banner != nil {
					t.Fatalf("expected no banner, got %+v", p.Banner)
				}
				return
			}
			if p.Banner == nil || p.Banner.Kind != tt.wantKind || p.Banner.Message != tt.wantMsg {
				t.Fatalf("unexpected banner: %+v", p.Banner)
			}
		})
	}
}

func TestPageHandler_LoginCallback(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/login?callbackUrl=%2Fdashboard", "")
	if err := NewPageHandler().Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if p := decodePage(t, rec.Body.Bytes()); p.CallbackURL != "/dashboard" {
		t.Fatalf("unexpected callback %q", p.CallbackURL)
	}
}

func TestPageHandler_RegisterRoles(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/register", "")
	if err := NewPageHandler().Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	p := decodePage(t, rec.Body.Bytes())
	if len(p.Roles) != 2 || p.Roles[0].Value != domain.RoleCustomerRead || p.Roles[1].Value != domain.RoleCustomerWrite {
		t.Fatalf("unexpected role options: %+v", p.Roles)
	}
}

func TestPageHandler_Customers(t *testing.T) {
	h := NewPageHandler()

	c, rec := newJSONContext(http.MethodGet, "/customers", "")
	middleware.SetSession(c, signedIn(domain.RoleCustomerRead, domain.RoleCustomerWrite))
	if err := h.Customers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	p := decodePage(t, rec.Body.Bytes())
	if p.Page != "customers" || !p.CanWrite || p.User == nil || p.User.Username != "alice" {
		t.Fatalf("unexpected descriptor: %+v", p)
	}

	c, _ = newJSONContext(http.MethodGet, "/dashboard", "")
	var he *echo.HTTPError
	if err := h.Dashboard(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %v", err)
	}
}
