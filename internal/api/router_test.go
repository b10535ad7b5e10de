package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
	"github.com/99minutos/customer-portal/internal/core/service"
)

type tokenSessions struct {
	byToken map[string]*domain.Session
}

func (s *tokenSessions) Issue(context.Context, *domain.Authenticated) (string, *domain.Session, error) {
	return "", nil, domain.ErrUnauthorized
}

func (s *tokenSessions) Parse(_ context.Context, token string) (*domain.Session, error) {
	if sess, ok := s.byToken[token]; ok {
		return sess, nil
	}
	return nil, domain.ErrUnauthorized
}

func (s *tokenSessions) Revoke(context.Context, *domain.Session) error { return nil }

type noBackend struct{}

func (noBackend) Login(context.Context, string, string) (*domain.Authenticated, error) {
	return nil, domain.ErrInvalidCredentials
}

func (noBackend) Register(context.Context, ports.RegisterInput) ports.RegisterOutcome {
	return ports.RegisterOutcome{Error: domain.MsgSomethingWrong}
}

func (noBackend) ListCustomers(context.Context, string, ports.ListCustomersParams) (*ports.ListResponse, error) {
	return &ports.ListResponse{}, nil
}

func (noBackend) CreateCustomer(context.Context, string, ports.CreateCustomerPayload) (*ports.MutationResponse, error) {
	return &ports.MutationResponse{StatusCode: http.StatusCreated}, nil
}

func (noBackend) UpdateCustomer(context.Context, string, int64, ports.UpdateCustomerPayload) (*ports.MutationResponse, error) {
	return &ports.MutationResponse{StatusCode: http.StatusOK}, nil
}

func (noBackend) DeleteCustomer(context.Context, string, int64) (*ports.MutationResponse, error) {
	return &ports.MutationResponse{StatusCode: http.StatusOK}, nil
}

func testSession(id string, roles ...domain.Role) *domain.Session {
	return &domain.Session{ID: id, UserID: "7", Username: "alice", BearerToken: "bearer", Roles: roles, ExpiresAt: time.Now().Add(time.Hour)}
}

func newTestRouter() http.Handler {
	sessions := &tokenSessions{byToken: map[string]*domain.Session{
		"reader": testSession("s-read", domain.RoleCustomerRead),
		"writer": testSession("s-write", domain.RoleCustomerRead, domain.RoleCustomerWrite),
	}}
	return NewRouter(Deps{
		Log:        zerolog.Nop(),
		Cookie:     middleware.CookieConfig{Name: "portal_session"},
		BaseURL:    "http://localhost:3000",
		Sessions:   sessions,
		Auth:       noBackend{},
		Customer:   noBackend{},
		Registry:   service.NewControllerRegistry(noBackend{}, 10*time.Millisecond, zerolog.Nop()),
		Registerer: prometheus.NewRegistry(),
	})
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		token        string
		wantCode     int
		wantLocation string
	}{
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK, ""},
		{"readiness without checks", http.MethodGet, "/health/ready", "", "", http.StatusOK, ""},
		{"protected page anonymous", http.MethodGet, "/customers", "", "", http.StatusFound, "/login?callbackUrl=%2Fcustomers"},
		{"dashboard anonymous", http.MethodGet, "/dashboard", "", "", http.StatusFound, "/login?callbackUrl=%2Fdashboard"},
		{"login page signed in", http.MethodGet, "/login", "", "reader", http.StatusFound, "/customers"},
		{"home signed in", http.MethodGet, "/", "", "reader", http.StatusFound, "/customers"},
		{"login page anonymous", http.MethodGet, "/login", "", "", http.StatusOK, ""},
		{"customer page signed in", http.MethodGet, "/customers", "", "reader", http.StatusOK, ""},
		{"api anonymous", http.MethodGet, "/api/customers", "", "", http.StatusUnauthorized, ""},
		{"api list", http.MethodGet, "/api/customers", "", "reader", http.StatusOK, ""},
		{"create without write", http.MethodPost, "/api/customers", `{"name":"A","type":"CORPORATE","email":"a@b.co","phone":"1"}`, "reader", http.StatusForbidden, ""},
		{"delete with write", http.MethodDelete, "/api/customers/3", "", "writer", http.StatusOK, ""},
		{"session anonymous", http.MethodGet, "/api/auth/session", "", "", http.StatusOK, ""},
		{"sign in rejected", http.MethodPost, "/api/auth/login", `{"username":"a","password":"b"}`, "", http.StatusUnauthorized, ""},
		{"logout", http.MethodPost, "/api/auth/logout", "", "reader", http.StatusSeeOther, "/login"},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: "portal_session", Value: tt.token})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Fatalf("expected redirect to %q, got %q", tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRouter_BearerHeader(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer writer")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"authenticated":true`) || !strings.Contains(rec.Body.String(), `"canWrite":true`) {
		t.Fatalf("bearer session not recognised: %s", rec.Body.String())
	}
}
