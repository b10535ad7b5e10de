package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", 2*time.Second, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Accept") != "*/*" || r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected headers: %v", r.Header)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("login must not send a bearer token")
		}
		var body ports.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "alice" || body.Password != "s3cret" {
			t.Fatalf("unexpected body: %+v", body)
		}
		writeJSON(w, 200, `{"status":{"code":"SUCCESS","message":"LOGIN_SUCCESS"},"data":{"accessToken":"tok","tokenType":"Bearer","expiresIn":3600,"user":{"id":7,"username":"alice","roles":["CUSTOMER_READ"]}}}`)
	})

	resp, err := c.Login(context.Background(), ports.LoginRequest{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Status.Message != "LOGIN_SUCCESS" || resp.Data.AccessToken != "tok" || resp.Data.User.ID != "7" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClient_Login_DecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(502)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	if _, err := c.Login(context.Background(), ports.LoginRequest{}); !errors.Is(err, domain.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zerolog.Nop())
	if _, err := c.Login(context.Background(), ports.LoginRequest{}); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, err := c.DeleteCustomer(context.Background(), "tok", 1); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_Register(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if _, ok := body["roles"]; !ok {
				t.Fatalf("roles missing from body: %v", body)
			}
			writeJSON(w, 400, `{"data":{"username":"username is required"},"status":{"code":"BAD_REQUEST","message":"VALIDATION_ERROR"}}`)
		})
		resp, err := c.Register(context.Background(), ports.RegisterRequest{Roles: []string{}})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if !resp.IsJSON || resp.StatusCode != 400 || resp.Status.Message != "VALIDATION_ERROR" {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if !strings.Contains(string(resp.Data), "username is required") {
			t.Fatalf("data not kept: %s", resp.Data)
		}
	})

	t.Run("text", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(503)
			_, _ = io.WriteString(w, "maintenance")
		})
		resp, err := c.Register(context.Background(), ports.RegisterRequest{})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if resp.IsJSON || resp.StatusCode != 503 || resp.RawBody != "maintenance" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})
}

func TestClient_ListCustomers_Query(t *testing.T) {
	cases := []struct {
		name   string
		params ports.ListCustomersParams
		want   string
	}{
		{
			name:   "defaults",
			params: ports.ListCustomersParams{},
			want:   "page=0&size=20",
		},
		{
			name:   "full",
			params: ports.ListCustomersParams{Search: "acme co", Type: "CORPORATE", Status: "ACTIVE", Page: 2, Size: 10, CustomerSort: "DESC"},
			want:   "customerSort=DESC&page=2&search=acme+co&size=10&status=ACTIVE&type=CORPORATE",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/customers" {
					t.Fatalf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.RawQuery; got != tc.want {
					t.Fatalf("query = %q, want %q", got, tc.want)
				}
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Fatalf("missing bearer: %q", r.Header.Get("Authorization"))
				}
				writeJSON(w, 200, `{"data":[],"status":{"code":"SUCCESS"}}`)
			})
			resp, err := c.ListCustomers(context.Background(), "tok", tc.params)
			if err != nil {
				t.Fatalf("ListCustomers: %v", err)
			}
			if string(resp.Data) != "[]" {
				t.Fatalf("unexpected data: %s", resp.Data)
			}
		})
	}
}

func TestClient_ListCustomers_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", 401, `{"status":{"message":"expired"}}`, domain.ErrUnauthorized},
		{"server error", 500, `{"status":{"message":"boom"}}`, domain.ErrBackend},
		{"server error text", 500, `oops`, domain.ErrBackend},
		{"bad json", 200, `not json`, domain.ErrDecodeFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			if _, err := c.ListCustomers(context.Background(), "tok", ports.ListCustomersParams{}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestClient_Mutations(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/v1/customers" {
				t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var p ports.CreateCustomerPayload
			_ = json.NewDecoder(r.Body).Decode(&p)
			if p.Name != "Acme" || p.Type != domain.CustomerTypeCorporate {
				t.Fatalf("unexpected payload: %+v", p)
			}
			writeJSON(w, 201, `{"data":{"id":1,"name":"Acme"},"status":{"code":"SUCCESS","message":"CREATED"}}`)
		})
		resp, err := c.CreateCustomer(context.Background(), "tok", ports.CreateCustomerPayload{Name: "Acme", Type: domain.CustomerTypeCorporate})
		if err != nil {
			t.Fatalf("CreateCustomer: %v", err)
		}
		if !resp.OK() || !resp.Decoded || resp.Status.Code != "SUCCESS" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("update error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/api/v1/customers/42" {
				t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			writeJSON(w, 404, `{"status":{"code":"NOT_FOUND","message":"Customer not found"}}`)
		})
		resp, err := c.UpdateCustomer(context.Background(), "tok", 42, ports.UpdateCustomerPayload{})
		if err != nil {
			t.Fatalf("UpdateCustomer: %v", err)
		}
		if resp.OK() || resp.Status.Message != "Customer not found" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("delete empty body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/customers/42" {
				t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		})
		resp, err := c.DeleteCustomer(context.Background(), "tok", 42)
		if err != nil {
			t.Fatalf("DeleteCustomer: %v", err)
		}
		if !resp.OK() || resp.Decoded || resp.Status != nil {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("delete non json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "deleted")
		})
		resp, err := c.DeleteCustomer(context.Background(), "tok", 1)
		if err != nil {
			t.Fatalf("DeleteCustomer: %v", err)
		}
		if !resp.OK() || resp.Decoded {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})
}
