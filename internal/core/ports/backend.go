package ports

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/99minutos/customer-portal/internal/core/domain"
)

// Status messages and codes used by the customer API envelope.
const (
	StatusLoginSuccess    = "LOGIN_SUCCESS"
	StatusRegisterSuccess = "REGISTER_SUCCESS"
	StatusCodeSuccess     = "SUCCESS"
)

// APIStatus is the {code, message} block present on every backend envelope.
type APIStatus struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageOr returns the status message, or fallback when there is none.
func (s *APIStatus) MessageOr(fallback string) string {
	if s == nil || s.Message == "" {
		return fallback
	}
	return s.Message
}

// FlexID accepts both numeric and string identifiers.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// --- Auth endpoints ---

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID       FlexID   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type LoginData struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int64     `json:"expiresIn"`
	User        LoginUser `json:"user"`
}

type LoginResponse struct {
	Data   *LoginData `json:"data"`
	Status *APIStatus `json:"status"`
}

type RegisterRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// RegisterResponse is the raw outcome of a registration call. When the
// backend did not answer JSON, IsJSON is false and RawBody holds the text.
type RegisterResponse struct {
	StatusCode int
	IsJSON     bool
	Status     *APIStatus
	Data       json.RawMessage
	RawBody    string
}

// --- Customer endpoints ---

type ListCustomersParams struct {
	Search       string
	Type         string
	Status       string
	Page         int
	Size         int
	CustomerSort string
}

// ListResponse keeps data undecoded: its shape varies per backend version.
type ListResponse struct {
	Status *APIStatus      `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type CreateCustomerPayload struct {
	Name  string              `json:"name"`
	Type  domain.CustomerType `json:"type"`
	Email string              `json:"email"`
	Phone string              `json:"phone"`
}

type UpdateCustomerPayload struct {
	Name   string                `json:"name"`
	Type   domain.CustomerType   `json:"type"`
	Email  string                `json:"email"`
	Phone  string                `json:"phone"`
	Status domain.CustomerStatus `json:"status"`
}

// MutationResponse is the outcome of a create/update/delete call. Decoded is
// false when the body was empty or not JSON.
type MutationResponse struct {
	StatusCode int
	Decoded    bool
	Status     *APIStatus
	Data       json.RawMessage
}

// OK reports a 2xx HTTP status.
func (r *MutationResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// CustomerAPI is the backend's bearer-authorized customer surface.
type CustomerAPI interface {
	ListCustomers(ctx context.Context, token string, params ListCustomersParams) (*ListResponse, error)
	CreateCustomer(ctx context.Context, token string, payload CreateCustomerPayload) (*MutationResponse, error)
	UpdateCustomer(ctx context.Context, token string, id int64, payload UpdateCustomerPayload) (*MutationResponse, error)
	DeleteCustomer(ctx context.Context, token string, id int64) (*MutationResponse, error)
}
