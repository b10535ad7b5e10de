package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

const (
	msgInvalidResponse = "Invalid response from server"
	msgRegisterFailed  = "Registration failed. Please try again."
	rawBodyPreview     = 100
)

var registerFields = []string{"username", "password", "roles"}

// AuthService exchanges credentials with the customer API. It stores nothing;
// the session layer owns what comes out of a successful exchange.
type AuthService struct {
	api    ports.AuthAPI
	apiURL string
	log    zerolog.Logger
}

func NewAuthService(api ports.AuthAPI, apiURL string, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, apiURL: apiURL, log: log}
}

// Login performs one credential exchange. Every failure, including transport
// and decode failures, is reported as domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Authenticated, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	resp, err := s.api.Login(ctx, ports.LoginRequest{Username: username, Password: password})
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("credential exchange failed")
		return nil, domain.ErrInvalidCredentials
	}
	if !loginSucceeded(resp) {
		return nil, domain.ErrInvalidCredentials
	}

	user := resp.Data.User
	name := user.Username
	if name == "" {
		name = username
	}
	var ttl time.Duration
	if resp.Data.ExpiresIn > 0 {
		ttl = time.Duration(resp.Data.ExpiresIn) * time.Second
	}

	return &domain.Authenticated{
		BearerToken: resp.Data.AccessToken,
		ExpiresIn:   ttl,
		User: domain.AuthUser{
			ID:       string(user.ID),
			Username: name,
			Roles:    domain.RoleSet(user.Roles).Clone(),
		},
	}, nil
}

func loginSucceeded(resp *ports.LoginResponse) bool {
	return resp != nil &&
		resp.Data != nil &&
		resp.Data.AccessToken != "" &&
		resp.Status != nil &&
		resp.Status.Message == ports.StatusLoginSuccess
}

// Register creates a user. It never returns a raw error; the outcome carries
// the banner message and any field-level messages for the form.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) ports.RegisterOutcome {
	roles := in.Roles
	if roles == nil {
		roles = []string{}
	}

	resp, err := s.api.Register(ctx, ports.RegisterRequest{
		Username: in.Username,
		Password: in.Password,
		Roles:    roles,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("username", in.Username).Msg("registration request failed")
		if errors.Is(err, domain.ErrNetwork) {
			return ports.RegisterOutcome{Error: fmt.Sprintf("Cannot reach server. Is the API running at %s?", s.apiURL)}
		}
		return ports.RegisterOutcome{Error: domain.MsgSomethingWrong}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !resp.IsJSON {
		if ok {
			return ports.RegisterOutcome{Error: msgInvalidResponse}
		}
		return ports.RegisterOutcome{Error: fmt.Sprintf("Request failed (%d): %s", resp.StatusCode, preview(resp.RawBody))}
	}

	if ok && resp.Status != nil && resp.Status.Message == ports.StatusRegisterSuccess {
		return ports.RegisterOutcome{Success: true}
	}

	if fields, isValidation := fieldErrorsFrom(resp.Data, registerFields...); isValidation {
		return ports.RegisterOutcome{
			Error:       resp.Status.MessageOr(domain.MsgInvalidRequest),
			FieldErrors: fields,
		}
	}
	return ports.RegisterOutcome{Error: resp.Status.MessageOr(msgRegisterFailed)}
}

func preview(body string) string {
	r := []rune(body)
	if len(r) > rawBodyPreview {
		return string(r[:rawBodyPreview])
	}
	return body
}
