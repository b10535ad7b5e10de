package ports

import (
	"context"

	"github.com/99minutos/customer-portal/internal/core/domain"
)

// RegisterInput is what the registration form submits.
type RegisterInput struct {
	Username string
	Password string
	Roles    []string
}

// RegisterOutcome is the discriminated result of a registration attempt.
type RegisterOutcome struct {
	Success     bool
	Error       string
	FieldErrors map[string]string
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.Authenticated, error)
	Register(ctx context.Context, in RegisterInput) RegisterOutcome
}
