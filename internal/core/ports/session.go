package ports

import (
	"context"
	"time"

	"github.com/99minutos/customer-portal/internal/core/domain"
)

// RevocationStore remembers signed-out session ids until their tokens expire.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// SessionSource is the explicit session context handed to controllers and
// actions. Session returns nil when there is no live session.
type SessionSource interface {
	Session() *domain.Session
}

// SessionService issues, verifies and revokes session tokens.
type SessionService interface {
	Issue(ctx context.Context, auth *domain.Authenticated) (string, *domain.Session, error)
	Parse(ctx context.Context, token string) (*domain.Session, error)
	Revoke(ctx context.Context, sess *domain.Session) error
}
