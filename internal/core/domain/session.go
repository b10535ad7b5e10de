package domain

import "time"

// Role is a capability tag issued by the authorization server.
type Role = string

const (
	RoleCustomerRead  Role = "CUSTOMER_READ"
	RoleCustomerWrite Role = "CUSTOMER_WRITE"
)

// RoleSet is the set of roles embedded in a session token. It is populated
// once, from the credential exchange, and only read afterwards.
type RoleSet []Role

// Contains reports whether r is in the set. A nil set contains nothing.
func (s RoleSet) Contains(r Role) bool {
	for _, have := range s {
		if have == r {
			return true
		}
	}
	return false
}

// Clone returns an independent copy, never nil.
func (s RoleSet) Clone() RoleSet {
	out := make(RoleSet, len(s))
	copy(out, s)
	return out
}

// AuthUser is the identity returned by the login endpoint.
type AuthUser struct {
	ID       string
	Username string
	Roles    RoleSet
}

// Authenticated is the successful outcome of a credential exchange.
type Authenticated struct {
	BearerToken string
	// ExpiresIn is the backend token lifetime; zero when the backend omits it.
	ExpiresIn time.Duration
	User      AuthUser
}

// Session is the identity of one browser context.
type Session struct {
	ID          string
	UserID      string
	Username    string
	BearerToken string
	Roles       RoleSet
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session's embedded expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// CanWrite reports whether the session may mutate customers.
func (s *Session) CanWrite() bool {
	if s == nil {
		return false
	}
	return CanWrite(s.Roles)
}
