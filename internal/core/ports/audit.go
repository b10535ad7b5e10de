package ports

import (
	"context"
	"time"
)

type AuditAction string

const (
	AuditSignIn         AuditAction = "sign_in"
	AuditSignOut        AuditAction = "sign_out"
	AuditCreateCustomer AuditAction = "customer_create"
	AuditUpdateCustomer AuditAction = "customer_update"
	AuditDeleteCustomer AuditAction = "customer_delete"
)

// AuditEntry records one session or mutation outcome.
type AuditEntry struct {
	Action     AuditAction
	UserID     string
	Username   string
	SessionID  string
	CustomerID int64 // zero when not customer-scoped
	Success    bool
	Error      string
	At         time.Time
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry AuditEntry) error
}

// AuditSink accepts entries without blocking the caller on persistence.
type AuditSink interface {
	Record(entry AuditEntry)
}
