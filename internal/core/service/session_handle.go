package service

import (
	"sync"
	"time"

	"github.com/99minutos/customer-portal/internal/core/domain"
)

// SessionHandle is the session of one browser context, passed explicitly to
// the query controller and the mutation actions.
type SessionHandle struct {
	mu      sync.RWMutex
	session *domain.Session
	now     func() time.Time
}

func NewSessionHandle(sess *domain.Session) *SessionHandle {
	return &SessionHandle{session: sess, now: time.Now}
}

// Session returns the live session, or nil once invalidated or expired.
func (h *SessionHandle) Session() *domain.Session {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil || h.session.Expired(h.now()) {
		return nil
	}
	return h.session
}

// Replace swaps in a freshly verified session for the same context.
func (h *SessionHandle) Replace(sess *domain.Session) {
	h.mu.Lock()
	h.session = sess
	h.mu.Unlock()
}

// Invalidate ends the logical session immediately.
func (h *SessionHandle) Invalidate() {
	h.mu.Lock()
	h.session = nil
	h.mu.Unlock()
}

// Live reports whether Session would return a session.
func (h *SessionHandle) Live() bool {
	return h.Session() != nil
}
