package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/metrics"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

type registryEntry struct {
	handle     *SessionHandle
	controller *CustomerQueryController
}

// ControllerRegistry keeps one query controller per session id.
type ControllerRegistry struct {
	api      ports.CustomerAPI
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
	dropped map[string]time.Time // session id -> token expiry
}

func NewControllerRegistry(api ports.CustomerAPI, debounce time.Duration, log zerolog.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		api:      api,
		debounce: debounce,
		log:      log,
		entries:  make(map[string]*registryEntry),
		dropped:  make(map[string]time.Time),
	}
}

// Acquire returns the controller and session handle for sess, creating them
// on first use. created reports whether the controller is new and still
// needs mounting. A dropped session gets a detached controller whose handle
// is already invalidated, so every operation on it requires sign-in.
func (r *ControllerRegistry) Acquire(sess *domain.Session) (ctrl *CustomerQueryController, handle *SessionHandle, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	if _, ok := r.dropped[sess.ID]; ok {
		handle = NewSessionHandle(nil)
		return NewCustomerQueryController(r.api, handle, r.debounce, r.log), handle, false
	}

	if e, ok := r.entries[sess.ID]; ok {
		e.handle.Replace(sess)
		return e.controller, e.handle, false
	}

	handle = NewSessionHandle(sess)
	ctrl = NewCustomerQueryController(r.api, handle, r.debounce, r.log.With().Str("session_id", sess.ID).Logger())
	r.entries[sess.ID] = &registryEntry{handle: handle, controller: ctrl}
	metrics.QueryControllersActive.Set(float64(len(r.entries)))
	return ctrl, handle, true
}

// Drop invalidates the session handle and discards its controller. An
// in-flight reload for that session is discarded on arrival, and the session
// id stays blocked until the token expires.
func (r *ControllerRegistry) Drop(sess *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropped[sess.ID] = sess.ExpiresAt
	if e, ok := r.entries[sess.ID]; ok {
		e.handle.Invalidate()
		e.controller.Close()
		delete(r.entries, sess.ID)
	}
	metrics.QueryControllersActive.Set(float64(len(r.entries)))
}

// Len returns the number of live controllers.
func (r *ControllerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep discards controllers whose sessions are no longer live and forgets
// dropped sessions whose tokens have expired.
func (r *ControllerRegistry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
}

func (r *ControllerRegistry) sweepLocked() {
	now := time.Now()
	for id, until := range r.dropped {
		if !now.Before(until) {
			delete(r.dropped, id)
		}
	}
	for id, e := range r.entries {
		if !e.handle.Live() {
			e.controller.Close()
			delete(r.entries, id)
		}
	}
	metrics.QueryControllersActive.Set(float64(len(r.entries)))
}
