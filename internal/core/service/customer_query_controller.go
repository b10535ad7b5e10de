package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/metrics"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

// QueryState is the lifecycle state of the customer list.
type QueryState int

const (
	QueryIdle QueryState = iota
	QueryLoading
	QueryLoaded
	QueryErrored
)

func (s QueryState) String() string {
	switch s {
	case QueryLoading:
		return "loading"
	case QueryLoaded:
		return "loaded"
	case QueryErrored:
		return "errored"
	default:
		return "idle"
	}
}

func (s QueryState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *QueryState) UnmarshalText(b []byte) error {
	for _, st := range []QueryState{QueryIdle, QueryLoading, QueryLoaded, QueryErrored} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown query state %q", b)
}

// Transition tells the caller what navigation, if any, an operation requires.
// The controller never navigates itself.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionAuthRequired
)

// QuerySnapshot is a read-only view of the controller.
type QuerySnapshot struct {
	State          QueryState            `json:"state"`
	Filter         domain.CustomerFilter `json:"filter"`
	Result         domain.ListResult     `json:"result"`
	Err            string                `json:"error,omitempty"`
	ShowPagination bool                  `json:"showPagination"`
	CanWrite       bool                  `json:"canWrite"`
}

type QueryOutcome struct {
	Transition Transition
	Snapshot   QuerySnapshot
}

// CustomerQueryController owns the customer list of one browser context.
// Every reload is tagged with a sequence number and only the response to the
// latest one is applied.
type CustomerQueryController struct {
	api      ports.CustomerAPI
	session  ports.SessionSource
	debounce time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	state  QueryState
	filter domain.CustomerFilter
	result domain.ListResult
	err    error
	seq    uint64
	timer  *time.Timer
	closed bool

	// authRequired is sticky: once a reload required sign-in, every later
	// Outcome reports it, including reloads run by the debounce timer.
	authRequired bool
}

func NewCustomerQueryController(api ports.CustomerAPI, session ports.SessionSource, debounce time.Duration, log zerolog.Logger) *CustomerQueryController {
	return &CustomerQueryController{
		api:      api,
		session:  session,
		debounce: debounce,
		log:      log,
		state:    QueryIdle,
		filter:   domain.DefaultCustomerFilter(),
		result:   domain.EmptyListResult(),
	}
}

// Mount runs the initial query.
func (c *CustomerQueryController) Mount(ctx context.Context) QueryOutcome {
	return c.reload(ctx)
}

// SessionChanged reloads with the current filters after the session identity changed.
func (c *CustomerQueryController) SessionChanged(ctx context.Context) QueryOutcome {
	return c.reload(ctx)
}

// SetFilters replaces the filter value and reloads. The page is kept as given.
func (c *CustomerQueryController) SetFilters(ctx context.Context, f domain.CustomerFilter) QueryOutcome {
	c.update(func(cur *domain.CustomerFilter) { *cur = f })
	return c.reload(ctx)
}

// Edit stores a keystroke-level filter edit and schedules one reload after
// the debounce window. Edits inside the window coalesce.
func (c *CustomerQueryController) Edit(f domain.CustomerFilter) QuerySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = f
	if !c.closed {
		if c.timer != nil {
			c.timer.Stop()
		}
		c.timer = time.AfterFunc(c.debounce, func() {
			c.reload(context.Background())
		})
	}
	return c.snapshotLocked(c.session.Session())
}

// Search restarts the current filters from the first page.
func (c *CustomerQueryController) Search(ctx context.Context) QueryOutcome {
	c.update(func(cur *domain.CustomerFilter) { cur.Page = 0 })
	return c.reload(ctx)
}

// Reset restores the default filters and reloads.
func (c *CustomerQueryController) Reset(ctx context.Context) QueryOutcome {
	c.update(func(cur *domain.CustomerFilter) { *cur = domain.DefaultCustomerFilter() })
	return c.reload(ctx)
}

// SetPage changes only the page and reloads.
func (c *CustomerQueryController) SetPage(ctx context.Context, page int) QueryOutcome {
	c.update(func(cur *domain.CustomerFilter) { *cur = cur.WithPage(page) })
	return c.reload(ctx)
}

// Reload re-runs the query with the current filters.
func (c *CustomerQueryController) Reload(ctx context.Context) QueryOutcome {
	return c.reload(ctx)
}

func (c *CustomerQueryController) Snapshot() QuerySnapshot {
	sess := c.session.Session()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(sess)
}

// Outcome returns the current snapshot together with any pending transition.
func (c *CustomerQueryController) Outcome() QueryOutcome {
	sess := c.session.Session()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := QueryOutcome{Snapshot: c.snapshotLocked(sess)}
	if sess == nil || c.authRequired {
		out.Transition = TransitionAuthRequired
	}
	return out
}

// Close cancels any pending debounced reload.
func (c *CustomerQueryController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// update applies fn to the filter and cancels a pending debounced reload,
// which the explicit reload that follows supersedes.
func (c *CustomerQueryController) update(fn func(*domain.CustomerFilter)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.filter)
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *CustomerQueryController) reload(ctx context.Context) QueryOutcome {
	sess := c.session.Session()
	if sess == nil {
		return c.requireAuth()
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	filter := c.filter
	c.state = QueryLoading
	c.mu.Unlock()

	start := time.Now()
	resp, err := c.api.ListCustomers(ctx, sess.BearerToken, listParams(filter))
	elapsed := time.Since(start).Seconds()

	// The session may have ended while the query was in flight.
	live := c.session.Session()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		metrics.CustomerQueryStaleTotal.Inc()
		metrics.CustomerQueryDuration.WithLabelValues("stale").Observe(elapsed)
		c.log.Debug().Uint64("seq", seq).Uint64("latest", c.seq).Msg("stale customer list response discarded")
		return QueryOutcome{Snapshot: c.snapshotLocked(live)}
	}

	if live == nil || errors.Is(err, domain.ErrUnauthorized) {
		metrics.CustomerQueryDuration.WithLabelValues("auth_required").Observe(elapsed)
		c.state = QueryErrored
		c.result = domain.EmptyListResult()
		c.err = domain.ErrUnauthorized
		c.authRequired = true
		return QueryOutcome{Transition: TransitionAuthRequired, Snapshot: c.snapshotLocked(live)}
	}

	if err != nil {
		metrics.CustomerQueryDuration.WithLabelValues("errored").Observe(elapsed)
		c.log.Warn().Err(err).Str("session_id", sess.ID).Msg("customer list query failed")
		c.state = QueryErrored
		c.result = domain.EmptyListResult()
		c.err = err
		return QueryOutcome{Snapshot: c.snapshotLocked(live)}
	}

	res, kind := normalizeCustomerList(resp.Data)
	if kind == payloadUnknown {
		c.log.Debug().Str("session_id", sess.ID).Msg("customer list payload has no recognised shape")
	}
	metrics.CustomerQueryDuration.WithLabelValues("loaded").Observe(elapsed)
	c.state = QueryLoaded
	c.result = res
	c.err = nil
	return QueryOutcome{Snapshot: c.snapshotLocked(live)}
}

func (c *CustomerQueryController) requireAuth() QueryOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authRequired = true
	return QueryOutcome{Transition: TransitionAuthRequired, Snapshot: c.snapshotLocked(nil)}
}

func (c *CustomerQueryController) snapshotLocked(sess *domain.Session) QuerySnapshot {
	snap := QuerySnapshot{
		State:          c.state,
		Filter:         c.filter,
		Result:         c.result,
		ShowPagination: domain.ShowPagination(c.result.TotalItems),
		CanWrite:       sess.CanWrite(),
	}
	snap.Result.Items = append([]domain.Customer{}, c.result.Items...)
	if c.err != nil {
		snap.Err = c.err.Error()
	}
	return snap
}

func listParams(f domain.CustomerFilter) ports.ListCustomersParams {
	return ports.ListCustomersParams{
		Search:       f.Search,
		Type:         string(f.Type),
		Status:       string(f.Status),
		Page:         f.Page,
		Size:         f.Size,
		CustomerSort: string(f.SortDirection),
	}
}
