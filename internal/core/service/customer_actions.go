package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/metrics"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

const (
	msgCreateFailed = "Failed to create customer"
	msgUpdateFailed = "Failed to update customer"
	msgDeleteFailed = "Failed to delete customer"
)

var customerFields = []string{"name", "type", "email", "phone", "status"}

type (
	CreateCustomerInput = ports.CreateCustomerPayload
	UpdateCustomerInput = ports.UpdateCustomerPayload
)

// ActionResult is the uniform outcome of a mutation action.
type ActionResult struct {
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// CustomerActions performs customer mutations on behalf of one session.
// Authorization is checked on every call, never cached.
type CustomerActions struct {
	api     ports.CustomerAPI
	session ports.SessionSource
	audit   ports.AuditSink
	log     zerolog.Logger
	now     func() time.Time
}

// NewCustomerActions returns actions bound to session. audit may be nil.
func NewCustomerActions(api ports.CustomerAPI, session ports.SessionSource, audit ports.AuditSink, log zerolog.Logger) *CustomerActions {
	return &CustomerActions{api: api, session: session, audit: audit, log: log, now: time.Now}
}

func (a *CustomerActions) Create(ctx context.Context, in CreateCustomerInput) ActionResult {
	return a.run(ports.AuditCreateCustomer, 0, msgCreateFailed, func(token string) (*ports.MutationResponse, error) {
		return a.api.CreateCustomer(ctx, token, in)
	})
}

func (a *CustomerActions) Update(ctx context.Context, id int64, in UpdateCustomerInput) ActionResult {
	return a.run(ports.AuditUpdateCustomer, id, msgUpdateFailed, func(token string) (*ports.MutationResponse, error) {
		return a.api.UpdateCustomer(ctx, token, id, in)
	})
}

func (a *CustomerActions) Delete(ctx context.Context, id int64) ActionResult {
	return a.run(ports.AuditDeleteCustomer, id, msgDeleteFailed, func(token string) (*ports.MutationResponse, error) {
		return a.api.DeleteCustomer(ctx, token, id)
	})
}

func (a *CustomerActions) run(action ports.AuditAction, id int64, fallback string, call func(token string) (*ports.MutationResponse, error)) ActionResult {
	sess := a.session.Session()
	if sess == nil {
		metrics.CustomerMutationsTotal.WithLabelValues(string(action), "unauthorized").Inc()
		return ActionResult{Error: domain.MsgUnauthorized}
	}
	if !sess.CanWrite() {
		metrics.CustomerMutationsTotal.WithLabelValues(string(action), "forbidden").Inc()
		res := ActionResult{Error: domain.MsgForbiddenWrite}
		a.record(action, sess, id, res)
		return res
	}

	resp, err := call(sess.BearerToken)
	if err != nil {
		a.log.Warn().Err(err).Str("action", string(action)).Int64("customer_id", id).Msg("customer mutation failed")
	}
	res := mutationResult(resp, err, fallback)

	result := "success"
	if !res.Success {
		result = "failed"
	}
	metrics.CustomerMutationsTotal.WithLabelValues(string(action), result).Inc()
	a.record(action, sess, id, res)
	return res
}

// mutationResult interprets one mutation response. A 2xx without a decodable
// body is a success.
func mutationResult(resp *ports.MutationResponse, err error, fallback string) ActionResult {
	if err != nil || resp == nil {
		return ActionResult{Error: fallback}
	}
	if resp.OK() && (resp.Status == nil || resp.Status.Code == ports.StatusCodeSuccess) {
		return ActionResult{Success: true}
	}

	res := ActionResult{Error: resp.Status.MessageOr(fallback)}
	if fields, ok := fieldErrorsFrom(resp.Data, customerFields...); ok && len(fields) > 0 {
		res.FieldErrors = fields
	}
	return res
}

func (a *CustomerActions) record(action ports.AuditAction, sess *domain.Session, id int64, res ActionResult) {
	if a.audit == nil {
		return
	}
	a.audit.Record(ports.AuditEntry{
		Action:     action,
		UserID:     sess.UserID,
		Username:   sess.Username,
		SessionID:  sess.ID,
		CustomerID: id,
		Success:    res.Success,
		Error:      res.Error,
		At:         a.now().UTC(),
	})
}
