package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
	"github.com/99minutos/customer-portal/internal/core/service"
)

// customersRedirect is where an ended session sends the customer list.
var customersRedirect = domain.DefaultRoutePolicy().Evaluate(domain.ProtectedHome, false).Redirect

// CustomerHandler exposes the per-session customer list controller and the
// mutation actions.
type CustomerHandler struct {
	registry *service.ControllerRegistry
	api      ports.CustomerAPI
	audit    ports.AuditSink
	cookie   middleware.CookieConfig
	log      zerolog.Logger
}

func NewCustomerHandler(registry *service.ControllerRegistry, api ports.CustomerAPI, audit ports.AuditSink, cookie middleware.CookieConfig, log zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{registry: registry, api: api, audit: audit, cookie: cookie, log: log}
}

// --- Request / Response types ---

type filterRequest struct {
	Search       string `json:"search"`
	Type         string `json:"type"         validate:"omitempty,oneof=INDIVIDUAL CORPORATE"`
	Status       string `json:"status"       validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Page         int    `json:"page"         validate:"min=0"`
	Size         int    `json:"size"         validate:"min=0,max=100"`
	CustomerSort string `json:"customerSort" validate:"omitempty,oneof=ASC DESC"`
}

func (r filterRequest) toFilter() domain.CustomerFilter {
	f := domain.CustomerFilter{
		Search:        r.Search,
		Type:          domain.CustomerType(r.Type),
		Status:        domain.CustomerStatus(r.Status),
		Page:          r.Page,
		Size:          r.Size,
		SortDirection: domain.SortDirection(r.CustomerSort),
	}
	if f.Size == 0 {
		f.Size = domain.DefaultPageSize
	}
	if f.SortDirection == "" {
		f.SortDirection = domain.SortAsc
	}
	return f
}

type pageRequest struct {
	Page int `json:"page"`
}

type createCustomerRequest struct {
	Name  string `json:"name"  validate:"required"`
	Type  string `json:"type"  validate:"required,oneof=INDIVIDUAL CORPORATE"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

type updateCustomerRequest struct {
	Name   string `json:"name"   validate:"required"`
	Type   string `json:"type"   validate:"required,oneof=INDIVIDUAL CORPORATE"`
	Email  string `json:"email"  validate:"required,email"`
	Phone  string `json:"phone"  validate:"required"`
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

type actionResponse struct {
	service.ActionResult
	Customers *service.QuerySnapshot `json:"customers,omitempty"`
}

// --- Query endpoints ---

// List returns the customer list of the current session. The first call, and
// any call with refresh=true, runs the query.
//
// @Summary      Customer list
// @Tags         customers
// @Produce      json
// @Param        refresh  query     bool  false  "Reload with the current filters"
// @Success      200      {object}  service.QuerySnapshot
// @Failure      401      {object}  errorBody
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctrl, _, created := h.registry.Acquire(sess)

	if created || c.QueryParam("refresh") == "true" {
		return h.respond(c, sess, ctrl.Mount(c.Request().Context()))
	}
	return h.respond(c, sess, ctrl.Outcome())
}

// SetFilters replaces the filters and reloads.
//
// @Summary      Replace filters
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body      filterRequest  true  "Filters"
// @Success      200   {object}  service.QuerySnapshot
// @Failure      400   {object}  registerResponse
// @Failure      401   {object}  errorBody
// @Router       /api/customers/filters [put]
func (h *CustomerHandler) SetFilters(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req filterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondInvalid(c, err)
	}
	ctrl, _, _ := h.registry.Acquire(sess)
	return h.respond(c, sess, ctrl.SetFilters(c.Request().Context(), req.toFilter()))
}

// EditFilters records a keystroke-level edit. The reload runs after the
// debounce window; the response is the snapshot at acceptance.
//
// @Summary      Debounced filter edit
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body      filterRequest  true  "Filters"
// @Success      202   {object}  service.QuerySnapshot
// @Failure      401   {object}  errorBody
// @Router       /api/customers/filters [patch]
func (h *CustomerHandler) EditFilters(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req filterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondInvalid(c, err)
	}
	ctrl, _, _ := h.registry.Acquire(sess)
	if out := ctrl.Outcome(); out.Transition != service.TransitionNone {
		return h.respond(c, sess, out)
	}
	return c.JSON(http.StatusAccepted, ctrl.Edit(req.toFilter()))
}

// Search restarts the current filters from the first page.
//
// @Summary      Search
// @Tags         customers
// @Produce      json
// @Success      200  {object}  service.QuerySnapshot
// @Router       /api/customers/search [post]
func (h *CustomerHandler) Search(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctrl, _, _ := h.registry.Acquire(sess)
	return h.respond(c, sess, ctrl.Search(c.Request().Context()))
}

// Reset restores the default filters.
//
// @Summary      Reset filters
// @Tags         customers
// @Produce      json
// @Success      200  {object}  service.QuerySnapshot
// @Router       /api/customers/reset [post]
func (h *CustomerHandler) Reset(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctrl, _, _ := h.registry.Acquire(sess)
	return h.respond(c, sess, ctrl.Reset(c.Request().Context()))
}

// SetPage changes the page; negative pages clamp to 0.
//
// @Summary      Change page
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body      pageRequest  true  "Page"
// @Success      200   {object}  service.QuerySnapshot
// @Router       /api/customers/page [put]
func (h *CustomerHandler) SetPage(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req pageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	ctrl, _, _ := h.registry.Acquire(sess)
	return h.respond(c, sess, ctrl.SetPage(c.Request().Context(), req.Page))
}

// respond renders a controller outcome. An auth-required transition ends the
// browser session.
func (h *CustomerHandler) respond(c echo.Context, sess *domain.Session, out service.QueryOutcome) error {
	if out.Transition == service.TransitionAuthRequired {
		h.registry.Drop(sess)
		middleware.ClearSessionCookie(c, h.cookie)
		return c.JSON(http.StatusUnauthorized, errorBody{Error: domain.MsgUnauthorized, Redirect: customersRedirect})
	}
	return c.JSON(http.StatusOK, out.Snapshot)
}

// --- Mutation endpoints ---

// Create adds a customer.
//
// @Summary      Create customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body      createCustomerRequest  true  "Customer"
// @Success      201   {object}  actionResponse
// @Failure      400   {object}  actionResponse
// @Failure      401   {object}  actionResponse
// @Failure      403   {object}  actionResponse
// @Failure      422   {object}  actionResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req createCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondInvalid(c, err)
	}

	ctrl, handle, _ := h.registry.Acquire(sess)
	res := h.actions(handle).Create(c.Request().Context(), service.CreateCustomerInput{
		Name:  req.Name,
		Type:  domain.CustomerType(req.Type),
		Email: req.Email,
		Phone: req.Phone,
	})
	return h.respondAction(c, ctrl, res, http.StatusCreated)
}

// Update replaces a customer.
//
// @Summary      Update customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Customer id"
// @Param        body  body      updateCustomerRequest  true  "Customer"
// @Success      200   {object}  actionResponse
// @Failure      400   {object}  actionResponse
// @Failure      401   {object}  actionResponse
// @Failure      403   {object}  actionResponse
// @Failure      422   {object}  actionResponse
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := customerID(c)
	if err != nil {
		return err
	}
	var req updateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondInvalid(c, err)
	}

	ctrl, handle, _ := h.registry.Acquire(sess)
	res := h.actions(handle).Update(c.Request().Context(), id, service.UpdateCustomerInput{
		Name:   req.Name,
		Type:   domain.CustomerType(req.Type),
		Email:  req.Email,
		Phone:  req.Phone,
		Status: domain.CustomerStatus(req.Status),
	})
	return h.respondAction(c, ctrl, res, http.StatusOK)
}

// Delete removes a customer.
//
// @Summary      Delete customer
// @Tags         customers
// @Produce      json
// @Param        id   path      int  true  "Customer id"
// @Success      200  {object}  actionResponse
// @Failure      401  {object}  actionResponse
// @Failure      403  {object}  actionResponse
// @Failure      422  {object}  actionResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := customerID(c)
	if err != nil {
		return err
	}

	ctrl, handle, _ := h.registry.Acquire(sess)
	res := h.actions(handle).Delete(c.Request().Context(), id)
	return h.respondAction(c, ctrl, res, http.StatusOK)
}

func (h *CustomerHandler) actions(handle *service.SessionHandle) *service.CustomerActions {
	return service.NewCustomerActions(h.api, handle, h.audit, h.log)
}

// respondAction renders an action result. A successful mutation reloads the
// list so the response carries the refreshed snapshot.
func (h *CustomerHandler) respondAction(c echo.Context, ctrl *service.CustomerQueryController, res service.ActionResult, okStatus int) error {
	if !res.Success {
		return c.JSON(actionStatus(res), actionResponse{ActionResult: res})
	}
	out := ctrl.Reload(c.Request().Context())
	return c.JSON(okStatus, actionResponse{ActionResult: res, Customers: &out.Snapshot})
}

func actionStatus(res service.ActionResult) int {
	switch res.Error {
	case domain.MsgUnauthorized:
		return http.StatusUnauthorized
	case domain.MsgForbiddenWrite:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func customerID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	return id, nil
}
