package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/metrics"
	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

// controllerDropper discards per-session state on sign-out.
type controllerDropper interface {
	Drop(sess *domain.Session)
}

type AuthHandler struct {
	authService ports.AuthService
	sessions    ports.SessionService
	controllers controllerDropper
	audit       ports.AuditSink
	cookie      middleware.CookieConfig
	baseURL     string
	log         zerolog.Logger
}

// AuthHandlerConfig groups the collaborators of the auth endpoints. Audit may
// be nil.
type AuthHandlerConfig struct {
	AuthService ports.AuthService
	Sessions    ports.SessionService
	Controllers controllerDropper
	Audit       ports.AuditSink
	Cookie      middleware.CookieConfig
	BaseURL     string
	Log         zerolog.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		authService: cfg.AuthService,
		sessions:    cfg.Sessions,
		controllers: cfg.Controllers,
		audit:       cfg.Audit,
		cookie:      cfg.Cookie,
		baseURL:     cfg.BaseURL,
		log:         cfg.Log,
	}
}

type registerRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required,min=6"`
	Roles    []string `json:"roles"    validate:"required,min=1,dive,oneof=CUSTOMER_READ CUSTOMER_WRITE"`
}

type loginRequest struct {
	Username    string `json:"username"    validate:"required"`
	Password    string `json:"password"    validate:"required"`
	CallbackURL string `json:"callbackUrl"`
}

type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	User          *userView  `json:"user,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CanWrite      bool       `json:"canWrite"`
}

func newSessionView(sess *domain.Session) sessionView {
	if sess == nil {
		return sessionView{}
	}
	user := newUserView(sess)
	exp := sess.ExpiresAt
	return sessionView{
		Authenticated: true,
		User:          &user,
		ExpiresAt:     &exp,
		CanWrite:      sess.CanWrite(),
	}
}

type loginResponse struct {
	Redirect string      `json:"redirect"`
	Token    string      `json:"token"`
	Session  sessionView `json:"session"`
}

type registerResponse struct {
	Success     bool              `json:"success"`
	Redirect    string            `json:"redirect,omitempty"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// Login exchanges credentials for a session cookie.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  registerResponse
// @Failure      401   {object}  errorBody
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondInvalid(c, err)
	}

	ctx := c.Request().Context()
	auth, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusUnauthorized, errorBody{Error: domain.MsgInvalidCredentials})
	}

	token, sess, err := h.sessions.Issue(ctx, auth)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("username", req.Username).Msg("issue session")
		return err
	}
	metrics.SignInsTotal.WithLabelValues("success").Inc()

	middleware.SetSessionCookie(c, h.cookie, token, sess.ExpiresAt)
	h.record(ports.AuditSignIn, sess)
	h.log.Info().Str("user_id", sess.UserID).Str("session_id", sess.ID).Msg("signed in")

	callback := req.CallbackURL
	if callback == "" {
		callback = domain.ProtectedHome
	}
	return c.JSON(http.StatusOK, loginResponse{
		Redirect: domain.ResolveRedirect(callback, h.baseURL),
		Token:    token,
		Session:  newSessionView(sess),
	})
}

// Register creates a user account on the customer API.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  registerResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondInvalid(c, err)
	}

	out := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if !out.Success {
		return c.JSON(http.StatusBadRequest, registerResponse{Error: out.Error, FieldErrors: out.FieldErrors})
	}
	return c.JSON(http.StatusCreated, registerResponse{Success: true, Redirect: domain.SignInPath})
}

// Logout revokes the current session and clears the cookie.
//
// @Summary      Sign out
// @Tags         auth
// @Success      303
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess := middleware.SessionFrom(c); sess != nil {
		if err := h.sessions.Revoke(c.Request().Context(), sess); err != nil {
			h.log.Error().Err(err).Str("session_id", sess.ID).Msg("revoke session")
		}
		if h.controllers != nil {
			h.controllers.Drop(sess)
		}
		h.record(ports.AuditSignOut, sess)
	}
	middleware.ClearSessionCookie(c, h.cookie)
	return c.Redirect(http.StatusSeeOther, domain.SignInPath)
}

// Session returns the current session view.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionView
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionView(middleware.SessionFrom(c)))
}

func (h *AuthHandler) record(action ports.AuditAction, sess *domain.Session) {
	if h.audit == nil {
		return
	}
	h.audit.Record(ports.AuditEntry{
		Action:    action,
		UserID:    sess.UserID,
		Username:  sess.Username,
		SessionID: sess.ID,
		Success:   true,
		At:        time.Now().UTC(),
	})
}

// respondInvalid renders validation failures in the form result shape and
// passes anything else to the error handler.
func respondInvalid(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, registerResponse{Error: ve.Message, FieldErrors: ve.Fields})
	}
	return err
}
