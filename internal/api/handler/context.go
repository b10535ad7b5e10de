package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
)

// ctxSession returns the session loaded by the middleware and performs a
// fast-fail check before any service call.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.MsgUnauthorized)
	}
	return sess, nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

type userView struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func newUserView(sess *domain.Session) userView {
	return userView{ID: sess.UserID, Username: sess.Username, Roles: sess.Roles.Clone()}
}
