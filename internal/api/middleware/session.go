package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/api/metrics"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

const sessionKey = "session"

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionFrom returns the verified session loaded by Session, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(sessionKey).(*domain.Session)
	return sess
}

// SetSession stores sess on the request context.
func SetSession(c echo.Context, sess *domain.Session) {
	c.Set(sessionKey, sess)
}

// Session loads the caller's session from the session cookie or, failing
// that, from an Authorization: Bearer header. It never rejects a request;
// RequireSession and RouteGuard decide what an anonymous caller may do. An
// unusable session cookie is cleared and the header is tried instead.
func Session(sessions ports.SessionService, cookie CookieConfig, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			parse := func(token string) *domain.Session {
				sess, err := sessions.Parse(c.Request().Context(), token)
				if err != nil {
					metrics.SessionRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
					log.Debug().Err(err).Str("path", c.Request().URL.Path).Msg("session rejected")
					return nil
				}
				return sess
			}

			if token := cookieToken(c, cookie.Name); token != "" {
				if sess := parse(token); sess != nil {
					SetSession(c, sess)
					return next(c)
				}
				ClearSessionCookie(c, cookie)
			}

			if token := bearerToken(c); token != "" {
				if sess := parse(token); sess != nil {
					SetSession(c, sess)
				}
			}
			return next(c)
		}
	}
}

func cookieToken(c echo.Context, name string) string {
	if ck, err := c.Cookie(name); err == nil {
		return ck.Value
	}
	return ""
}

func bearerToken(c echo.Context) string {
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return "expired"
	case errors.Is(err, domain.ErrSessionRevoked):
		return "revoked"
	default:
		return "invalid"
	}
}

// RequireSession rejects API calls without a live session.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFrom(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.MsgUnauthorized)
			}
			return next(c)
		}
	}
}

// SetSessionCookie writes the session cookie, expiring with the token.
func SetSessionCookie(c echo.Context, cfg CookieConfig, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
