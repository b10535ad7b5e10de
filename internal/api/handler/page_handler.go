package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
)

const (
	loginErrorCredentials   = "CredentialsSignin"
	loginErrorConfiguration = "Configuration"

	msgConfigurationError = "Authentication configuration error. Please check SESSION_SECRET and BASE_URL."
	msgRegistered         = "Registration successful. Please sign in."
)

// PageHandler serves the JSON descriptors the UI renders for each page.
// Access control is applied by middleware.RouteGuard before these run.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type banner struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type roleOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type pageDescriptor struct {
	Page        string       `json:"page"`
	Title       string       `json:"title"`
	CallbackURL string       `json:"callbackUrl,omitempty"`
	Banner      *banner      `json:"banner,omitempty"`
	Roles       []roleOption `json:"roles,omitempty"`
	User        *userView    `json:"user,omitempty"`
	CanWrite    bool         `json:"canWrite"`
	Links       pageLinks    `json:"_links"`
}

type pageLinks struct {
	Login    string `json:"login,omitempty"`
	Register string `json:"register,omitempty"`
	Logout   string `json:"logout,omitempty"`
	Data     string `json:"data,omitempty"`
}

var registerRoleOptions = []roleOption{
	{Value: domain.RoleCustomerRead, Label: "Customer read"},
	{Value: domain.RoleCustomerWrite, Label: "Customer write"},
}

// Home sends signed-in users to the customer list.
func (h *PageHandler) Home(c echo.Context) error {
	if middleware.SessionFrom(c) != nil {
		return c.Redirect(http.StatusFound, domain.ProtectedHome)
	}
	return c.JSON(http.StatusOK, pageDescriptor{
		Page:  "home",
		Title: "Customer Portal",
		Links: pageLinks{Login: domain.SignInPath, Register: "/register"},
	})
}

// Login describes the sign-in page, including any banner requested through
// the error or registered query parameters.
func (h *PageHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, pageDescriptor{
		Page:        "login",
		Title:       "Sign in",
		CallbackURL: c.QueryParam("callbackUrl"),
		Banner:      loginBanner(c.QueryParam("error"), c.QueryParam("registered") == "true"),
		Links:       pageLinks{Register: "/register"},
	})
}

func loginBanner(errParam string, registered bool) *banner {
	switch errParam {
	case "":
	case loginErrorCredentials:
		return &banner{Kind: "error", Message: domain.MsgInvalidCredentials}
	case loginErrorConfiguration:
		return &banner{Kind: "error", Message: msgConfigurationError}
	default:
		return &banner{Kind: "error", Message: errParam}
	}
	if registered {
		return &banner{Kind: "success", Message: msgRegistered}
	}
	return nil
}

func (h *PageHandler) Register(c echo.Context) error {
	return c.JSON(http.StatusOK, pageDescriptor{
		Page:  "register",
		Title: "Create account",
		Roles: registerRoleOptions,
		Links: pageLinks{Login: domain.SignInPath},
	})
}

func (h *PageHandler) Customers(c echo.Context) error {
	return h.protected(c, "customers", "Customers")
}

func (h *PageHandler) Dashboard(c echo.Context) error {
	return h.protected(c, "dashboard", "Dashboard")
}

func (h *PageHandler) protected(c echo.Context, page, title string) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	user := newUserView(sess)
	return c.JSON(http.StatusOK, pageDescriptor{
		Page:     page,
		Title:    title,
		User:     &user,
		CanWrite: sess.CanWrite(),
		Links:    pageLinks{Logout: "/api/auth/logout", Data: "/api/customers"},
	})
}
