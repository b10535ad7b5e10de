package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/customer-portal/docs"
	"github.com/99minutos/customer-portal/internal/api/handler"
	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
	"github.com/99minutos/customer-portal/internal/core/service"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Log      zerolog.Logger
	Cookie   middleware.CookieConfig
	BaseURL  string
	Sessions ports.SessionService
	Auth     ports.AuthService
	Customer ports.CustomerAPI
	Registry *service.ControllerRegistry
	Audit    ports.AuditSink // optional
	Checks   []handler.DependencyCheck

	// Registerer receives the HTTP metrics; prometheus.DefaultRegisterer when nil.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	reg := d.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Registerer: reg,
		Skipper:    skipInternal,
	}))
	e.Use(middleware.Session(d.Sessions, d.Cookie, d.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		AuthService: d.Auth,
		Sessions:    d.Sessions,
		Controllers: d.Registry,
		Audit:       d.Audit,
		Cookie:      d.Cookie,
		BaseURL:     d.BaseURL,
		Log:         d.Log,
	})
	customerHandler := handler.NewCustomerHandler(d.Registry, d.Customer, d.Audit, d.Cookie, d.Log)
	pageHandler := handler.NewPageHandler()

	// --- Page routes ---
	pages := e.Group("", middleware.RouteGuard(domain.DefaultRoutePolicy()))
	pages.GET("/", pageHandler.Home)
	pages.GET("/login", pageHandler.Login)
	pages.GET("/register", pageHandler.Register)
	pages.GET("/customers", pageHandler.Customers)
	pages.GET("/dashboard", pageHandler.Dashboard)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/session", authHandler.Session)

	// --- Customer routes ---
	customers := e.Group("/api/customers", middleware.RequireSession())
	customers.GET("", customerHandler.List)
	customers.PUT("/filters", customerHandler.SetFilters)
	customers.PATCH("/filters", customerHandler.EditFilters)
	customers.POST("/search", customerHandler.Search)
	customers.POST("/reset", customerHandler.Reset)
	customers.PUT("/page", customerHandler.SetPage)

	canWrite := middleware.RequireRole(domain.RoleCustomerWrite)
	customers.POST("", customerHandler.Create, canWrite)
	customers.PUT("/:id", customerHandler.Update, canWrite)
	customers.DELETE("/:id", customerHandler.Delete, canWrite)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func skipInternal(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
