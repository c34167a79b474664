package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	// Registers the swagger docs served under /swagger.
	_ "github.com/sirpyerre/payroll-api/docs"
	"github.com/sirpyerre/payroll-api/internal/api/handler"
	"github.com/sirpyerre/payroll-api/internal/api/middleware"
	"github.com/sirpyerre/payroll-api/internal/core/domain"
	"github.com/sirpyerre/payroll-api/internal/core/ports"
)

// Dependencies are the services and probes the router exposes.
type Dependencies struct {
	Employees ports.EmployeeService
	Auth      ports.AuthService
	JWTSecret string
	// Checks are pinged by /health/ready, keyed by dependency name.
	Checks map[string]handler.Check
	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("payroll"))

	authenticate := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	// Self-registration only ever yields viewers; admins are created by
	// another admin or by the bootstrap account.
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/users", authHandler.CreateUser, authenticate, middleware.RequireRole(domain.RoleAdmin))

	// --- Employees ---
	employees := handler.NewEmployeeHandler(deps.Employees)
	adminOnly := []echo.MiddlewareFunc{authenticate, middleware.ManageEmployees()}

	g := e.Group("/api/employees")
	g.GET("", employees.List)
	g.GET("/payroll", employees.TotalPayroll)
	g.GET("/payroll/job-title/:role", employees.PayrollByRole)
	g.GET("/department/:department", employees.ListByDepartment)
	g.GET("/department/:department/average-salary", employees.AverageSalary)
	g.GET("/grouped-by-department", employees.GroupedByDepartment)
	g.GET("/top-salaries/:n", employees.TopSalaries)
	g.GET("/hired-in-last/:months", employees.HiredInLast)
	g.GET("/:id", employees.Get)
	g.POST("", employees.Create, adminOnly...)
	g.PUT("/:id", employees.Update, adminOnly...)
	g.DELETE("/:id", employees.Delete, adminOnly...)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
