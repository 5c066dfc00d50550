// Package server assembles the sandbox app's echo instance.
package server

import (
	"html/template"
	"net/http"
	"time"

	_ "github.com/gti/pagekit/docs"
	"github.com/gti/pagekit/internal/handler"
	"github.com/gti/pagekit/internal/middleware"
	"github.com/gti/pagekit/internal/service"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Auth      *service.AuthService
	DB        handler.Pinger
	Templates *template.Template
	APIKey    string
	Logger    *zap.Logger
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	authHandler := handler.NewAuthHandler(d.Auth, d.Templates, log)
	dashboardHandler := handler.NewDashboardHandler(d.Templates)
	apiHandler := handler.NewAPIHandler(d.Auth, d.DB, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.RequestLoggerWithConfig(requestLogger(log.Named("http"))))
	e.Use(echoMiddleware.Recover())

	// Optional session auth for all routes (sets user context if logged in)
	e.Use(middleware.SessionAuthOptional(d.Auth))

	// Public routes
	e.GET("/", dashboardHandler.Index)
	e.GET("/login", authHandler.LoginPage)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/forgot-password", authHandler.ForgotPasswordPage)
	e.GET("/signup", authHandler.SignupPage)

	// Protected routes (require session)
	protected := e.Group("")
	protected.Use(middleware.SessionAuth(d.Auth, "/login"))
	protected.GET("/dashboard", dashboardHandler.Dashboard)

	// Public API routes
	e.GET("/api/health", apiHandler.Health)

	// Protected API routes (require x-api-key)
	apiProtected := e.Group("/api")
	apiProtected.Use(middleware.APIKeyAuth(d.APIKey))
	apiProtected.POST("/users", apiHandler.CreateUser)

	// Swagger API documentation
	e.GET("/api/doc/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log *zap.Logger) echoMiddleware.RequestLoggerConfig {
	return echoMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
			}
			switch {
			case v.Error != nil:
				log.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Status >= http.StatusInternalServerError:
				log.Error("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		},
	}
}
