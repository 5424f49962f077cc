// Package api wires the HTTP surface: routes, middleware, validation and
// the error envelope.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/uptask/project-system/internal/api/handler"
	"github.com/uptask/project-system/internal/api/middleware"
	"github.com/uptask/project-system/internal/core/ports"
	"github.com/uptask/project-system/internal/realtime"
)

// Deps carries everything the router needs. Redis is optional; when nil
// the readiness probe skips it.
type Deps struct {
	AuthService    ports.AuthService
	ProjectService ports.ProjectService
	TaskService    ports.TaskService
	Hub            *realtime.Hub

	Mongo *mongo.Database
	Redis *redis.Client

	JWTSecret   string
	FrontendURL string
	Logger      zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("uptask"))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	projectHandler := handler.NewProjectHandler(deps.ProjectService)
	taskHandler := handler.NewTaskHandler(deps.TaskService)
	realtimeHandler := handler.NewRealtimeHandler(deps.Hub, deps.FrontendURL, deps.Logger)
	authRequired := middleware.Auth(deps.JWTSecret)

	// --- Account routes ---
	users := e.Group("/api/users")
	users.POST("", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("/confirm/:token", authHandler.Confirm)
	users.POST("/forgot-password", authHandler.ForgotPassword)
	users.GET("/forgot-password/:token", authHandler.ValidateResetToken)
	users.POST("/forgot-password/:token", authHandler.ResetPassword)
	users.GET("/profile", authHandler.Profile, authRequired)

	// --- Project routes ---
	projects := e.Group("/api/projects", authRequired)
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create)
	projects.POST("/collaborators", projectHandler.FindCollaborator)
	projects.GET("/:id", projectHandler.Get)
	projects.PUT("/:id", projectHandler.Update)
	projects.DELETE("/:id", projectHandler.Delete)
	projects.POST("/:id/collaborators", projectHandler.AddCollaborator)
	projects.POST("/:id/collaborators/remove", projectHandler.RemoveCollaborator)

	// --- Task routes ---
	tasks := e.Group("/api/tasks", authRequired)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.POST("/:id/toggle", taskHandler.Toggle)

	// --- Realtime ---
	e.GET("/ws", realtimeHandler.Connect, authRequired)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
