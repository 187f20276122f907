package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/api/handler"
	"github.com/peertask/horizon/internal/api/middleware"
	"github.com/peertask/horizon/internal/core/ports"
)

// Backend is the full surface the stub server exposes over HTTP: the
// three gateway contracts plus token verification for the auth
// middleware. The in-memory backend satisfies it.
type Backend interface {
	ports.IdentityGateway
	ports.TaskGateway
	ports.MessagingGateway
	middleware.TokenVerifier
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(backend Backend, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("horizon"))

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(backend, backend)
	messageHandler := handler.NewMessageHandler(backend)
	authMiddleware := middleware.Auth(backend)

	// --- Operational endpoints (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")

	// --- Account routes ---
	users := v1.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/update_details", userHandler.UpdateDetails, authMiddleware)

	// --- Task routes ---
	users.GET("/browse-task", userHandler.BrowseTasks)
	users.POST("/create-task", userHandler.CreateTask, authMiddleware)
	users.POST("/apply-task", userHandler.ApplyTask, authMiddleware)
	users.POST("/assign-task", userHandler.AssignTask, authMiddleware)
	users.POST("/complete-task", userHandler.CompleteTask, authMiddleware)

	// --- Messaging routes ---
	msgs := v1.Group("/messages_route")
	msgs.GET("/get-all-conversations", messageHandler.Conversations, authMiddleware)
	msgs.POST("/get-other-user-details", messageHandler.ParticipantDetails, authMiddleware)
	msgs.GET("/get-messages", messageHandler.Messages)
	msgs.POST("/send-message", messageHandler.SendMessage, authMiddleware)
	msgs.POST("/create-conversation", messageHandler.CreateConversation, authMiddleware)

	return e
}
