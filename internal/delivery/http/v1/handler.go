package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/services"
)

type Handler interface {
	HandleSignUp(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleMe(c *gin.Context)

	HandleRequestID(c *gin.Context)
	HandleRequestLog(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		tasks:  taskService,
	}
}

// Register mounts the API routes on router.
func Register(router gin.IRouter, h Handler) {
	router.Use(h.HandleRequestID, h.HandleRequestLog)

	authRouter := router.Group("/auth")
	authRouter.POST("/signup", h.HandleSignUp)
	authRouter.POST("/login", h.HandleLogin)
	authRouter.GET("/me", h.HandleAuthMiddleware, h.HandleMe)

	taskRouter := router.Group("/tasks", h.HandleAuthMiddleware)
	taskRouter.GET("", h.HandleGetTasks)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.GET("/:id", h.HandleGetTask)
	taskRouter.PUT("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)
}
