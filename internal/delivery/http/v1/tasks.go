package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adanyl0v/go-todo-client/internal/services"
)

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=3,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=3,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// viewerAndTaskID aborts the request and returns false when either the
// viewer or a well-formed task id is missing.
func (h *handlerImpl) viewerAndTaskID(c *gin.Context) (services.Viewer, string, bool) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return services.Viewer{}, "", false
	}

	taskID := c.Param("id")
	if _, err := uuid.Parse(taskID); err != nil {
		h.logger.Error().
			Str("task_id", taskID).
			Msg("malformed task id")
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return services.Viewer{}, "", false
	}
	return viewer, taskID, true
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return
	}

	tasks, err := h.tasks.ListTasks(c, viewer)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	viewer, taskID, ok := h.viewerAndTaskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, viewer, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get task")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, viewer, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	viewer, taskID, ok := h.viewerAndTaskID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, viewer, services.UpdateTaskParams{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	viewer, taskID, ok := h.viewerAndTaskID(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, viewer, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		h.abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
