package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-client/internal/models"
	"github.com/adanyl0v/go-todo-client/internal/services"
)

type signUpRequest struct {
	Name            string `json:"name" binding:"required,min=3,max=255"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Password        string `json:"password" binding:"required,min=6,max=255"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Role            string `json:"role" binding:"omitempty,oneof=USER ADMIN"`
}

func (h *handlerImpl) HandleSignUp(c *gin.Context) {
	var req signUpRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	if req.Password != req.ConfirmPassword {
		h.logger.Error().Msg("passwords do not match")
		abort(c, newBadRequestError(errPasswordsDoNotMatch.Error()))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("sign up request")

	user, err := h.auth.SignUp(c, services.SignUpParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign up user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
		case errors.Is(err, services.ErrInvalidRole):
			abort(c, newBadRequestError(services.ErrInvalidRole.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		// Both cases get the same message so that the response does not
		// tell which emails are registered.
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			abort(c, newUnauthorizedError(errInvalidCredentials.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: result.AccessToken,
		User:        *result.User,
	})
}

func (h *handlerImpl) HandleMe(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return
	}

	user, err := h.auth.GetUserByID(c, viewer.UserID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get current user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			// The token outlived its user.
			abort(c, newUnauthorizedError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, user)
}
