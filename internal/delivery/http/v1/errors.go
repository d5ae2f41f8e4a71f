package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

var (
	errInvalidRequestBody   = errors.New("invalid request body")
	errInvalidCredentials   = errors.New("invalid email or password")
	errPasswordsDoNotMatch  = errors.New("passwords do not match")
	errMissingAuthorization = errors.New("missing or invalid authorization header")
	errInvalidToken         = errors.New("invalid or expired token")
)

type apiError struct {
	Code    int
	Message string
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, models.ErrorResponse{
		Message:    err.Message,
		StatusCode: err.Code,
		Error:      http.StatusText(err.Code),
	})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}
