package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrInvalidRole          = errors.New("invalid role")
	ErrTaskNotFound         = errors.New("task not found")
)

type AuthService interface {
	// SignUp creates a user with the given name, email, password and role.
	//
	// It hashes the password and generates a unique ID. It returns
	// ErrUserAlreadyExists if the email is taken and ErrInvalidRole if
	// the role is neither USER nor ADMIN.
	SignUp(ctx context.Context, params SignUpParams) (*models.User, error)

	// Login authenticates the user by email and password and issues a
	// signed access token.
	//
	// It returns ErrUserNotFound if the user with the given email
	// doesn't exist or ErrUserPasswordMismatch if the given password
	// doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// GetUserByID returns ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// ParseAccessToken parses the given JWT token and returns its claims
	// or an error wrapping jwt.ErrTokenExpired if the token is expired.
	ParseAccessToken(token string) (*AccessClaims, error)
}

type TaskService interface {
	// ListTasks returns the tasks of the viewer, or every task with its
	// owner summary when the viewer is an administrator.
	ListTasks(ctx context.Context, viewer Viewer) ([]*models.Task, error)

	// GetTask, UpdateTask and DeleteTask return ErrTaskNotFound when the
	// task does not exist or the viewer is neither its owner nor an
	// administrator.
	GetTask(ctx context.Context, viewer Viewer, taskID string) (*models.Task, error)
	CreateTask(ctx context.Context, viewer Viewer, params CreateTaskParams) (*models.Task, error)
	UpdateTask(ctx context.Context, viewer Viewer, params UpdateTaskParams) (*models.Task, error)
	DeleteTask(ctx context.Context, viewer Viewer, taskID string) error
}

// Viewer is the authenticated user a task operation is performed for.
type Viewer struct {
	UserID string
	Role   models.Role
}

func (v Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

type AccessClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type SignUpParams struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	User                 *models.User
}

type CreateTaskParams struct {
	Title       string
	Description *string
}

// UpdateTaskParams carries a partial update; nil fields are kept.
type UpdateTaskParams struct {
	ID          string
	Title       *string
	Description *string
	IsCompleted *bool
}
