package client

import (
	"context"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

// Transport is the request surface the services are built on. *Client
// implements it.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type AuthService interface {
	// Login exchanges credentials for an access token and the
	// authenticated user.
	//
	// A rejection is returned as *APIError, typically with status 401.
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)

	// SignUp creates an account. It does not log the user in.
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error)

	// CurrentUser returns the profile of the user owning the bearer
	// token attached by the transport.
	CurrentUser(ctx context.Context) (*models.User, error)
}

type TaskService interface {
	// List returns every task visible to the current session: the
	// caller's own tasks, or all tasks for administrators.
	List(ctx context.Context) ([]models.Task, error)

	Get(ctx context.Context, id string) (*models.Task, error)

	Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)

	// Update applies a partial update. Nil fields are left untouched.
	Update(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error)

	Delete(ctx context.Context, id string) error

	// ToggleComplete is an Update that only carries the completion flag.
	ToggleComplete(ctx context.Context, id string, isCompleted bool) (*models.Task, error)
}
