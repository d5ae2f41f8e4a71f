//go:build integration

package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

// Run with: TODO_TEST_POSTGRES_URL=postgres://... go test -tags integration ./internal/services
const postgresURLEnv = "TODO_TEST_POSTGRES_URL"

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connURL := os.Getenv(postgresURLEnv)
	if connURL == "" {
		t.Skipf("%s is not set", postgresURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../app/migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return pool
}

type fixture struct {
	auth  AuthService
	tasks TaskService
}

func newFixture(t *testing.T) *fixture {
	pool := newTestPool(t)
	return &fixture{
		auth:  NewAuthService(zerolog.Nop(), pool, "todo-api", []byte(testSigningKey), time.Hour),
		tasks: NewTaskService(zerolog.Nop(), pool),
	}
}

func (f *fixture) signUp(t *testing.T, role models.Role) (*models.User, Viewer) {
	t.Helper()
	user, err := f.auth.SignUp(context.Background(), SignUpParams{
		Name:     "user",
		Email:    uuid.NewString() + "@example.com",
		Password: "secret1",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	return user, Viewer{UserID: user.ID, Role: user.Role}
}

func TestUpdateTaskCompletionTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, owner := f.signUp(t, models.RoleUser)

	desc := "two litres"
	task, err := f.tasks.CreateTask(ctx, owner, CreateTaskParams{Title: "Buy milk", Description: &desc})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.IsCompleted || task.CompletedAt != nil {
		t.Fatalf("new task = %+v, want pending without completed_at", task)
	}

	update := func(params UpdateTaskParams) *models.Task {
		t.Helper()
		params.ID = task.ID
		got, err := f.tasks.UpdateTask(ctx, owner, params)
		if err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		return got
	}
	yes, no := true, false

	completed := update(UpdateTaskParams{IsCompleted: &yes})
	if !completed.IsCompleted || completed.CompletedAt == nil {
		t.Fatalf("completed task = %+v, want completed_at stamped", completed)
	}
	stampedAt := *completed.CompletedAt

	again := update(UpdateTaskParams{IsCompleted: &yes})
	if again.CompletedAt == nil || !again.CompletedAt.Equal(stampedAt) {
		t.Errorf("completing twice moved completed_at from %v to %v", stampedAt, again.CompletedAt)
	}

	title := "Buy oat milk"
	renamed := update(UpdateTaskParams{Title: &title})
	if !renamed.IsCompleted || renamed.CompletedAt == nil || !renamed.CompletedAt.Equal(stampedAt) {
		t.Errorf("title update changed completion: %+v", renamed)
	}
	if renamed.Title != title || renamed.Description == nil || *renamed.Description != desc {
		t.Errorf("title update = %+v, want description kept", renamed)
	}

	reopened := update(UpdateTaskParams{IsCompleted: &no})
	if reopened.IsCompleted || reopened.CompletedAt != nil {
		t.Errorf("reopened task = %+v, want completed_at cleared", reopened)
	}

	empty := ""
	cleared := update(UpdateTaskParams{Description: &empty})
	if cleared.Description != nil {
		t.Errorf("description = %q, want cleared", *cleared.Description)
	}
}

func TestTaskAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, ownerViewer := f.signUp(t, models.RoleUser)
	_, other := f.signUp(t, models.RoleUser)
	_, admin := f.signUp(t, models.RoleAdmin)

	task, err := f.tasks.CreateTask(ctx, ownerViewer, CreateTaskParams{Title: "Private task"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	yes := true
	if _, err := f.tasks.UpdateTask(ctx, other, UpdateTaskParams{ID: task.ID, IsCompleted: &yes}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("foreign UpdateTask() error = %v, want ErrTaskNotFound", err)
	}
	if err := f.tasks.DeleteTask(ctx, other, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("foreign DeleteTask() error = %v, want ErrTaskNotFound", err)
	}
	if _, err := f.tasks.GetTask(ctx, ownerViewer, "not-a-uuid"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("malformed GetTask() error = %v, want ErrTaskNotFound", err)
	}

	otherTasks, err := f.tasks.ListTasks(ctx, other)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for _, got := range otherTasks {
		if got.ID == task.ID {
			t.Error("another user lists the private task")
		}
	}

	adminTasks, err := f.tasks.ListTasks(ctx, admin)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	found := false
	for _, got := range adminTasks {
		if got.ID == task.ID {
			found = true
			if got.User == nil || got.User.ID != owner.ID {
				t.Errorf("admin listing owner = %+v, want %s", got.User, owner.ID)
			}
		}
	}
	if !found {
		t.Error("admin listing misses the task")
	}

	if _, err := f.tasks.UpdateTask(ctx, admin, UpdateTaskParams{ID: task.ID, IsCompleted: &yes}); err != nil {
		t.Errorf("admin UpdateTask() error = %v", err)
	}
	if err := f.tasks.DeleteTask(ctx, admin, task.ID); err != nil {
		t.Errorf("admin DeleteTask() error = %v", err)
	}
}

func TestSignUpAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _ := f.signUp(t, "")
	if user.Role != models.RoleUser {
		t.Errorf("Role = %q, want default %q", user.Role, models.RoleUser)
	}

	_, err := f.auth.SignUp(ctx, SignUpParams{Name: "again", Email: user.Email, Password: "secret1"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate SignUp() error = %v, want ErrUserAlreadyExists", err)
	}

	if _, err := f.auth.Login(ctx, LoginParams{Email: user.Email, Password: "wrong"}); !errors.Is(err, ErrUserPasswordMismatch) {
		t.Errorf("Login() with wrong password error = %v", err)
	}

	result, err := f.auth.Login(ctx, LoginParams{Email: user.Email, Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	claims, err := f.auth.ParseAccessToken(result.AccessToken)
	if err != nil || claims.Subject != user.ID {
		t.Errorf("ParseAccessToken() = %+v, %v", claims, err)
	}
}
