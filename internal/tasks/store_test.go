package tasks_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/client"
	"github.com/adanyl0v/go-todo-client/internal/forms"
	"github.com/adanyl0v/go-todo-client/internal/models"
	"github.com/adanyl0v/go-todo-client/internal/tasks"
)

type mockTaskService struct {
	ListFunc           func(ctx context.Context) ([]models.Task, error)
	GetFunc            func(ctx context.Context, id string) (*models.Task, error)
	CreateFunc         func(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)
	UpdateFunc         func(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error)
	DeleteFunc         func(ctx context.Context, id string) error
	ToggleCompleteFunc func(ctx context.Context, id string, isCompleted bool) (*models.Task, error)

	listCalls   atomic.Int32
	mutateCalls atomic.Int32
}

func (m *mockTaskService) List(ctx context.Context) ([]models.Task, error) {
	m.listCalls.Add(1)
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []models.Task{}, nil
}

func (m *mockTaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskService) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	m.mutateCalls.Add(1)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &models.Task{ID: "new", Title: req.Title}, nil
}

func (m *mockTaskService) Update(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	m.mutateCalls.Add(1)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, req)
	}
	return &models.Task{ID: id}, nil
}

func (m *mockTaskService) Delete(ctx context.Context, id string) error {
	m.mutateCalls.Add(1)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockTaskService) ToggleComplete(ctx context.Context, id string, isCompleted bool) (*models.Task, error) {
	m.mutateCalls.Add(1)
	if m.ToggleCompleteFunc != nil {
		return m.ToggleCompleteFunc(ctx, id, isCompleted)
	}
	return &models.Task{ID: id, IsCompleted: isCompleted}, nil
}

type notification struct {
	ok          bool
	title, desc string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []notification
}

func (n *recordingNotifier) Success(title, desc string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notification{ok: true, title: title, desc: desc})
}

func (n *recordingNotifier) Error(title, desc string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notification{title: title, desc: desc})
}

func (n *recordingNotifier) last(t *testing.T) notification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		t.Fatal("no notification sent")
	}
	return n.notes[len(n.notes)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "1", Title: "Buy milk", UserID: "alice"},
		{ID: "2", Title: "Walk the dog", UserID: "bob", IsCompleted: true},
	}
}

func newStore(svc *mockTaskService) (*tasks.Store, *recordingNotifier) {
	notifier := &recordingNotifier{}
	return tasks.NewStore(zerolog.Nop(), svc, notifier), notifier
}

func TestTasksIsCached(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
		return sampleTasks(), nil
	}}
	store, _ := newStore(svc)

	if !store.Loading() {
		t.Error("Loading() = false before first read")
	}
	for range 3 {
		got, err := store.Tasks(context.Background())
		if err != nil {
			t.Fatalf("Tasks() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Tasks() returned %d tasks, want 2", len(got))
		}
	}
	if store.Loading() {
		t.Error("Loading() = true after read")
	}
	if n := svc.listCalls.Load(); n != 1 {
		t.Errorf("List called %d times, want 1", n)
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
		return sampleTasks(), nil
	}}
	store, _ := newStore(svc)

	got, _ := store.Tasks(context.Background())
	got[0].Title = "changed"

	again, _ := store.Tasks(context.Background())
	if again[0].Title != "Buy milk" {
		t.Error("mutating a read result changed the cache")
	}
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
		<-release
		return sampleTasks(), nil
	}}
	store, _ := newStore(svc)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Tasks(context.Background()); err != nil {
				t.Errorf("Tasks() error = %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := svc.listCalls.Load(); n != 1 {
		t.Errorf("List called %d times, want 1", n)
	}
}

func TestReadFailure(t *testing.T) {
	t.Parallel()

	fail := true
	svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
		if fail {
			return nil, &client.APIError{StatusCode: http.StatusInternalServerError}
		}
		return sampleTasks(), nil
	}}
	store, notifier := newStore(svc)

	got, err := store.Tasks(context.Background())
	if err == nil {
		t.Fatal("Tasks() error = nil, want error")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Tasks() = %v, want empty non-nil slice", got)
	}
	if store.Loading() || store.Err() == nil {
		t.Errorf("Loading() = %v, Err() = %v after failed read", store.Loading(), store.Err())
	}
	if notifier.count() != 0 {
		t.Error("read failure produced a notification")
	}

	fail = false
	got, err = store.Tasks(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("Tasks() after recovery = %v, %v", got, err)
	}
	if store.Err() != nil {
		t.Errorf("Err() = %v after successful read", store.Err())
	}
}

func TestMutationsInvalidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*tasks.Store) error
		msg    string
	}{
		{
			name: "create",
			mutate: func(s *tasks.Store) error {
				_, err := s.Create(context.Background(), models.CreateTaskRequest{Title: "New task"})
				return err
			},
			msg: tasks.MsgCreated,
		},
		{
			name: "update",
			mutate: func(s *tasks.Store) error {
				title := "Buy oat milk"
				_, err := s.Update(context.Background(), "1", models.UpdateTaskRequest{Title: &title})
				return err
			},
			msg: tasks.MsgUpdated,
		},
		{
			name: "delete",
			mutate: func(s *tasks.Store) error {
				return s.Delete(context.Background(), "1", tasks.ConfirmFunc(func(string, string) bool { return true }))
			},
			msg: tasks.MsgDeleted,
		},
		{
			name: "toggle",
			mutate: func(s *tasks.Store) error {
				_, _, err := s.ToggleComplete(context.Background(), "1", true)
				return err
			},
			msg: tasks.MsgCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
				return sampleTasks(), nil
			}}
			store, notifier := newStore(svc)

			if _, err := store.Tasks(context.Background()); err != nil {
				t.Fatalf("Tasks() error = %v", err)
			}
			if err := tt.mutate(store); err != nil {
				t.Fatalf("mutation error = %v", err)
			}
			if !store.Loading() {
				t.Error("collection still cached after mutation")
			}
			if _, err := store.Tasks(context.Background()); err != nil {
				t.Fatalf("Tasks() error = %v", err)
			}
			if n := svc.listCalls.Load(); n != 2 {
				t.Errorf("List called %d times, want 2", n)
			}
			if got := notifier.last(t); !got.ok || got.title != tt.msg {
				t.Errorf("notification = %+v, want success %q", got, tt.msg)
			}
		})
	}
}

func TestMutationFailureKeepsCache(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{
		ListFunc: func(context.Context) ([]models.Task, error) {
			return sampleTasks(), nil
		},
		CreateFunc: func(context.Context, models.CreateTaskRequest) (*models.Task, error) {
			return nil, &client.APIError{StatusCode: http.StatusBadRequest, Message: "Title already used", HasMessage: true}
		},
		DeleteFunc: func(context.Context, string) error {
			return &client.APIError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
		},
	}
	store, notifier := newStore(svc)
	_, _ = store.Tasks(context.Background())

	_, err := store.Create(context.Background(), models.CreateTaskRequest{Title: "Buy milk"})
	if err == nil {
		t.Fatal("Create() error = nil")
	}
	if got := notifier.last(t); got.ok || got.title != tasks.MsgCreateFailed || got.desc != "Title already used" {
		t.Errorf("notification = %+v", got)
	}

	err = store.Delete(context.Background(), "1", tasks.ConfirmFunc(func(string, string) bool { return true }))
	if err == nil {
		t.Fatal("Delete() error = nil")
	}
	if got := notifier.last(t); got.title != tasks.MsgDeleteFailed || got.desc != client.DefaultErrorMessage {
		t.Errorf("notification = %+v, want fallback message", got)
	}

	if store.Loading() {
		t.Error("failed mutation invalidated the collection")
	}
	if n := svc.listCalls.Load(); n != 1 {
		t.Errorf("List called %d times, want 1", n)
	}
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{}
	store, notifier := newStore(svc)

	_, err := store.Create(context.Background(), models.CreateTaskRequest{Title: "  ab  "})

	var fieldErrs forms.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("Create() error = %v, want FieldErrors", err)
	}
	if n := svc.mutateCalls.Load(); n != 0 {
		t.Errorf("service called %d times, want 0", n)
	}
	if notifier.count() != 0 {
		t.Error("validation failure produced a notification")
	}
}

func TestCreateTrimsInput(t *testing.T) {
	t.Parallel()

	var sent models.CreateTaskRequest
	svc := &mockTaskService{CreateFunc: func(_ context.Context, req models.CreateTaskRequest) (*models.Task, error) {
		sent = req
		return &models.Task{ID: "new", Title: req.Title}, nil
	}}
	store, _ := newStore(svc)

	desc := "   "
	if _, err := store.Create(context.Background(), models.CreateTaskRequest{Title: " Buy milk ", Description: &desc}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sent.Title != "Buy milk" || sent.Description != nil {
		t.Errorf("sent %+v, want trimmed title and no description", sent)
	}
}

func TestUpdateWithoutChanges(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
		return sampleTasks(), nil
	}}
	store, _ := newStore(svc)

	if _, err := store.Update(context.Background(), "1", models.UpdateTaskRequest{}); !errors.Is(err, tasks.ErrNoChanges) {
		t.Errorf("empty Update() error = %v, want ErrNoChanges", err)
	}

	_, _ = store.Tasks(context.Background())
	same := " Buy milk "
	if _, err := store.Update(context.Background(), "1", models.UpdateTaskRequest{Title: &same}); !errors.Is(err, tasks.ErrNoChanges) {
		t.Errorf("unchanged Update() error = %v, want ErrNoChanges", err)
	}
	if n := svc.mutateCalls.Load(); n != 0 {
		t.Errorf("service called %d times, want 0", n)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{}
	store, _ := newStore(svc)

	var asked []string
	decline := tasks.ConfirmFunc(func(title, desc string) bool {
		asked = append(asked, title, desc)
		return false
	})

	if err := store.Delete(context.Background(), "1", decline); !errors.Is(err, tasks.ErrNotConfirmed) {
		t.Errorf("Delete() error = %v, want ErrNotConfirmed", err)
	}
	if err := store.Delete(context.Background(), "1", nil); !errors.Is(err, tasks.ErrNotConfirmed) {
		t.Errorf("Delete(nil confirm) error = %v, want ErrNotConfirmed", err)
	}
	if n := svc.mutateCalls.Load(); n != 0 {
		t.Errorf("service called %d times, want 0", n)
	}
	if len(asked) != 2 || asked[0] != tasks.ConfirmDeleteTitle || asked[1] != tasks.ConfirmDeleteDescription {
		t.Errorf("confirmation asked %v", asked)
	}
}

func TestToggleOutcomeFollowsResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		requested bool
		returned  bool
		want      tasks.Outcome
		msg       string
	}{
		{"complete", true, true, tasks.OutcomeCompleted, tasks.MsgCompleted},
		{"reopen", false, false, tasks.OutcomeReopened, tasks.MsgReopened},
		{"server keeps open", true, false, tasks.OutcomeReopened, tasks.MsgReopened},
		{"server keeps done", false, true, tasks.OutcomeCompleted, tasks.MsgCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockTaskService{ToggleCompleteFunc: func(_ context.Context, id string, isCompleted bool) (*models.Task, error) {
				if isCompleted != tt.requested {
					t.Errorf("requested %v, want %v", isCompleted, tt.requested)
				}
				return &models.Task{ID: id, IsCompleted: tt.returned}, nil
			}}
			store, notifier := newStore(svc)

			outcome, task, err := store.ToggleComplete(context.Background(), "1", tt.requested)
			if err != nil {
				t.Fatalf("ToggleComplete() error = %v", err)
			}
			if outcome != tt.want {
				t.Errorf("outcome = %v, want %v", outcome, tt.want)
			}
			if task.IsCompleted != tt.returned {
				t.Errorf("task.IsCompleted = %v, want %v", task.IsCompleted, tt.returned)
			}
			if got := notifier.last(t); got.title != tt.msg {
				t.Errorf("notification = %q, want %q", got.title, tt.msg)
			}
		})
	}
}

func TestToggleFailure(t *testing.T) {
	t.Parallel()

	svc := &mockTaskService{ToggleCompleteFunc: func(context.Context, string, bool) (*models.Task, error) {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Task not found", HasMessage: true}
	}}
	store, notifier := newStore(svc)

	_, task, err := store.ToggleComplete(context.Background(), "1", true)
	if err == nil || task != nil {
		t.Fatalf("ToggleComplete() = %v, %v, want error", task, err)
	}
	if got := notifier.last(t); got.ok || got.title != tasks.MsgToggleFailed || got.desc != "Task not found" {
		t.Errorf("notification = %+v", got)
	}
}

func TestInvalidateDuringFetchDoesNotCacheStale(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	svc := &mockTaskService{ListFunc: func(context.Context) ([]models.Task, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []models.Task{{ID: "stale"}}, nil
		}
		return sampleTasks(), nil
	}}
	store, _ := newStore(svc)

	done := make(chan []models.Task)
	go func() {
		got, _ := store.Tasks(context.Background())
		done <- got
	}()

	<-started
	store.Invalidate()
	close(release)

	if got := <-done; len(got) != 1 || got[0].ID != "stale" {
		t.Errorf("in-flight read = %v, want the stale response", got)
	}
	got, err := store.Tasks(context.Background())
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Tasks() after invalidation = %v, want fresh list", got)
	}
}

func TestCancelledReaderDoesNotFailSharedFetch(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	svc := &mockTaskService{ListFunc: func(ctx context.Context) ([]models.Task, error) {
		close(started)
		select {
		case <-release:
			return sampleTasks(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	store, _ := newStore(svc)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := store.Tasks(ctxA)
		errA <- err
	}()
	<-started

	resB := make(chan []models.Task, 1)
	errB := make(chan error, 1)
	go func() {
		got, err := store.Tasks(context.Background())
		resB <- got
		errB <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled reader error = %v, want context.Canceled", err)
	}

	close(release)
	if err := <-errB; err != nil {
		t.Fatalf("live reader error = %v", err)
	}
	if got := <-resB; len(got) != 2 {
		t.Errorf("live reader got %d tasks, want 2", len(got))
	}
	if n := svc.listCalls.Load(); n != 1 {
		t.Errorf("List called %d times, want 1", n)
	}
}
