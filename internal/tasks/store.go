// Package tasks keeps the task collection visible to the current session
// and exposes the mutations on it.
//
// The collection is cached under a single key. Every successful mutation
// invalidates it so the next read fetches the authoritative list again;
// nothing is patched locally.
package tasks

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/adanyl0v/go-todo-client/internal/client"
	"github.com/adanyl0v/go-todo-client/internal/forms"
	"github.com/adanyl0v/go-todo-client/internal/models"
)

// CollectionKey names the cache entry holding the task collection.
const CollectionKey = "tasks"

var (
	ErrNotConfirmed = errors.New("deletion not confirmed")
	ErrNoChanges    = errors.New("no changes to save")
)

const (
	MsgCreated   = "Task created"
	MsgUpdated   = "Task updated"
	MsgDeleted   = "Task deleted"
	MsgCompleted = "Task completed"
	MsgReopened  = "Task reopened"

	MsgCreateFailed = "Failed to create task"
	MsgUpdateFailed = "Failed to update task"
	MsgDeleteFailed = "Failed to delete task"
	MsgToggleFailed = "Failed to update status"

	ConfirmDeleteTitle       = "Are you sure?"
	ConfirmDeleteDescription = "This action cannot be undone."
)

// Notifier reports mutation outcomes to the user.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(title, description string) bool
}

type ConfirmFunc func(title, description string) bool

func (f ConfirmFunc) Confirm(title, description string) bool {
	return f(title, description)
}

type Outcome int

const (
	OutcomeReopened Outcome = iota
	OutcomeCompleted
)

func (o Outcome) String() string {
	if o == OutcomeCompleted {
		return "completed"
	}
	return "reopened"
}

type nopNotifier struct{}

func (nopNotifier) Success(string, string) {}
func (nopNotifier) Error(string, string)   {}

// Store is safe for concurrent use. Mutations are neither queued nor
// deduplicated; overlapping ones each invalidate the collection.
type Store struct {
	logger   zerolog.Logger
	service  client.TaskService
	notifier Notifier
	group    singleflight.Group

	mu         sync.Mutex
	cached     []models.Task
	valid      bool
	generation uint64
	readErr    error
}

func NewStore(logger zerolog.Logger, service client.TaskService, notifier Notifier) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Store{
		logger:   logger,
		service:  service,
		notifier: notifier,
	}
}

// Tasks returns the cached collection, fetching it first when nothing is
// cached. The result is never nil. Concurrent callers share one fetch.
func (s *Store) Tasks(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	if s.valid {
		tasks := slices.Clone(s.cached)
		s.mu.Unlock()
		return tasks, nil
	}
	generation := s.generation
	s.mu.Unlock()

	// The shared fetch outlives any single caller; each caller only stops
	// waiting for it when its own context ends.
	key := CollectionKey + "/" + strconv.FormatUint(generation, 10)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), generation)
	})

	select {
	case <-ctx.Done():
		return []models.Task{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return []models.Task{}, res.Err
		}
		s.logger.Trace().
			Bool("shared", res.Shared).
			Msg("read task collection")
		return slices.Clone(res.Val.([]models.Task)), nil
	}
}

func (s *Store) fetch(ctx context.Context, generation uint64) ([]models.Task, error) {
	tasks, err := s.service.List(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to fetch tasks")
		s.mu.Lock()
		if s.generation == generation {
			s.readErr = err
		}
		s.mu.Unlock()
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	s.mu.Lock()
	// An invalidation that happened while the request was in flight makes
	// this response stale for the cache, though not for its callers.
	if s.generation == generation {
		s.cached = tasks
		s.valid = true
		s.readErr = nil
	}
	s.mu.Unlock()

	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("fetched tasks")
	return tasks, nil
}

// Loading reports whether the collection has not been fetched yet. It is
// false after a failed fetch; see Err.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.valid && s.readErr == nil
}

// Err returns the error of the last failed read, if the collection is not
// cached.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// Invalidate discards the cached collection so the next read refetches it.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.valid = false
	s.readErr = nil
	s.generation++
	s.mu.Unlock()

	s.logger.Debug().
		Str("key", CollectionKey).
		Msg("invalidated cache")
}

func (s *Store) cachedTask(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return models.Task{}, false
	}
	for _, task := range s.cached {
		if task.ID == id {
			return task, true
		}
	}
	return models.Task{}, false
}

func (s *Store) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	req, err := forms.NormalizeCreateTask(req)
	if err != nil {
		return nil, err
	}

	task, err := s.service.Create(ctx, req)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		s.notifier.Error(MsgCreateFailed, client.ErrorMessage(err, client.DefaultErrorMessage))
		return nil, err
	}

	s.Invalidate()
	s.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	s.notifier.Success(MsgCreated, "")
	return task, nil
}

// Update applies a partial update. It returns ErrNoChanges without
// calling the API when req changes nothing on the cached task.
func (s *Store) Update(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	req, err := forms.NormalizeUpdateTask(req)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, ErrNoChanges
	}
	if current, ok := s.cachedTask(id); ok && !changes(current, req) {
		s.logger.Debug().
			Str("task_id", id).
			Msg("skipped update without changes")
		return nil, ErrNoChanges
	}

	task, err := s.service.Update(ctx, id, req)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task")
		s.notifier.Error(MsgUpdateFailed, client.ErrorMessage(err, client.DefaultErrorMessage))
		return nil, err
	}

	s.Invalidate()
	s.logger.Info().
		Str("task_id", id).
		Msg("updated task")
	s.notifier.Success(MsgUpdated, "")
	return task, nil
}

func changes(task models.Task, req models.UpdateTaskRequest) bool {
	if req.Title != nil && *req.Title != task.Title {
		return true
	}
	if req.Description != nil && *req.Description != task.DescriptionText() {
		return true
	}
	if req.IsCompleted != nil && *req.IsCompleted != task.IsCompleted {
		return true
	}
	return false
}

// Delete removes a task once confirm approves it. A declined or missing
// confirmation returns ErrNotConfirmed and sends nothing.
func (s *Store) Delete(ctx context.Context, id string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ConfirmDeleteTitle, ConfirmDeleteDescription) {
		s.logger.Debug().
			Str("task_id", id).
			Msg("deletion not confirmed")
		return ErrNotConfirmed
	}

	err := s.service.Delete(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		s.notifier.Error(MsgDeleteFailed, client.ErrorMessage(err, client.DefaultErrorMessage))
		return err
	}

	s.Invalidate()
	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	s.notifier.Success(MsgDeleted, "")
	return nil
}

// ToggleComplete sets the completion flag of a task. The outcome follows
// the flag returned by the API, not the requested one.
func (s *Store) ToggleComplete(ctx context.Context, id string, isCompleted bool) (Outcome, *models.Task, error) {
	task, err := s.service.ToggleComplete(ctx, id, isCompleted)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Bool("is_completed", isCompleted).
			Msg("failed to toggle task")
		s.notifier.Error(MsgToggleFailed, client.ErrorMessage(err, client.DefaultErrorMessage))
		return OutcomeReopened, nil, err
	}

	s.Invalidate()

	outcome := OutcomeReopened
	msg := MsgReopened
	if task.IsCompleted {
		outcome = OutcomeCompleted
		msg = MsgCompleted
	}
	if task.IsCompleted != isCompleted {
		s.logger.Warn().
			Str("task_id", id).
			Bool("requested", isCompleted).
			Bool("returned", task.IsCompleted).
			Msg("api returned a different completion state")
	}

	s.logger.Info().
		Str("task_id", id).
		Stringer("outcome", outcome).
		Msg("toggled task")
	s.notifier.Success(msg, "")
	return outcome, task, nil
}
