package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, viewer Viewer, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		UserID:      viewer.UserID,
		Title:       params.Title,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   is_completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, FALSE, $5, $6)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, viewer Viewer) ([]*models.Task, error) {
	const selectTasksQuery = `
SELECT t.id,
       t.user_id,
       t.title,
       t.description,
       t.is_completed,
       t.completed_at,
       t.created_at,
       t.updated_at,
       u.name,
       u.email
FROM tasks t
JOIN users u ON u.id = t.user_id
WHERE $1::boolean OR t.user_id = $2
ORDER BY t.created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksQuery,
		viewer.IsAdmin(),
		viewer.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := new(models.Task)
		owner := new(models.TaskOwner)
		err = rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Description,
			&task.IsCompleted,
			&task.CompletedAt,
			&task.CreatedAt,
			&task.UpdatedAt,
			&owner.Name,
			&owner.Email,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		if viewer.IsAdmin() {
			owner.ID = task.UserID
			task.User = owner
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", viewer.UserID).
		Bool("admin", viewer.IsAdmin()).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, viewer Viewer, taskID string) (*models.Task, error) {
	if !s.validTaskID(taskID) {
		return nil, ErrTaskNotFound
	}

	task := &models.Task{ID: taskID}

	const selectTaskQuery = `
SELECT user_id,
       title,
       description,
       is_completed,
       completed_at,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND ($2::boolean OR user_id = $3)
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
		viewer.IsAdmin(),
		viewer.UserID,
	).Scan(
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", viewer.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("selected task")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, viewer Viewer, params UpdateTaskParams) (*models.Task, error) {
	if !s.validTaskID(params.ID) {
		return nil, ErrTaskNotFound
	}

	task := &models.Task{
		ID:        params.ID,
		UpdatedAt: time.Now(),
	}

	// completed_at follows is_completed: it is stamped when a pending task
	// is completed, kept when it stays completed and cleared on reopening.
	// An empty description clears the stored one.
	const updateTaskQuery = `
UPDATE tasks
SET title = COALESCE($1, title),
    description = CASE WHEN $2::text IS NULL THEN description ELSE NULLIF($2, '') END,
    is_completed = COALESCE($3, is_completed),
    completed_at = CASE
        WHEN $3::boolean IS NULL THEN completed_at
        WHEN $3::boolean AND NOT is_completed THEN $4
        WHEN $3::boolean THEN completed_at
        ELSE NULL
    END,
    updated_at = $4
WHERE id = $5 AND ($6::boolean OR user_id = $7)
RETURNING user_id, title, description, is_completed, completed_at, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		params.Title,
		params.Description,
		params.IsCompleted,
		task.UpdatedAt,
		task.ID,
		viewer.IsAdmin(),
		viewer.UserID,
	).Scan(
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&task.CompletedAt,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", viewer.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", viewer.UserID).
		Bool("is_completed", task.IsCompleted).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, viewer Viewer, taskID string) error {
	if !s.validTaskID(taskID) {
		return ErrTaskNotFound
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND ($2::boolean OR user_id = $3)
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		viewer.IsAdmin(),
		viewer.UserID,
	)
	if err != nil && !isMalformedID(err) {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	if err != nil || tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", taskID).
			Str("user_id", viewer.UserID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", viewer.UserID).
		Msg("deleted task")
	return nil
}

// validTaskID rejects ids that cannot name any task before they reach
// postgres; pgx refuses to encode them into a uuid parameter.
func (s *taskServiceImpl) validTaskID(taskID string) bool {
	if _, err := uuid.Parse(taskID); err != nil {
		s.logger.Error().
			Str("task_id", taskID).
			Msg("malformed task id")
		return false
	}
	return true
}

// isMalformedID reports whether postgres rejected an id that is not a uuid.
// Such an id cannot name any task.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
