package client

import (
	"context"
	"errors"
	"net/url"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

var ErrEmptyTaskID = errors.New("empty task id")

type taskServiceImpl struct {
	transport Transport
}

func NewTaskService(transport Transport) TaskService {
	return &taskServiceImpl{transport: transport}
}

func taskPath(id string) (string, error) {
	if id == "" {
		return "", ErrEmptyTaskID
	}
	return "/tasks/" + url.PathEscape(id), nil
}

func (s *taskServiceImpl) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := s.transport.Get(ctx, "/tasks", &tasks)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, id string) (*models.Task, error) {
	path, err := taskPath(id)
	if err != nil {
		return nil, err
	}

	task := new(models.Task)
	err = s.transport.Get(ctx, path, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	task := new(models.Task)
	err := s.transport.Post(ctx, "/tasks", req, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	path, err := taskPath(id)
	if err != nil {
		return nil, err
	}

	task := new(models.Task)
	err = s.transport.Put(ctx, path, req, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, id string) error {
	path, err := taskPath(id)
	if err != nil {
		return err
	}
	return s.transport.Delete(ctx, path, nil)
}

func (s *taskServiceImpl) ToggleComplete(ctx context.Context, id string, isCompleted bool) (*models.Task, error) {
	return s.Update(ctx, id, models.UpdateTaskRequest{IsCompleted: &isCompleted})
}
