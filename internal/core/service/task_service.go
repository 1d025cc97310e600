package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

var _ ports.TaskService = (*TaskService)(nil)

// TaskService scopes every task operation to the calling identity.
type TaskService struct {
	repo ports.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo ports.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, ownerEmail string) ([]domain.Task, error) {
	if ownerEmail == "" {
		return nil, domain.ErrUnauthenticated
	}
	tasks, err := s.repo.FindByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	if in.OwnerEmail == "" {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
		OwnerEmail:  in.OwnerEmail,
	}
	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// Update replaces title, description and done. Only the owner may update.
func (s *TaskService) Update(ctx context.Context, in ports.UpdateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	task, err := s.owned(ctx, in.OwnerEmail, in.ID)
	if err != nil {
		return nil, err
	}

	task.Title = in.Title
	task.Description = in.Description
	task.Done = in.Done
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerEmail, id string) error {
	if _, err := s.owned(ctx, ownerEmail, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// owned loads a task and fails with domain.ErrForbidden when ownerEmail does
// not own it.
func (s *TaskService) owned(ctx context.Context, ownerEmail, id string) (*domain.Task, error) {
	if ownerEmail == "" {
		return nil, domain.ErrUnauthenticated
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(ownerEmail) {
		return nil, domain.ErrForbidden
	}
	return task, nil
}
