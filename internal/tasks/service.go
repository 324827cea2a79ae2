package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasknest/tasknest/internal/shared"
)

// Repository persists tasks. Every method is scoped by the owning user id;
// a task owned by someone else is reported as shared.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, task Task) (*Task, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]Task, error)
	Get(ctx context.Context, userID, taskID int64) (*Task, error)
	// Update applies patch atomically and returns the stored task. An empty
	// patch returns the task unchanged.
	Update(ctx context.Context, userID, taskID int64, patch Patch, now time.Time) (*Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
}

// Service implements task CRUD for an authenticated user.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create stores a new, incomplete task for userID.
func (s *Service) Create(ctx context.Context, userID int64, title string, description *string) (*Task, error) {
	if userID <= 0 {
		return nil, shared.ErrUnauthenticated
	}
	if err := validateCreate(title, description); err != nil {
		return nil, err
	}
	now := s.timestamp()
	task, err := s.repo.Create(ctx, Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("tasks: create: %w", err)
	}
	return task, nil
}

// List returns the tasks owned by userID, newest first.
func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]Task, error) {
	if userID <= 0 {
		return nil, shared.ErrUnauthenticated
	}
	items, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	if items == nil {
		items = []Task{}
	}
	return items, nil
}

// Get returns one task owned by userID.
func (s *Service) Get(ctx context.Context, userID, taskID int64) (*Task, error) {
	if userID <= 0 {
		return nil, shared.ErrUnauthenticated
	}
	if taskID <= 0 {
		return nil, shared.ErrNotFound
	}
	return wrapNotFound(s.repo.Get(ctx, userID, taskID))
}

// Update applies a partial update to a task owned by userID.
func (s *Service) Update(ctx context.Context, userID, taskID int64, patch Patch) (*Task, error) {
	if userID <= 0 {
		return nil, shared.ErrUnauthenticated
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if taskID <= 0 {
		return nil, shared.ErrNotFound
	}
	return wrapNotFound(s.repo.Update(ctx, userID, taskID, patch, s.timestamp()))
}

// ToggleCompletion sets the completion state to completed. It is not a flip.
func (s *Service) ToggleCompletion(ctx context.Context, userID, taskID int64, completed bool) (*Task, error) {
	return s.Update(ctx, userID, taskID, Patch{Completed: shared.Some(completed)})
}

// Delete removes a task owned by userID. Deleting twice yields shared.ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID, taskID int64) error {
	if userID <= 0 {
		return shared.ErrUnauthenticated
	}
	if taskID <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, userID, taskID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return fmt.Errorf("tasks: delete: %w", err)
	}
	return nil
}

func wrapNotFound(task *Task, err error) (*Task, error) {
	if err == nil {
		return task, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("tasks: %w", err)
}
