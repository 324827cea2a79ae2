package tasks

import (
	"time"

	"github.com/tasknest/tasknest/internal/shared"
)

// Field limits, counted in characters.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows a task listing. A nil Completed lists every task.
type ListFilter struct {
	Completed *bool
}

// Patch is a partial update. Description.Null clears the description.
type Patch struct {
	Title       shared.Optional[string]
	Description shared.Optional[string]
	Completed   shared.Optional[bool]
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}

// Apply writes the present fields onto t and refreshes UpdatedAt. id, user_id
// and created_at are never touched. It reports whether anything was applied.
func (p Patch) Apply(t *Task, now time.Time) bool {
	if p.IsEmpty() {
		return false
	}
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		if p.Description.Null {
			t.Description = nil
		} else {
			desc := p.Description.Value
			t.Description = &desc
		}
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
	t.UpdatedAt = now
	return true
}
