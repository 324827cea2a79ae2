package tasks

import "github.com/tasknest/tasknest/internal/shared"

// CreateRequest is the payload for creating a task.
type CreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// UpdateRequest is the payload for a partial update. Absent keys are left
// unchanged; "description": null clears the description.
type UpdateRequest struct {
	Title       shared.Optional[string] `json:"title"`
	Description shared.Optional[string] `json:"description"`
	Completed   shared.Optional[bool]   `json:"completed"`
}

// ToggleRequest sets the completion state explicitly.
type ToggleRequest struct {
	Completed *bool `json:"completed"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}

// Patch converts the request into a domain patch.
func (r UpdateRequest) Patch() Patch {
	return Patch{Title: r.Title, Description: r.Description, Completed: r.Completed}
}
