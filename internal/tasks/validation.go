package tasks

import (
	"fmt"
	"unicode/utf8"

	"github.com/tasknest/tasknest/internal/shared"
)

func checkTitle(title string, fields map[string]string) {
	switch {
	case title == "":
		fields["title"] = "is required"
	case utf8.RuneCountInString(title) > MaxTitleLength:
		fields["title"] = fmt.Sprintf("must be at most %d characters", MaxTitleLength)
	}
}

func checkDescription(desc string, fields map[string]string) {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		fields["description"] = fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)
	}
}

// validateCreate checks title and description. Values are stored as sent.
func validateCreate(title string, description *string) error {
	fields := map[string]string{}
	checkTitle(title, fields)
	if description != nil {
		checkDescription(*description, fields)
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

// validatePatch checks the present fields. Title and completed cannot be null.
func validatePatch(p Patch) error {
	fields := map[string]string{}
	if p.Title.Set {
		if p.Title.Null {
			fields["title"] = "cannot be null"
		} else {
			checkTitle(p.Title.Value, fields)
		}
	}
	if p.Description.Set && !p.Description.Null {
		checkDescription(p.Description.Value, fields)
	}
	if p.Completed.Set && p.Completed.Null {
		fields["completed"] = "cannot be null"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}
