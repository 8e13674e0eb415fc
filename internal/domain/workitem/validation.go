package workitem

import "strings"

// Validate checks the fields required to store a work item.
func Validate(item *WorkItem) error {
	if item == nil || strings.TrimSpace(item.Title) == "" {
		return ErrInvalidInput
	}
	if item.Kind != KindTask && item.Kind != KindProject {
		return ErrInvalidInput
	}
	if !item.Kind.ValidStatus(item.Status) {
		return ErrInvalidInput
	}
	if item.Kind == KindProject && (item.AssigneeID != nil || item.ProjectID != nil) {
		return ErrInvalidInput
	}
	if item.Kind == KindTask && len(item.Members) > 0 {
		return ErrInvalidInput
	}
	return nil
}
