package extension

import (
	"context"
	"fmt"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// RoleResolver routes task requests to the admins and managers of the
// task's project, or to every other member when none hold such a role.
// Project requests go to every other member.
type RoleResolver struct {
	items workitem.Repository
	users user.Repository
}

// NewRoleResolver creates the default reviewer resolver.
func NewRoleResolver(items workitem.Repository, users user.Repository) *RoleResolver {
	return &RoleResolver{items: items, users: users}
}

// Reviewers implements ReviewerResolver.
func (r *RoleResolver) Reviewers(ctx context.Context, item *workitem.WorkItem, requesterID string) ([]string, error) {
	project := item
	if item.Kind == workitem.KindTask {
		if item.ProjectID == nil || *item.ProjectID == "" {
			return nil, nil
		}
		p, err := workitem.Lookup(ctx, r.items, workitem.KindProject, *item.ProjectID)
		if err != nil {
			return nil, err
		}
		project = p
	}

	candidates := make([]string, 0, len(project.Members))
	for _, m := range project.Recipients() {
		if m != requesterID {
			candidates = append(candidates, m)
		}
	}
	if item.Kind == workitem.KindProject || len(candidates) == 0 {
		return candidates, nil
	}

	users, err := r.users.ListByIDs(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("loading project members: %w", err)
	}
	privileged := make(map[string]bool, len(users))
	for _, u := range users {
		if u.Role.IsPrivileged() {
			privileged[u.ID] = true
		}
	}
	reviewers := make([]string, 0, len(privileged))
	for _, id := range candidates {
		if privileged[id] {
			reviewers = append(reviewers, id)
		}
	}
	if len(reviewers) == 0 {
		return candidates, nil
	}
	return reviewers, nil
}
