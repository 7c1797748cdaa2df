package repo

import (
	"context"
	"fmt"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/sqlinline"
)

// ProjectRepositoryPG resolves project ownership.
type ProjectRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProjectRepository(sql infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{sql: sql}
}

func (r *ProjectRepositoryPG) OwnerOf(ctx context.Context, projectID string) (string, error) {
	var owner string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectProjectOwner, projectID).Scan(&owner); err != nil {
		if infra.IsNoRows(err) {
			return "", fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("project %s: %w", projectID, err)
	}
	return owner, nil
}

var _ domain.ProjectRepository = (*ProjectRepositoryPG)(nil)
