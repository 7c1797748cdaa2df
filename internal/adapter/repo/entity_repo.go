package repo

import (
	"context"
	"fmt"
	"strings"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/sqlinline"
)

type entityTable struct {
	name    string
	marker  string
	columns map[string]struct{}
}

func columnSet(cols ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		out[c] = struct{}{}
	}
	return out
}

// Only these columns may be written by status synchronization.
var entityTables = map[domain.EntityKind]entityTable{
	domain.EntityCharacter: {
		name:    "characters",
		marker:  sqlinline.MarkerUpdateCharacter,
		columns: columnSet("image_status", "image_url", "video_status", "video_url"),
	},
	domain.EntityScene: {
		name:    "scenes",
		marker:  sqlinline.MarkerUpdateScene,
		columns: columnSet("status", "image_url"),
	},
	domain.EntityProp: {
		name:    "props",
		marker:  sqlinline.MarkerUpdateProp,
		columns: columnSet("status", "image_url"),
	},
	domain.EntityStoryboard: {
		name:   "storyboards",
		marker: sqlinline.MarkerUpdateStoryboard,
		columns: columnSet(
			"image_status", "image_url",
			"status", "video_url", "error_msg",
			"high_res_status", "high_res_video_url", "high_res_error_msg",
		),
	},
}

// EntityRepositoryPG rewrites status columns on characters, scenes, props and storyboards.
type EntityRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewEntityRepository(sql infra.SQLExecutor) *EntityRepositoryPG {
	return &EntityRepositoryPG{sql: sql}
}

// UpdateEntity applies fields to the row ref points at and reports the rows
// touched. Rows outside ref.ProjectID never match.
func (r *EntityRepositoryPG) UpdateEntity(ctx context.Context, ref domain.EntityRef, fields []domain.FieldValue) (int64, error) {
	query, args, err := buildEntityUpdate(ref, fields)
	if err != nil {
		return 0, err
	}
	if query == "" {
		return 0, nil
	}
	tag, err := r.sql.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s %s: %w", ref.Kind, ref.ID, err)
	}
	return tag.RowsAffected(), nil
}

func buildEntityUpdate(ref domain.EntityRef, fields []domain.FieldValue) (string, []any, error) {
	table, ok := entityTables[ref.Kind]
	if !ok {
		return "", nil, fmt.Errorf("unknown entity kind %q", ref.Kind)
	}
	if ref.ProjectID == "" {
		return "", nil, fmt.Errorf("update %s %s: project id required: %w", ref.Kind, ref.ID, domain.ErrInvalidTask)
	}
	if len(fields) == 0 {
		return "", nil, nil
	}
	args := make([]any, 0, len(fields)+2)
	args = append(args, ref.ID, ref.ProjectID)
	sets := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if _, ok := table.columns[f.Column]; !ok {
			return "", nil, fmt.Errorf("column %q not writable on %s", f.Column, table.name)
		}
		args = append(args, f.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d::text", f.Column, len(args)))
	}
	sets = append(sets, "updated_at = now()")
	query := table.marker + "\nupdate " + table.name + "\nset " + strings.Join(sets, ",\n    ") + "\nwhere id = $1::uuid\n  and project_id = $2::uuid;"
	return query, args, nil
}

var _ domain.EntityRepository = (*EntityRepositoryPG)(nil)
