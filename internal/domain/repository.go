package domain

import (
	"context"
	"time"
)

// TaskRepository persists generation tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	ListByStatus(ctx context.Context, status TaskStatus) ([]Task, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Task, error)
	// Transition applies u only while the task is in one of from. It returns
	// ErrStaleTransition when no row matched.
	Transition(ctx context.Context, id string, from []TaskStatus, u TaskUpdate) error
}

// AssetRepository persists generated and uploaded media.
type AssetRepository interface {
	FindOrCreate(ctx context.Context, p CreateAssetParams) (*Asset, error)
	History(ctx context.Context, q AssetHistoryQuery) ([]Asset, error)
}

// EntityRepository rewrites status columns on domain entities. It never
// inserts or deletes rows; the returned count is the number of rows updated,
// zero when the row is missing or belongs to another project.
type EntityRepository interface {
	UpdateEntity(ctx context.Context, ref EntityRef, fields []FieldValue) (int64, error)
}

// Repositories bundles repositories sharing one transaction.
type Repositories struct {
	Tasks    TaskRepository
	Assets   AssetRepository
	Entities EntityRepository
}

// Transactor runs fn inside a single atomic unit. Any error returned by fn
// rolls back every write made through repos.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// ProjectRepository resolves project ownership.
type ProjectRepository interface {
	OwnerOf(ctx context.Context, projectID string) (string, error)
}
