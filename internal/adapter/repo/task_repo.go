package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/sqlinline"
)

// TaskRepositoryPG implements domain.TaskRepository.
type TaskRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewTaskRepository creates a task repository over a pool or transaction executor.
func NewTaskRepository(sql infra.SQLExecutor) *TaskRepositoryPG {
	return &TaskRepositoryPG{sql: sql}
}

// Create inserts a new pending task and fills the generated columns back into task.
func (r *TaskRepositoryPG) Create(ctx context.Context, task *domain.Task) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertTask,
		task.ID,
		task.ProjectID,
		string(task.Type),
		task.Model,
		task.ProviderID,
		string(task.Category),
		task.RelatedID,
		nullableBytes(task.InputParams),
	)
	var status string
	if err := row.Scan(&task.ID, &status, &task.Progress, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	task.Status = domain.TaskStatus(status)
	return nil
}

// GetByID fetches a task with its project owner.
func (r *TaskRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := scanTask(r.sql.QueryRow(ctx, sqlinline.QSelectTaskByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("get task %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// ListByStatus returns every task in status, least recently updated first.
func (r *TaskRepositoryPG) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	return r.list(ctx, sqlinline.QListTasksByStatus, string(status))
}

// ListPendingBefore returns pending tasks whose updated_at is older than cutoff.
func (r *TaskRepositoryPG) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	return r.list(ctx, sqlinline.QListPendingTasksBefore, cutoff)
}

func (r *TaskRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Transition writes u while the task is still in one of from.
func (r *TaskRepositoryPG) Transition(ctx context.Context, id string, from []domain.TaskStatus, u domain.TaskUpdate) error {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		if !s.CanTransition(u.Status) {
			return fmt.Errorf("transition %s -> %s: %w", s, u.Status, domain.ErrInvalidTask)
		}
		allowed = append(allowed, string(s))
	}
	if len(allowed) == 0 {
		return fmt.Errorf("transition to %s: no source states: %w", u.Status, domain.ErrInvalidTask)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QTransitionTask, id, string(u.Status), u.ExternalTaskID, u.Progress, u.Error, allowed)
	if err != nil {
		return fmt.Errorf("transition task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transition task %s to %s: %w", id, u.Status, domain.ErrStaleTransition)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                       domain.Task
		taskType, category, status string
		params                     []byte
	)
	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.OwnerID,
		&taskType,
		&task.Model,
		&task.ProviderID,
		&category,
		&task.RelatedID,
		&status,
		&params,
		&task.ExternalTaskID,
		&task.Progress,
		&task.Error,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.Type = domain.TaskType(taskType)
	task.Category = domain.Category(category)
	task.Status = domain.TaskStatus(status)
	if len(params) > 0 {
		task.InputParams = json.RawMessage(append([]byte(nil), params...))
	}
	return &task, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.TaskRepository = (*TaskRepositoryPG)(nil)
