// Package generation launches generation tasks against AI providers, reconciles
// their remote progress and finalizes results into tasks, entities and assets.
package generation

import (
	"context"
	"fmt"
	"time"

	"aishortx/internal/assets"
	"aishortx/internal/domain"
	"aishortx/internal/entitysync"
	"aishortx/internal/infra"
	"aishortx/internal/infra/metrics"
	"aishortx/internal/providers/registry"
)

const (
	ReasonPendingTimeout    = "task failed to start (timeout)"
	ReasonProcessingTimeout = "task timed out"
	ReasonMissingResult     = "success but no result URL"
	ReasonUnknown           = "Unknown error"
	ReasonCancelled         = "User cancelled manually"
	ReasonNoResultShape     = "provider returned neither a result url nor a task id"
	ReasonCannotQuery       = "provider cannot query task status"
)

// Resolver binds a task to a provider and credentials.
type Resolver interface {
	Resolve(ctx context.Context, userID string, t domain.TaskType, model, providerID string) (*registry.Resolution, error)
}

// Options tunes the sweep.
type Options struct {
	PendingTimeout    time.Duration
	ProcessingTimeout time.Duration
	BatchSize         int
}

// Service owns every task state transition. All writes that touch a task
// together with its entity and assets go through one transaction.
type Service struct {
	tx       domain.Transactor
	tasks    domain.TaskRepository
	resolver Resolver
	sync     *entitysync.Synchronizer
	opts     Options
	logger   infra.Logger
	now      func() time.Time
}

// NewService wires the orchestrator. tasks is used for reads outside any
// transaction.
func NewService(tx domain.Transactor, tasks domain.TaskRepository, resolver Resolver, logger infra.Logger, opts Options) *Service {
	if opts.PendingTimeout <= 0 {
		opts.PendingTimeout = 5 * time.Minute
	}
	if opts.ProcessingTimeout <= 0 {
		opts.ProcessingTimeout = 20 * time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	return &Service{
		tx:       tx,
		tasks:    tasks,
		resolver: resolver,
		sync:     entitysync.New(logger),
		opts:     opts,
		logger:   logger.With().Str("component", "generation").Logger(),
		now:      time.Now,
	}
}

func (s *Service) taskLogger(task *domain.Task) infra.Logger {
	return s.logger.With().
		Str("task_id", task.ID).
		Str("category", string(task.Category)).
		Str("external_task_id", task.ExternalTaskID).
		Logger()
}

// markProcessing records a remote handle and flags the entity as generating.
func (s *Service) markProcessing(ctx context.Context, task *domain.Task, externalID string) error {
	progress := domain.ProgressLaunched
	return s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Tasks.Transition(ctx, task.ID, []domain.TaskStatus{domain.TaskStatusPending}, domain.TaskUpdate{
			Status:         domain.TaskStatusProcessing,
			ExternalTaskID: &externalID,
			Progress:       &progress,
		}); err != nil {
			return err
		}
		return s.sync.Sync(ctx, repos.Entities, task, entitysync.OutcomeGenerating, "", "")
	})
}

// complete finishes a task with at least one result URL. Every URL becomes a
// deduplicated asset and the first one is written onto the entity.
func (s *Service) complete(ctx context.Context, task *domain.Task, from domain.TaskStatus, urls []string, externalID *string) error {
	if len(urls) == 0 {
		return fmt.Errorf("complete task %s: no result url", task.ID)
	}
	progress := domain.ProgressDone
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Tasks.Transition(ctx, task.ID, []domain.TaskStatus{from}, domain.TaskUpdate{
			Status:         domain.TaskStatusCompleted,
			ExternalTaskID: externalID,
			Progress:       &progress,
		}); err != nil {
			return err
		}
		store := assets.NewStore(repos.Assets)
		for _, u := range urls {
			if _, err := store.CreateAsset(ctx, assetParams(task, u)); err != nil {
				return err
			}
		}
		return s.sync.Sync(ctx, repos.Entities, task, entitysync.OutcomeCompleted, urls[0], "")
	})
	if err == nil {
		metrics.TasksFinalized.WithLabelValues(string(task.Category), string(domain.TaskStatusCompleted), "success").Inc()
	}
	return err
}

// fail moves a task from any of from to failed and mirrors reason onto the entity.
func (s *Service) fail(ctx context.Context, task *domain.Task, from []domain.TaskStatus, reason, metricReason string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Tasks.Transition(ctx, task.ID, from, domain.TaskUpdate{
			Status: domain.TaskStatusFailed,
			Error:  &reason,
		}); err != nil {
			return err
		}
		return s.sync.Sync(ctx, repos.Entities, task, entitysync.OutcomeFailed, "", reason)
	})
	if err == nil {
		metrics.TasksFinalized.WithLabelValues(string(task.Category), string(domain.TaskStatusFailed), metricReason).Inc()
	}
	return err
}

func assetParams(task *domain.Task, url string) domain.CreateAssetParams {
	return domain.CreateAssetParams{
		UserID:    task.OwnerID,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Type:      domain.AssetType(task.Type),
		Usage:     task.Category.AssetUsage(),
		RelatedID: task.RelatedID,
		Source:    domain.AssetSourceGenerated,
		URL:       url,
	}
}
