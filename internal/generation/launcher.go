package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aishortx/internal/domain"
	"aishortx/internal/infra/metrics"
	"aishortx/internal/providers"
)

// Launch submits a pending task to its provider and records the first
// transition. Provider failures are persisted onto the task and also
// returned, wrapped in domain.ErrProviderFailure, so the caller can report
// them. A launch whose ctx was cancelled writes nothing and leaves the task
// pending. A task that left pending while the provider call was in flight,
// for example through a user cancel, is left as is.
func (s *Service) Launch(ctx context.Context, task *domain.Task, userID string) error {
	log := s.taskLogger(task)
	if userID == "" {
		userID = task.OwnerID
	}

	res, err := s.resolver.Resolve(ctx, userID, task.Type, task.Model, task.ProviderID)
	if err != nil {
		return s.launchFailed(ctx, task, err)
	}
	req, err := providers.RequestFromTask(task, res.ModelValue)
	if err != nil {
		return s.launchFailed(ctx, task, err)
	}
	log = log.With().Str("provider", res.ProviderID).Str("model", res.ModelValue).Logger()

	switch task.Type {
	case domain.TaskTypeVideo:
		sub, err := res.Video.GenerateVideo(ctx, req, res.APIKey)
		if err != nil {
			return s.launchFailed(ctx, task, err)
		}
		if sub == nil || strings.TrimSpace(sub.ExternalTaskID) == "" {
			return s.launchFailed(ctx, task, errors.New(ReasonNoResultShape))
		}
		return s.launchedAsync(ctx, task, strings.TrimSpace(sub.ExternalTaskID))

	case domain.TaskTypeImage:
		out, err := res.Image.GenerateImage(ctx, req, res.APIKey)
		if err != nil {
			return s.launchFailed(ctx, task, err)
		}
		if urls := out.ResultURLs(); len(urls) > 0 {
			direct := domain.DirectResponseExternalID
			if err := s.complete(persistCtx(ctx), task, domain.TaskStatusPending, urls, &direct); err != nil {
				return s.ignoreStale(task, err)
			}
			metrics.TasksLaunched.WithLabelValues(string(task.Type), "direct").Inc()
			log.Info().Int("results", len(urls)).Msg("task completed synchronously")
			return nil
		}
		if out != nil && strings.TrimSpace(out.ExternalTaskID) != "" {
			return s.launchedAsync(ctx, task, strings.TrimSpace(out.ExternalTaskID))
		}
		return s.launchFailed(ctx, task, errors.New(ReasonNoResultShape))

	default:
		return s.launchFailed(ctx, task, fmt.Errorf("unsupported task type %q", task.Type))
	}
}

func (s *Service) launchedAsync(ctx context.Context, task *domain.Task, externalID string) error {
	if err := s.markProcessing(persistCtx(ctx), task, externalID); err != nil {
		return s.ignoreStale(task, err)
	}
	metrics.TasksLaunched.WithLabelValues(string(task.Type), "async").Inc()
	log := s.taskLogger(task)
	log.Info().Str("external_task_id", externalID).Msg("task submitted")
	return nil
}

func (s *Service) launchFailed(ctx context.Context, task *domain.Task, cause error) error {
	log := s.taskLogger(task)
	// A cancelled caller (shutdown) is not a provider verdict. The task stays
	// pending and the sweep reaps it once it ages past the pending timeout.
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Info().Err(cause).Msg("task launch interrupted, left pending")
		return fmt.Errorf("launch task %s interrupted: %w", task.ID, ctx.Err())
	}
	metrics.TasksLaunched.WithLabelValues(string(task.Type), "failed").Inc()
	reason := cause.Error()
	log.Warn().Err(cause).Msg("task launch failed")
	if err := s.fail(persistCtx(ctx), task, []domain.TaskStatus{domain.TaskStatusPending}, reason, "launch"); err != nil {
		if err := s.ignoreStale(task, err); err != nil {
			return fmt.Errorf("record launch failure: %w (cause: %v)", err, cause)
		}
	}
	return fmt.Errorf("launch task %s: %w: %w", task.ID, domain.ErrProviderFailure, cause)
}

func (s *Service) ignoreStale(task *domain.Task, err error) error {
	if errors.Is(err, domain.ErrStaleTransition) {
		log := s.taskLogger(task)
		log.Info().Msg("task left pending during launch, result dropped")
		return nil
	}
	return err
}

// persistCtx keeps the final write alive when the provider call used up the
// caller's deadline.
func persistCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
