package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"aishortx/internal/domain"
	"aishortx/internal/infra/metrics"
	"aishortx/internal/providers"
)

// Sweep runs one reconciliation pass: reap tasks stuck in pending, then poll
// processing tasks in batches. Per-task problems are logged and never stop
// the pass; only listing failures are returned.
func (s *Service) Sweep(ctx context.Context) error {
	started := s.now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	errReap := s.reapPending(ctx)
	errPoll := s.pollProcessing(ctx)
	return errors.Join(errReap, errPoll)
}

func (s *Service) reapPending(ctx context.Context) error {
	cutoff := s.now().Add(-s.opts.PendingTimeout)
	stuck, err := s.tasks.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stuck pending tasks: %w", err)
	}
	for i := range stuck {
		task := &stuck[i]
		log := s.taskLogger(task)
		if err := s.fail(persistCtx(ctx), task, []domain.TaskStatus{domain.TaskStatusPending}, ReasonPendingTimeout, "pending_timeout"); err != nil {
			if errors.Is(err, domain.ErrStaleTransition) {
				continue
			}
			log.Error().Err(err).Msg("reap pending task")
			continue
		}
		log.Warn().Time("updated_at", task.UpdatedAt).Msg("pending task never launched, marked failed")
	}
	return nil
}

func (s *Service) pollProcessing(ctx context.Context) error {
	inflight, err := s.tasks.ListByStatus(ctx, domain.TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("list processing tasks: %w", err)
	}
	metrics.ProcessingTasks.Set(float64(len(inflight)))

	for start := 0; start < len(inflight); start += s.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+s.opts.BatchSize, len(inflight))
		var g errgroup.Group
		for i := start; i < end; i++ {
			task := &inflight[i]
			g.Go(func() error {
				s.pollTask(ctx, task)
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}

func (s *Service) pollTask(ctx context.Context, task *domain.Task) {
	log := s.taskLogger(task)
	processing := []domain.TaskStatus{domain.TaskStatusProcessing}
	// Final writes outlive a sweep cancelled mid-task.
	wctx := persistCtx(ctx)

	if s.now().Sub(task.UpdatedAt) > s.opts.ProcessingTimeout {
		s.finalize(wctx, task, s.fail(wctx, task, processing, ReasonProcessingTimeout, "processing_timeout"))
		return
	}

	res, err := s.resolver.Resolve(ctx, task.OwnerID, task.Type, task.Model, task.ProviderID)
	if err != nil {
		log.Warn().Err(err).Msg("resolve provider for poll, will retry")
		return
	}
	querier, ok := res.Querier()
	if !ok {
		s.finalize(wctx, task, s.fail(wctx, task, processing, ReasonCannotQuery, "no_querier"))
		return
	}

	result, err := querier.QueryTask(ctx, task.ExternalTaskID, res.APIKey)
	if err != nil {
		metrics.PollErrors.WithLabelValues(res.ProviderID).Inc()
		log.Warn().Err(err).Msg("poll task, will retry")
		return
	}
	if result == nil {
		result = &providers.TaskResult{}
	}

	switch providers.NormalizeStatus(result.Status) {
	case providers.StatusSuccess:
		url := result.ResultURL()
		if url == "" {
			s.finalize(wctx, task, s.fail(wctx, task, processing, ReasonMissingResult, "missing_result"))
			return
		}
		s.finalize(wctx, task, s.complete(wctx, task, domain.TaskStatusProcessing, []string{url}, nil))
	case providers.StatusFailed:
		reason := strings.TrimSpace(result.FailReason)
		if reason == "" {
			reason = ReasonUnknown
		}
		s.finalize(wctx, task, s.fail(wctx, task, processing, reason, "provider"))
	default:
		log.Debug().Str("raw_status", result.Status).Msg("task still running")
	}
}

func (s *Service) finalize(ctx context.Context, task *domain.Task, err error) {
	log := s.taskLogger(task)
	switch {
	case err == nil:
		log.Info().Msg("task finalized")
	case errors.Is(err, domain.ErrStaleTransition):
		log.Info().Msg("task already finalized elsewhere")
	default:
		log.Error().Err(err).Msg("finalize task, will retry")
	}
}
