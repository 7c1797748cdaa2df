package generation

import (
	"context"
	"errors"
	"fmt"

	"aishortx/internal/domain"
)

// Cancel fails a pending or processing task locally. The provider is not
// told. An empty actorID is an operator and skips the ownership check.
func (s *Service) Cancel(ctx context.Context, taskID, actorID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if actorID != "" && task.OwnerID != actorID {
		return fmt.Errorf("cancel task %s: %w", taskID, domain.ErrUnauthorized)
	}
	if task.Status.Terminal() {
		return fmt.Errorf("cancel task %s: %w", taskID, domain.ErrAlreadyFinished)
	}
	err = s.fail(ctx, task, []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusProcessing}, ReasonCancelled, "cancelled")
	if errors.Is(err, domain.ErrStaleTransition) {
		return fmt.Errorf("cancel task %s: %w", taskID, domain.ErrAlreadyFinished)
	}
	if err != nil {
		return err
	}
	log := s.taskLogger(task)
	log.Info().Str("actor", actorID).Msg("task cancelled")
	return nil
}
