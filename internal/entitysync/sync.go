package entitysync

import (
	"context"
	"fmt"
	"strings"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
)

// Synchronizer mirrors a task outcome onto the entity its category points at.
// Callers run it inside the transaction that updates the task row.
type Synchronizer struct {
	logger infra.Logger
}

func New(logger infra.Logger) *Synchronizer {
	return &Synchronizer{logger: logger.With().Str("component", "entitysync").Logger()}
}

// Supports reports whether category has a mapping.
func Supports(category domain.Category) bool {
	_, ok := rules[category]
	return ok
}

// Sync writes the outcome columns for task's related entity. Unknown
// categories and completions without a URL are skipped with a warning;
// only repository errors are returned.
func (s *Synchronizer) Sync(ctx context.Context, entities domain.EntityRepository, task *domain.Task, outcome Outcome, url, reason string) error {
	log := s.logger.With().
		Str("task_id", task.ID).
		Str("category", string(task.Category)).
		Str("outcome", string(outcome)).
		Logger()

	r, ok := rules[task.Category]
	if !ok {
		log.Warn().Msg("no entity mapping for category, skipping sync")
		return nil
	}
	if outcome == OutcomeCompleted && strings.TrimSpace(url) == "" {
		log.Warn().Msg("completed without result url, skipping sync")
		return nil
	}
	fields := r.fieldsFor(outcome)
	if len(fields) == 0 {
		log.Warn().Msg("unknown outcome, skipping sync")
		return nil
	}
	if task.RelatedID == "" {
		log.Warn().Msg("task has no related entity, skipping sync")
		return nil
	}

	ref := domain.EntityRef{Kind: r.kind, ProjectID: task.ProjectID, ID: task.RelatedID}
	n, err := entities.UpdateEntity(ctx, ref, resolve(fields, url, reason))
	if err != nil {
		return fmt.Errorf("sync %s %s: %w", r.kind, task.RelatedID, err)
	}
	if n == 0 {
		log.Warn().Str("related_id", task.RelatedID).Str("project_id", task.ProjectID).Msg("related entity not found in project")
	}
	return nil
}
