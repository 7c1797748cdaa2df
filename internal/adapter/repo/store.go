package repo

import (
	"context"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
)

// Store groups the PostgreSQL repositories and runs them inside transactions.
type Store struct {
	runner infra.TxExecutor
}

func NewStore(runner infra.TxExecutor) *Store {
	return &Store{runner: runner}
}

// Repositories returns repositories bound to the pool, outside any transaction.
func (s *Store) Repositories() domain.Repositories {
	return repositoriesFor(s.runner)
}

// Projects returns the project ownership lookup.
func (s *Store) Projects() *ProjectRepositoryPG {
	return NewProjectRepository(s.runner)
}

// WithinTx runs fn with repositories sharing one transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return s.runner.WithinTx(ctx, func(exec infra.SQLExecutor) error {
		return fn(ctx, repositoriesFor(exec))
	})
}

func repositoriesFor(exec infra.SQLExecutor) domain.Repositories {
	return domain.Repositories{
		Tasks:    NewTaskRepository(exec),
		Assets:   NewAssetRepository(exec),
		Entities: NewEntityRepository(exec),
	}
}

var _ domain.Transactor = (*Store)(nil)
