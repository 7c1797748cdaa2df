package generation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"aishortx/internal/domain"
)

// memStore is an in-memory domain.Transactor. WithinTx serializes units of
// work and restores a snapshot when fn fails.
type memStore struct {
	mu        sync.Mutex
	tasks     map[string]domain.Task
	assets    []domain.Asset
	entities  map[string]map[string]*string
	owners    map[string]string // entity key -> project id
	entityErr error
	clock     func() time.Time
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		tasks:    map[string]domain.Task{},
		entities: map[string]map[string]*string{},
		owners:   map[string]string{},
		clock:    clock,
	}
}

func entityKey(kind domain.EntityKind, id string) string { return string(kind) + "/" + id }

func (m *memStore) addEntity(kind domain.EntityKind, projectID, id string) {
	m.entities[entityKey(kind, id)] = map[string]*string{}
	m.owners[entityKey(kind, id)] = projectID
}

func (m *memStore) put(t domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
}

func (m *memStore) task(id string) domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

func (m *memStore) field(kind domain.EntityKind, id, column string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.entities[entityKey(kind, id)][column]
	if v == nil {
		return nil
	}
	return *v
}

func (m *memStore) assetsFor(taskID string) []domain.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Asset
	for _, a := range m.assets {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	// pgx refuses to begin on a done context.
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := maps.Clone(m.tasks)
	assets := append([]domain.Asset(nil), m.assets...)
	entities := make(map[string]map[string]*string, len(m.entities))
	for k, v := range m.entities {
		entities[k] = maps.Clone(v)
	}

	repos := domain.Repositories{
		Tasks:    memTasks{m: m},
		Assets:   memAssets{m: m},
		Entities: memEntities{m: m},
	}
	if err := fn(ctx, repos); err != nil {
		m.tasks, m.assets, m.entities = tasks, assets, entities
		return err
	}
	return nil
}

// lockedTasks is the repository used outside transactions.
type lockedTasks struct{ m *memStore }

func (l lockedTasks) Create(ctx context.Context, t *domain.Task) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return memTasks(l).Create(ctx, t)
}

func (l lockedTasks) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return memTasks(l).GetByID(ctx, id)
}

func (l lockedTasks) ListByStatus(ctx context.Context, s domain.TaskStatus) ([]domain.Task, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return memTasks(l).ListByStatus(ctx, s)
}

func (l lockedTasks) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return memTasks(l).ListPendingBefore(ctx, cutoff)
}

func (l lockedTasks) Transition(ctx context.Context, id string, from []domain.TaskStatus, u domain.TaskUpdate) error {
	return errors.New("transitions must run inside a transaction")
}

type memTasks struct{ m *memStore }

func (r memTasks) Create(ctx context.Context, t *domain.Task) error {
	t.Status = domain.TaskStatusPending
	r.m.tasks[t.ID] = *t
	return nil
}

func (r memTasks) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	t, ok := r.m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (r memTasks) ListByStatus(ctx context.Context, s domain.TaskStatus) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range r.m.tasks {
		if t.Status == s {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTasks) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range r.m.tasks {
		if t.Status == domain.TaskStatusPending && t.UpdatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTasks) Transition(ctx context.Context, id string, from []domain.TaskStatus, u domain.TaskUpdate) error {
	t, ok := r.m.tasks[id]
	if !ok {
		return domain.ErrStaleTransition
	}
	matched := false
	for _, s := range from {
		if !s.CanTransition(u.Status) {
			return domain.ErrInvalidTask
		}
		if t.Status == s {
			matched = true
		}
	}
	if !matched {
		return domain.ErrStaleTransition
	}
	t.Status = u.Status
	if u.ExternalTaskID != nil {
		t.ExternalTaskID = *u.ExternalTaskID
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.Error != nil {
		t.Error = *u.Error
	}
	t.UpdatedAt = r.m.clock()
	r.m.tasks[id] = t
	return nil
}

type memAssets struct{ m *memStore }

func (r memAssets) FindOrCreate(ctx context.Context, p domain.CreateAssetParams) (*domain.Asset, error) {
	for _, a := range r.m.assets {
		if a.UserID == p.UserID && a.ProjectID == p.ProjectID && a.TaskID == p.TaskID && a.Type == p.Type &&
			a.Usage == p.Usage && a.RelatedID == p.RelatedID && a.Source == p.Source && a.URL == p.URL {
			return &a, nil
		}
	}
	a := domain.Asset{
		ID: fmt.Sprintf("asset-%d", len(r.m.assets)+1), UserID: p.UserID, ProjectID: p.ProjectID, TaskID: p.TaskID,
		Type: p.Type, Usage: p.Usage, RelatedID: p.RelatedID, Source: p.Source, URL: p.URL, CreatedAt: r.m.clock(),
	}
	r.m.assets = append(r.m.assets, a)
	return &a, nil
}

func (r memAssets) History(ctx context.Context, q domain.AssetHistoryQuery) ([]domain.Asset, error) {
	return nil, errors.New("not used")
}

type memEntities struct{ m *memStore }

func (r memEntities) UpdateEntity(ctx context.Context, ref domain.EntityRef, fields []domain.FieldValue) (int64, error) {
	if r.m.entityErr != nil {
		return 0, r.m.entityErr
	}
	key := entityKey(ref.Kind, ref.ID)
	row, ok := r.m.entities[key]
	if !ok || r.m.owners[key] != ref.ProjectID {
		return 0, nil
	}
	for _, f := range fields {
		row[f.Column] = f.Value
	}
	return 1, nil
}
