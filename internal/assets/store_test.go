package assets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aishortx/internal/domain"
)

// memoryAssets keys rows by the dedup tuple.
type memoryAssets struct {
	rows    map[domain.CreateAssetParams]domain.Asset
	order   []domain.CreateAssetParams
	history domain.AssetHistoryQuery
}

func newMemoryAssets() *memoryAssets {
	return &memoryAssets{rows: map[domain.CreateAssetParams]domain.Asset{}}
}

func (m *memoryAssets) FindOrCreate(ctx context.Context, p domain.CreateAssetParams) (*domain.Asset, error) {
	if a, ok := m.rows[p]; ok {
		return &a, nil
	}
	a := domain.Asset{
		ID: fmt.Sprintf("a-%d", len(m.rows)+1), UserID: p.UserID, ProjectID: p.ProjectID, TaskID: p.TaskID,
		Type: p.Type, Usage: p.Usage, RelatedID: p.RelatedID, Source: p.Source, URL: p.URL, CreatedAt: time.Now(),
	}
	m.rows[p] = a
	m.order = append(m.order, p)
	return &a, nil
}

func (m *memoryAssets) History(ctx context.Context, q domain.AssetHistoryQuery) ([]domain.Asset, error) {
	m.history = q
	var out []domain.Asset
	for i := len(m.order) - 1; i >= 0; i-- {
		a := m.rows[m.order[i]]
		if a.UserID == q.UserID && a.Usage == q.Usage && a.RelatedID == q.RelatedID && (q.Type == "" || a.Type == q.Type) {
			out = append(out, a)
		}
	}
	return out, nil
}

func params(url string) domain.CreateAssetParams {
	return domain.CreateAssetParams{
		UserID: "u1", ProjectID: "p1", TaskID: "t1",
		Type: domain.AssetTypeImage, Usage: domain.AssetUsageCharacter, RelatedID: "c1",
		Source: domain.AssetSourceGenerated, URL: url,
	}
}

func TestCreateAssetDedupes(t *testing.T) {
	repo := newMemoryAssets()
	store := NewStore(repo)

	first, err := store.CreateAsset(context.Background(), params("https://x/a.png"))
	require.NoError(t, err)
	second, err := store.CreateAsset(context.Background(), params(" https://x/a.png "))
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.rows, 1)
}

func TestCreateAssetsPerItem(t *testing.T) {
	repo := newMemoryAssets()
	store := NewStore(repo)

	out, err := store.CreateAssets(context.Background(), []domain.CreateAssetParams{
		params("https://x/1.png"), params("https://x/2.png"), params("https://x/1.png"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, out[0].ID, out[2].ID)
	require.Len(t, repo.rows, 2)
}

func TestCreateAssetValidates(t *testing.T) {
	store := NewStore(newMemoryAssets())

	p := params("")
	_, err := store.CreateAsset(context.Background(), p)
	require.True(t, errors.Is(err, domain.ErrInvalidTask))

	p = params("https://x/a.png")
	p.Type = "gif"
	_, err = store.CreateAsset(context.Background(), p)
	require.ErrorIs(t, err, domain.ErrInvalidTask)

	p = params("https://x/a.png")
	p.UserID = ""
	_, err = store.CreateAsset(context.Background(), p)
	require.ErrorIs(t, err, domain.ErrInvalidTask)
}

func TestGetHistoryNewestFirst(t *testing.T) {
	repo := newMemoryAssets()
	store := NewStore(repo)
	_, err := store.CreateAssets(context.Background(), []domain.CreateAssetParams{params("https://x/old.png"), params("https://x/new.png")})
	require.NoError(t, err)

	got, err := store.GetHistory(context.Background(), domain.AssetHistoryQuery{UserID: "u1", Usage: domain.AssetUsageCharacter, RelatedID: "c1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "https://x/new.png", got[0].URL)

	_, err = store.GetHistory(context.Background(), domain.AssetHistoryQuery{UserID: "u1", Type: "gif"})
	require.ErrorIs(t, err, domain.ErrInvalidTask)
}
