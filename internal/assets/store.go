package assets

import (
	"context"
	"fmt"
	"strings"

	"aishortx/internal/domain"
)

// Store records generated and uploaded media. Writes are find-or-create on
// the full dedup tuple, so replaying a finalization never duplicates a row.
type Store struct {
	repo domain.AssetRepository
}

func NewStore(repo domain.AssetRepository) *Store {
	return &Store{repo: repo}
}

// CreateAsset returns the existing asset for p's tuple or inserts a new one.
func (s *Store) CreateAsset(ctx context.Context, p domain.CreateAssetParams) (*domain.Asset, error) {
	p.URL = strings.TrimSpace(p.URL)
	if err := validate(p); err != nil {
		return nil, err
	}
	return s.repo.FindOrCreate(ctx, p)
}

// CreateAssets applies CreateAsset to each item in order. Items are not
// batched so that dedup holds per row.
func (s *Store) CreateAssets(ctx context.Context, items []domain.CreateAssetParams) ([]domain.Asset, error) {
	out := make([]domain.Asset, 0, len(items))
	for i, p := range items {
		asset, err := s.CreateAsset(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", i, err)
		}
		out = append(out, *asset)
	}
	return out, nil
}

// GetHistory lists a user's prior results for one entity, newest first.
func (s *Store) GetHistory(ctx context.Context, q domain.AssetHistoryQuery) ([]domain.Asset, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return nil, fmt.Errorf("history: user id is required: %w", domain.ErrInvalidTask)
	}
	if q.Type != "" && !validType(q.Type) {
		return nil, fmt.Errorf("history: unknown asset type %q: %w", q.Type, domain.ErrInvalidTask)
	}
	return s.repo.History(ctx, q)
}

func validate(p domain.CreateAssetParams) error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return fmt.Errorf("asset: user id is required: %w", domain.ErrInvalidTask)
	case p.URL == "":
		return fmt.Errorf("asset: url is required: %w", domain.ErrInvalidTask)
	case !validType(p.Type):
		return fmt.Errorf("asset: unknown type %q: %w", p.Type, domain.ErrInvalidTask)
	case p.Source != domain.AssetSourceUpload && p.Source != domain.AssetSourceGenerated:
		return fmt.Errorf("asset: unknown source %q: %w", p.Source, domain.ErrInvalidTask)
	}
	return nil
}

func validType(t domain.AssetType) bool {
	switch t {
	case domain.AssetTypeImage, domain.AssetTypeVideo, domain.AssetTypeAudio:
		return true
	}
	return false
}
