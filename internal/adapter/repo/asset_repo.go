package repo

import (
	"context"
	"fmt"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/sqlinline"
)

const defaultHistoryLimit = 50

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(sql infra.SQLExecutor) *AssetRepositoryPG {
	return &AssetRepositoryPG{sql: sql}
}

// FindOrCreate returns the row matching the full dedup tuple, inserting it first when absent.
func (r *AssetRepositoryPG) FindOrCreate(ctx context.Context, p domain.CreateAssetParams) (*domain.Asset, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QFindOrCreateAsset,
		p.UserID,
		p.ProjectID,
		p.TaskID,
		string(p.Type),
		string(p.Usage),
		p.RelatedID,
		string(p.Source),
		p.URL,
	)
	asset := &domain.Asset{
		UserID:    p.UserID,
		ProjectID: p.ProjectID,
		TaskID:    p.TaskID,
		Type:      p.Type,
		Usage:     p.Usage,
		RelatedID: p.RelatedID,
		Source:    p.Source,
		URL:       p.URL,
	}
	var created bool
	if err := row.Scan(&asset.ID, &asset.CreatedAt, &created); err != nil {
		return nil, fmt.Errorf("find or create asset: %w", err)
	}
	return asset, nil
}

// History lists a user's assets for one target entity, newest first.
func (r *AssetRepositoryPG) History(ctx context.Context, q domain.AssetHistoryQuery) ([]domain.Asset, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListAssetHistory, q.UserID, string(q.Usage), q.RelatedID, string(q.Type), limit)
	if err != nil {
		return nil, fmt.Errorf("list asset history: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var (
			asset                    domain.Asset
			assetType, usage, source string
		)
		if err := rows.Scan(
			&asset.ID,
			&asset.UserID,
			&asset.ProjectID,
			&asset.TaskID,
			&assetType,
			&usage,
			&asset.RelatedID,
			&source,
			&asset.URL,
			&asset.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		asset.Type = domain.AssetType(assetType)
		asset.Usage = domain.AssetUsage(usage)
		asset.Source = domain.AssetSource(source)
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
