package handlers

import (
	"net/http"
	"strconv"
	"time"

	"aishortx/internal/domain"
	"aishortx/internal/middleware"
)

type assetResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Type      string    `json:"type"`
	Usage     string    `json:"usage,omitempty"`
	RelatedID string    `json:"related_id,omitempty"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AssetHistory lists earlier results for one entity so the user can reuse
// one instead of regenerating.
func (a *App) AssetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := domain.AssetHistoryQuery{
		UserID:    middleware.UserIDFromContext(r.Context()),
		Usage:     domain.AssetUsage(q.Get("usage")),
		RelatedID: q.Get("related_id"),
		Type:      domain.AssetType(q.Get("type")),
	}
	if query.Usage == "" || query.RelatedID == "" {
		a.fail(w, http.StatusBadRequest, "invalid_request", "usage and related_id are required")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 200 {
			a.fail(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 200")
			return
		}
		query.Limit = limit
	}

	list, err := a.Assets.GetHistory(r.Context(), query)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	items := make([]assetResponse, 0, len(list))
	for _, asset := range list {
		items = append(items, assetResponse{
			ID:        asset.ID,
			ProjectID: asset.ProjectID,
			TaskID:    asset.TaskID,
			Type:      string(asset.Type),
			Usage:     string(asset.Usage),
			RelatedID: asset.RelatedID,
			Source:    string(asset.Source),
			URL:       asset.URL,
			CreatedAt: asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
