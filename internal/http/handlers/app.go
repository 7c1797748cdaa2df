package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
)

// TaskStore reads and creates task rows.
type TaskStore interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
}

// ProjectOwners resolves who owns a project.
type ProjectOwners interface {
	OwnerOf(ctx context.Context, projectID string) (string, error)
}

// Canceller force-fails a task on behalf of a user.
type Canceller interface {
	Cancel(ctx context.Context, taskID, actorID string) error
}

// Dispatcher starts a launch without waiting for it.
type Dispatcher interface {
	Dispatch(task domain.Task, userID string) error
}

// AssetHistory lists prior results.
type AssetHistory interface {
	GetHistory(ctx context.Context, q domain.AssetHistoryQuery) ([]domain.Asset, error)
}

type App struct {
	Tasks      TaskStore
	Projects   ProjectOwners
	Canceller  Canceller
	Dispatcher Dispatcher
	Assets     AssetHistory
	Logger     infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) fail(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// domainError maps orchestrator errors onto HTTP responses.
func (a *App) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.fail(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.fail(w, http.StatusForbidden, "forbidden", "not allowed to access this resource")
	case errors.Is(err, domain.ErrAlreadyFinished):
		a.fail(w, http.StatusConflict, "already_finished", "task already finished")
	case errors.Is(err, domain.ErrInvalidTask):
		a.fail(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.fail(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
