package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aishortx/internal/domain"
	"aishortx/internal/entitysync"
	"aishortx/internal/middleware"
)

type createTaskRequest struct {
	Type        string          `json:"type"`
	Model       string          `json:"model"`
	ProviderID  string          `json:"provider_id"`
	Category    string          `json:"category"`
	RelatedID   string          `json:"related_id"`
	InputParams json.RawMessage `json:"input_params"`
}

type taskResponse struct {
	ID             string          `json:"id"`
	ProjectID      string          `json:"project_id"`
	Type           string          `json:"type"`
	Model          string          `json:"model,omitempty"`
	ProviderID     string          `json:"provider_id,omitempty"`
	Category       string          `json:"category"`
	RelatedID      string          `json:"related_id"`
	Status         string          `json:"status"`
	Progress       int             `json:"progress"`
	Error          *string         `json:"error"`
	ExternalTaskID string          `json:"external_task_id,omitempty"`
	InputParams    json.RawMessage `json:"input_params,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	resp := taskResponse{
		ID:             t.ID,
		ProjectID:      t.ProjectID,
		Type:           string(t.Type),
		Model:          t.Model,
		ProviderID:     t.ProviderID,
		Category:       string(t.Category),
		RelatedID:      t.RelatedID,
		Status:         string(t.Status),
		Progress:       t.Progress,
		ExternalTaskID: t.ExternalTaskID,
		InputParams:    t.InputParams,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.Error != "" {
		msg := t.Error
		resp.Error = &msg
	}
	return resp
}

// CreateTask inserts a pending task and hands it to the dispatcher. The
// response is sent before the provider is contacted.
func (a *App) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "project_id")
	if _, err := uuid.Parse(projectID); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid_request", "project_id must be a uuid")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid_request", "invalid json body")
		return
	}
	task, err := req.toTask(projectID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}

	owner, err := a.Projects.OwnerOf(r.Context(), projectID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	if owner != userID {
		a.domainError(w, r, domain.ErrUnauthorized)
		return
	}
	task.OwnerID = owner

	if err := a.Tasks.Create(r.Context(), task); err != nil {
		a.domainError(w, r, err)
		return
	}
	if err := a.Dispatcher.Dispatch(*task, userID); err != nil {
		// The row stays pending and is reaped by the sweep.
		a.Logger.Error().Err(err).Str("task_id", task.ID).Msg("dispatch launch")
		a.fail(w, http.StatusServiceUnavailable, "unavailable", "task created but launch could not be scheduled")
		return
	}
	a.json(w, http.StatusAccepted, toTaskResponse(task))
}

func (req createTaskRequest) toTask(projectID string) (*domain.Task, error) {
	category := domain.Category(strings.TrimSpace(req.Category))
	if !entitysync.Supports(category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, domain.ErrInvalidTask)
	}
	taskType := domain.TaskType(strings.ToLower(strings.TrimSpace(req.Type)))
	if taskType == "" {
		taskType = category.TaskType()
	}
	if !taskType.Valid() || taskType != category.TaskType() {
		return nil, fmt.Errorf("type %q does not match category %s: %w", req.Type, category, domain.ErrInvalidTask)
	}
	if _, err := uuid.Parse(req.RelatedID); err != nil {
		return nil, fmt.Errorf("related_id must be a uuid: %w", domain.ErrInvalidTask)
	}
	params := req.InputParams
	if len(params) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(params, &obj); err != nil {
			return nil, fmt.Errorf("input_params must be a json object: %w", domain.ErrInvalidTask)
		}
	}
	return &domain.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Type:        taskType,
		Model:       strings.TrimSpace(req.Model),
		ProviderID:  strings.ToLower(strings.TrimSpace(req.ProviderID)),
		Category:    category,
		RelatedID:   req.RelatedID,
		Status:      domain.TaskStatusPending,
		InputParams: params,
	}, nil
}

// GetTask returns a task to its project owner.
func (a *App) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := a.ownedTask(r)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toTaskResponse(task))
}

// CancelTask fails a running task locally and returns its new state.
func (a *App) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	if _, err := uuid.Parse(taskID); err != nil {
		a.domainError(w, r, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound))
		return
	}
	if err := a.Canceller.Cancel(r.Context(), taskID, middleware.UserIDFromContext(r.Context())); err != nil {
		a.domainError(w, r, err)
		return
	}
	task, err := a.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toTaskResponse(task))
}

func (a *App) ownedTask(r *http.Request) (*domain.Task, error) {
	taskID := chi.URLParam(r, "task_id")
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}
	task, err := a.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != middleware.UserIDFromContext(r.Context()) {
		return nil, domain.ErrUnauthorized
	}
	return task, nil
}
