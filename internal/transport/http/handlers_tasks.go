package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"circles/internal/platform/middleware"
	"circles/internal/task/models"
	"circles/internal/task/service"
	dErrors "circles/pkg/domain-errors"
)

// TaskService is the task surface the handlers need.
type TaskService interface {
	Create(ctx context.Context, creatorID int64, creatorName string, in service.CreateInput) (models.Task, error)
	Get(ctx context.Context, userID, taskID int64) (models.Task, []models.ChecklistItem, error)
	List(ctx context.Context, userID, circleID int64) ([]models.Task, error)
	Update(ctx context.Context, actorID, taskID int64, in service.UpdateInput) (models.Task, error)
	Delete(ctx context.Context, actorID, taskID int64) error
	ToggleCheck(ctx context.Context, actorID, taskID, itemID int64) (bool, error)
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) Register(r chi.Router) {
	r.Post("/api/tasks", h.handleCreate)
	r.Get("/api/tasks", h.handleList)
	r.Get("/api/tasks/{taskID}", h.handleGet)
	r.Patch("/api/tasks/{taskID}", h.handleUpdate)
	r.Delete("/api/tasks/{taskID}", h.handleDelete)
	r.Post("/api/tasks/{taskID}/toggle_check", h.handleToggleCheck)
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	username := middleware.GetUsername(r.Context())
	var req struct {
		CircleID       int64       `json:"circle_id"`
		Title          string      `json:"title"`
		Description    string      `json:"description"`
		AssigneeID     *int64      `json:"assignee_id"`
		Kind           models.Kind `json:"task_type"`
		ChecklistItems []string    `json:"checklist_items"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	task, err := h.tasks.Create(r.Context(), userID, username, service.CreateInput{
		CircleID:       req.CircleID,
		Title:          req.Title,
		Description:    req.Description,
		AssigneeID:     req.AssigneeID,
		Kind:           req.Kind,
		ChecklistItems: req.ChecklistItems,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskResponse(task, nil))
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circleID, err := queryID(r, "circle_id")
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := h.tasks.List(r.Context(), userID, circleID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskResponse(task, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TaskHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, err)
		return
	}
	task, items, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse(task, items))
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Title       *string        `json:"title"`
		Description *string        `json:"description"`
		Status      *models.Status `json:"status"`
		AssigneeID  *int64         `json:"assignee_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	task, err := h.tasks.Update(r.Context(), userID, taskID, service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse(task, nil))
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) handleToggleCheck(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		ItemID int64 `json:"item_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	checked, err := h.tasks.ToggleCheck(r.Context(), userID, taskID, req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "toggled",
		"is_checked": checked,
	})
}

func taskResponse(task models.Task, items []models.ChecklistItem) map[string]any {
	resp := map[string]any{
		"id":          task.ID,
		"circle_id":   task.CircleID,
		"title":       task.Title,
		"description": task.Description,
		"assignee_id": task.AssigneeID,
		"created_by":  task.CreatedBy,
		"status":      task.Status,
		"task_type":   task.Kind,
		"created_at":  task.CreatedAt,
	}
	if items != nil {
		checklist := make([]map[string]any, 0, len(items))
		for _, item := range items {
			checklist = append(checklist, map[string]any{
				"id":         item.ID,
				"content":    item.Content,
				"is_checked": item.IsChecked,
			})
		}
		resp["checklist_items"] = checklist
	}
	return resp
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "%s query parameter required", name)
	}
	id, err := parsePositiveInt(raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s", name)
	}
	return id, nil
}
