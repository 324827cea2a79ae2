package tasks

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tasknest/tasknest/internal/platform/httpx"
	"github.com/tasknest/tasknest/internal/shared"
)

// Handler serves the task JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		h.fail(w, r, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	var filter ListFilter
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("completed", "must be true or false"))
			return
		}
		filter.Completed = &completed
	}
	items, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		h.fail(w, r, "list tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	task, err := h.service.Get(r.Context(), userID, taskID)
	if err != nil {
		h.fail(w, r, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.Update(r.Context(), userID, taskID, req.Patch())
	if err != nil {
		h.fail(w, r, "update task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	var req ToggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Completed == nil {
		httpx.RespondError(w, shared.NewValidationError("completed", "is required"))
		return
	}
	task, err := h.service.ToggleCompletion(r.Context(), userID, taskID, *req.Completed)
	if err != nil {
		h.fail(w, r, "toggle task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, taskID); err != nil {
		h.fail(w, r, "delete task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, DeleteResponse{Message: "Task deleted successfully"})
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "task_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("task_id", "must be an integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.Any("error", err), slog.String("request_id", middleware.GetReqID(r.Context())))
	}
	httpx.RespondError(w, err)
}
