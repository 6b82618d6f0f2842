package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskly-api/internal/api/shared"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/service"
	"github.com/phrazzld/taskly-api/internal/store"
)

// Confirmation messages of the task routes.
const (
	TaskCreatedMessage = "Task created"
	TaskDeletedMessage = "Task has been deleted"
)

// TaskHandler serves the /tasks routes.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks/by-user/{id}?page=&status=&orderBy=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID := getPathID(r, "id")
	query := r.URL.Query()

	tasks, total, err := h.taskService.ListTasks(r.Context(), ownerID, store.TaskListParams{
		Page:    query.Get("page"),
		Status:  query.Get("status"),
		OrderBy: query.Get("orderBy"),
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks, TaskCount: total})
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), getPathID(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CreateTask handles POST /tasks. The authenticated user becomes the owner.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	body, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	taskID, err := h.taskService.CreateTask(r.Context(), userID, body)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task created",
		slog.String("task_id", taskID),
		slog.String("user_id", userID))
	shared.RespondWithJSON(w, r, http.StatusOK, TaskCreatedResponse{
		TaskID:  taskID,
		Message: TaskCreatedMessage,
	})
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), getPathID(r, "id"), body)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.DeleteTask(r.Context(), getPathID(r, "id")); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskDeletedMessage)
}
