package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow/backend/middleware"
	"taskflow/backend/models"
	"taskflow/backend/services"
)

type TaskHandler struct {
	Service  *services.TaskService
	Resolver *services.UserResolver
}

func NewTaskHandler(service *services.TaskService, resolver *services.UserResolver) *TaskHandler {
	return &TaskHandler{Service: service, Resolver: resolver}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if !decodeBody(w, r, &task) {
		return
	}

	created, err := h.Service.CreateTask(r.Context(), middleware.ClaimsFrom(r), task)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, created)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.TaskFilter{
		Project:  q.Get("project"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Assignee: q.Get("assignee"),
		Search:   q.Get("search"),
		DueDate:  q.Get("dueDate"),
		Overdue:  q.Get("overdue") == "true",
	}

	tasks, pagination, err := h.Service.ListTasks(r.Context(), middleware.ClaimsFrom(r), filter, parseListOptions(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, listPayload("tasks", tasks, pagination))
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Service.GetTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Resolver.ExpandTask(r.Context(), task); err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, task)
}

// GetTasksByProject returns the kanban board for a project: four fixed
// status buckets.
func (h *TaskHandler) GetTasksByProject(w http.ResponseWriter, r *http.Request) {
	board, err := h.Service.TasksByProject(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, board)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var changes models.Task
	if !decodeBody(w, r, &changes) {
		return
	}

	task, err := h.Service.UpdateTask(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), changes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

type statusRequest struct {
	Status models.TaskStatus `json:"status"`
	Order  *int              `json:"order,omitempty"`
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.Service.UpdateTaskStatus(r.Context(), mux.Vars(r)["id"], req.Status, req.Order)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTask(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Task deleted successfully")
}

type subtaskRequest struct {
	Title string `json:"title"`
}

func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	var req subtaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.Service.AddSubtask(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), req.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, task)
}

func (h *TaskHandler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	task, err := h.Service.ToggleSubtask(r.Context(), vars["id"], vars["subtaskId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	task, err := h.Service.DeleteSubtask(r.Context(), vars["id"], vars["subtaskId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

func (h *TaskHandler) AddWatcher(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, r, services.ErrUnauthorized)
		return
	}

	task, err := h.Service.AddWatcher(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

func (h *TaskHandler) RemoveWatcher(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, r, services.ErrUnauthorized)
		return
	}

	task, err := h.Service.RemoveWatcher(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}
