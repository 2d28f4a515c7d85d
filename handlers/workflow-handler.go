package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskflow/backend/services"
)

type WorkflowHandler struct {
	TaskService     *services.TaskService
	WorkflowService *services.WorkflowService
}

func NewWorkflowHandler(taskService *services.TaskService, workflowService *services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{TaskService: taskService, WorkflowService: workflowService}
}

type dependencyRequest struct {
	Task      string `json:"task"`
	DependsOn string `json:"dependsOn"`
}

func (h *WorkflowHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	var req dependencyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.TaskService.AddDependency(r.Context(), req.Task, req.DependsOn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

func (h *WorkflowHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	var req dependencyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.TaskService.RemoveDependency(r.Context(), req.Task, req.DependsOn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, task)
}

func (h *WorkflowHandler) GetDependencies(w http.ResponseWriter, r *http.Request) {
	dependencies, err := h.WorkflowService.GetDependencies(r.Context(), mux.Vars(r)["taskId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, dependencies)
}
