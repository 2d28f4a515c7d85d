package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow/backend/middleware"
	"taskflow/backend/models"
	"taskflow/backend/services"
)

type ProjectHandler struct {
	Service  *services.ProjectService
	Resolver *services.UserResolver
}

func NewProjectHandler(service *services.ProjectService, resolver *services.UserResolver) *ProjectHandler {
	return &ProjectHandler{Service: service, Resolver: resolver}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var project models.Project
	if !decodeBody(w, r, &project) {
		return
	}

	ownerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, r, services.ErrUnauthorized)
		return
	}

	created, err := h.Service.CreateProject(r.Context(), ownerID, project)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, created)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ProjectFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}

	projects, pagination, err := h.Service.ListProjects(r.Context(), middleware.ClaimsFrom(r), filter, parseListOptions(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, listPayload("projects", projects, pagination))
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Service.GetProject(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Resolver.ExpandProject(r.Context(), project); err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var changes models.Project
	if !decodeBody(w, r, &changes) {
		return
	}

	project, err := h.Service.UpdateProject(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), changes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProject(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Project and its tasks deleted successfully")
}

type addMemberRequest struct {
	User string            `json:"user"`
	Role models.MemberRole `json:"role"`
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	project, err := h.Service.AddMember(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), req.User, req.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, project)
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, err := h.Service.RemoveMember(r.Context(), vars["id"], middleware.ClaimsFrom(r), vars["userId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, project)
}

type archiveRequest struct {
	IsArchived bool `json:"isArchived"`
}

func (h *ProjectHandler) SetArchived(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	project, err := h.Service.SetArchived(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), req.IsArchived)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, project)
}
