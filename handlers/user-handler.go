package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"taskflow/backend/middleware"
	"taskflow/backend/services"
)

type UserHandler struct {
	UserService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// parseListOptions reads the shared pagination/sort query parameters.
func parseListOptions(r *http.Request) services.ListOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return services.ListOptions{
		Page:      page,
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.UserFilter{
		Search: q.Get("search"),
		Role:   q.Get("role"),
	}
	if raw := q.Get("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	users, pagination, err := h.UserService.ListUsers(r.Context(), filter, parseListOptions(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, listPayload("users", users, pagination))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetUserByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var changes map[string]interface{}
	if !decodeBody(w, r, &changes) {
		return
	}

	user, err := h.UserService.UpdateUser(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), changes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// DeactivateUser handles DELETE: accounts are deactivated, never removed.
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	err := h.UserService.DeactivateUser(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "User deactivated successfully")
}
