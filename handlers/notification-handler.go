package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"taskflow/backend/middleware"
	"taskflow/backend/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// ListNotifications returns the requester's own feed, newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	notifications, err := h.Service.List(claims.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, notifications)
}

type notificationTargetRequest struct {
	CreatedAt time.Time `json:"createdAt"`
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req notificationTargetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	claims := middleware.ClaimsFrom(r)
	if err := h.Service.MarkRead(claims.UserID, mux.Vars(r)["id"], req.CreatedAt); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Notification marked as read")
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationTargetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	claims := middleware.ClaimsFrom(r)
	if err := h.Service.Delete(claims.UserID, mux.Vars(r)["id"], req.CreatedAt); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Notification deleted")
}
