package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow/backend/middleware"
	"taskflow/backend/models"
	"taskflow/backend/services"
)

type CommentHandler struct {
	Service  *services.CommentService
	Resolver *services.UserResolver
}

func NewCommentHandler(service *services.CommentService, resolver *services.UserResolver) *CommentHandler {
	return &CommentHandler{Service: service, Resolver: resolver}
}

type createCommentRequest struct {
	Task          string   `json:"task"`
	Content       string   `json:"content"`
	ParentComment string   `json:"parentComment,omitempty"`
	Mentions      []string `json:"mentions,omitempty"`
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(req.Task)
	if err != nil {
		respondError(w, r, (&services.ValidationError{}).Add("task", "invalid task id", req.Task))
		return
	}

	comment := models.Comment{Task: taskID, Content: req.Content}

	if req.ParentComment != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentComment)
		if err != nil {
			respondError(w, r, (&services.ValidationError{}).Add("parentComment", "invalid comment id", req.ParentComment))
			return
		}
		comment.ParentComment = &parentID
	}

	for _, raw := range req.Mentions {
		mentionID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respondError(w, r, (&services.ValidationError{}).Add("mentions", "invalid user id", raw))
			return
		}
		comment.Mentions = append(comment.Mentions, mentionID)
	}

	created, err := h.Service.CreateComment(r.Context(), middleware.ClaimsFrom(r), comment)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, created)
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, pagination, err := h.Service.ListComments(r.Context(), mux.Vars(r)["taskId"], parseListOptions(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Resolver.ExpandComments(r.Context(), comments); err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, listPayload("comments", comments, pagination))
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req updateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.Service.UpdateComment(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteComment(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Comment deleted successfully")
}

type reactionRequest struct {
	Type string `json:"type"`
}

func (h *CommentHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.Service.AddReaction(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r), req.Type)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, comment)
}

func (h *CommentHandler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	comment, err := h.Service.RemoveReaction(r.Context(), mux.Vars(r)["id"], middleware.ClaimsFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, comment)
}
