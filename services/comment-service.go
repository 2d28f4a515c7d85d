package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/backend/models"
	"taskflow/backend/utils"
)

type CommentService struct {
	CommentsCollection *mongo.Collection
	TasksCollection    *mongo.Collection
}

func NewCommentService(commentsCollection, tasksCollection *mongo.Collection) *CommentService {
	return &CommentService{
		CommentsCollection: commentsCollection,
		TasksCollection:    tasksCollection,
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return (&ValidationError{}).Add("content", "comment content is required", nil)
	}
	if len(content) > models.MaxCommentLength {
		return (&ValidationError{}).Add("content", fmt.Sprintf("content must be at most %d characters", models.MaxCommentLength), len(content))
	}
	return nil
}

// CreateComment stores a comment on a task, optionally as a reply. Parent
// depth is not restricted; replies can themselves be replied to even
// though the client renders a single level.
func (s *CommentService) CreateComment(ctx context.Context, author *utils.Claims, comment models.Comment) (*models.Comment, error) {
	if err := validateContent(comment.Content); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.TasksCollection.FindOne(ctx, bson.M{"_id": comment.Task}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: task not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}

	if comment.ParentComment != nil {
		var parent models.Comment
		err := s.CommentsCollection.FindOne(ctx, bson.M{"_id": *comment.ParentComment}).Decode(&parent)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: parent comment not found", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to fetch parent comment: %v", err)
		}
		if parent.Task != comment.Task {
			return nil, fmt.Errorf("%w: parent comment belongs to a different task", ErrInvalidOperation)
		}
	}

	authorID, err := primitive.ObjectIDFromHex(author.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}

	now := time.Now()
	comment.ID = primitive.NewObjectID()
	comment.Author = models.NewUserRef(authorID)
	if comment.Mentions == nil {
		comment.Mentions = []primitive.ObjectID{}
	}
	comment.Reactions = []models.Reaction{}
	comment.IsEdited = false
	comment.EditedAt = nil
	comment.IsDeleted = false
	comment.CreatedAt = now
	comment.UpdatedAt = now

	if _, err := s.CommentsCollection.InsertOne(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %v", err)
	}

	return &comment, nil
}

// ListComments returns a task's top-level comments in the caller's
// requested order (default newest first), each with its replies attached
// oldest first. Soft-deleted replies stay in the thread, tombstoned.
func (s *CommentService) ListComments(ctx context.Context, taskID string, opts ListOptions) ([]models.Comment, models.Pagination, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%w: invalid task id", ErrNotFound)
	}

	opts = opts.Normalize("createdAt", "desc")
	query := bson.M{"task": id, "parentComment": nil, "isDeleted": false}

	total, err := s.CommentsCollection.CountDocuments(ctx, query)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count comments: %v", err)
	}

	cursor, err := s.CommentsCollection.Find(ctx, query, findPage(opts))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to fetch comments: %v", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode comments: %v", err)
	}

	if len(comments) > 0 {
		parentIDs := make([]primitive.ObjectID, 0, len(comments))
		for _, c := range comments {
			parentIDs = append(parentIDs, c.ID)
		}

		replyCursor, err := s.CommentsCollection.Find(ctx,
			bson.M{"parentComment": bson.M{"$in": parentIDs}},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
		)
		if err != nil {
			return nil, models.Pagination{}, fmt.Errorf("failed to fetch replies: %v", err)
		}
		defer replyCursor.Close(ctx)

		var replies []models.Comment
		if err := replyCursor.All(ctx, &replies); err != nil {
			return nil, models.Pagination{}, fmt.Errorf("failed to decode replies: %v", err)
		}

		byParent := make(map[primitive.ObjectID][]models.Comment)
		for _, r := range replies {
			byParent[*r.ParentComment] = append(byParent[*r.ParentComment], r)
		}
		for i := range comments {
			comments[i].Replies = byParent[comments[i].ID]
		}
	}

	return comments, models.NewPagination(opts.Page, opts.Limit, total), nil
}

// UpdateComment edits content. Only the author may edit.
func (s *CommentService) UpdateComment(ctx context.Context, id string, requester *utils.Claims, content string) (*models.Comment, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	comment, err := s.loadComment(ctx, id)
	if err != nil {
		return nil, err
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}
	if !comment.Author.Is(requesterID) {
		return nil, fmt.Errorf("%w: only the author can edit a comment", ErrForbidden)
	}
	if comment.IsDeleted {
		return nil, fmt.Errorf("%w: cannot edit a deleted comment", ErrInvalidOperation)
	}

	now := time.Now()
	_, err = s.CommentsCollection.UpdateOne(ctx,
		bson.M{"_id": comment.ID},
		bson.M{"$set": bson.M{
			"content":   content,
			"isEdited":  true,
			"editedAt":  now,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %v", err)
	}

	return s.loadComment(ctx, id)
}

// DeleteComment soft-deletes: content is replaced with the tombstone and
// the record retained for thread integrity. Author or global admin only.
func (s *CommentService) DeleteComment(ctx context.Context, id string, requester *utils.Claims) error {
	comment, err := s.loadComment(ctx, id)
	if err != nil {
		return err
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}
	if !comment.Author.Is(requesterID) && requester.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only the author or an admin can delete a comment", ErrForbidden)
	}

	comment.SoftDelete()
	_, err = s.CommentsCollection.UpdateOne(ctx,
		bson.M{"_id": comment.ID},
		bson.M{"$set": bson.M{
			"content":   comment.Content,
			"isDeleted": true,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %v", err)
	}
	return nil
}

// AddReaction upserts the requester's reaction on a comment.
func (s *CommentService) AddReaction(ctx context.Context, id string, requester *utils.Claims, reactionType string) (*models.Comment, error) {
	if strings.TrimSpace(reactionType) == "" {
		return nil, (&ValidationError{}).Add("type", "reaction type is required", reactionType)
	}

	comment, err := s.loadComment(ctx, id)
	if err != nil {
		return nil, err
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}

	comment.AddReaction(requesterID, reactionType)

	_, err = s.CommentsCollection.UpdateOne(ctx,
		bson.M{"_id": comment.ID},
		bson.M{"$set": bson.M{"reactions": comment.Reactions, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add reaction: %v", err)
	}
	return comment, nil
}

// RemoveReaction removes the requester's reaction; no-op when absent.
func (s *CommentService) RemoveReaction(ctx context.Context, id string, requester *utils.Claims) (*models.Comment, error) {
	comment, err := s.loadComment(ctx, id)
	if err != nil {
		return nil, err
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}

	if comment.RemoveReaction(requesterID) {
		_, err = s.CommentsCollection.UpdateOne(ctx,
			bson.M{"_id": comment.ID},
			bson.M{"$set": bson.M{"reactions": comment.Reactions, "updatedAt": time.Now()}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to remove reaction: %v", err)
		}
	}
	return comment, nil
}

func (s *CommentService) loadComment(ctx context.Context, id string) (*models.Comment, error) {
	commentID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid comment id", ErrNotFound)
	}

	var comment models.Comment
	err = s.CommentsCollection.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: comment not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch comment: %v", err)
	}
	return &comment, nil
}
