package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedCommentContent replaces the content of a soft-deleted comment.
const DeletedCommentContent = "This comment has been deleted"

// MaxCommentLength is the maximum accepted comment content length.
const MaxCommentLength = 2000

type Reaction struct {
	User primitive.ObjectID `bson:"user" json:"user"`
	Type string             `bson:"type" json:"type"`
}

type Comment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Task          primitive.ObjectID   `bson:"task" json:"task"`
	Author        UserRef              `bson:"author" json:"author"`
	Content       string               `bson:"content" json:"content"`
	ParentComment *primitive.ObjectID  `bson:"parentComment,omitempty" json:"parentComment,omitempty"`
	Mentions      []primitive.ObjectID `bson:"mentions" json:"mentions"`
	Attachments   []Attachment         `bson:"attachments" json:"attachments"`
	Reactions     []Reaction           `bson:"reactions" json:"reactions"`
	IsEdited      bool                 `bson:"isEdited" json:"isEdited"`
	EditedAt      *time.Time           `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
	IsDeleted     bool                 `bson:"isDeleted" json:"isDeleted"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`

	// Replies are attached at read time, never persisted on the document.
	Replies []Comment `bson:"-" json:"replies,omitempty"`
}

// AddReaction upserts the user's reaction: a user has at most one reaction
// per comment, so a second reaction replaces the first in place.
func (c *Comment) AddReaction(userID primitive.ObjectID, reactionType string) {
	for i := range c.Reactions {
		if c.Reactions[i].User == userID {
			c.Reactions[i].Type = reactionType
			return
		}
	}
	c.Reactions = append(c.Reactions, Reaction{User: userID, Type: reactionType})
}

// RemoveReaction removes the user's reaction. Returns false if the user had
// none.
func (c *Comment) RemoveReaction(userID primitive.ObjectID) bool {
	for i := range c.Reactions {
		if c.Reactions[i].User == userID {
			c.Reactions = append(c.Reactions[:i], c.Reactions[i+1:]...)
			return true
		}
	}
	return false
}

// SoftDelete tombstones the comment while keeping the record so reply
// threads stay intact.
func (c *Comment) SoftDelete() {
	c.Content = DeletedCommentContent
	c.IsDeleted = true
}
