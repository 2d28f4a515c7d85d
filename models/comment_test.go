package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCommentAddReactionUpserts(t *testing.T) {
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()
	comment := Comment{}

	comment.AddReaction(user, "like")
	require.Len(t, comment.Reactions, 1)

	// same user reacting again replaces, never duplicates
	comment.AddReaction(user, "heart")
	require.Len(t, comment.Reactions, 1)
	assert.Equal(t, "heart", comment.Reactions[0].Type)

	comment.AddReaction(other, "like")
	assert.Len(t, comment.Reactions, 2)
}

func TestCommentRemoveReaction(t *testing.T) {
	user := primitive.NewObjectID()
	comment := Comment{Reactions: []Reaction{{User: user, Type: "like"}}}

	assert.True(t, comment.RemoveReaction(user))
	assert.Empty(t, comment.Reactions)
	assert.False(t, comment.RemoveReaction(user))
}

func TestCommentSoftDelete(t *testing.T) {
	comment := Comment{Content: "original text"}
	comment.SoftDelete()

	assert.True(t, comment.IsDeleted)
	assert.Equal(t, DeletedCommentContent, comment.Content)
}
