package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow/backend/models"
)

func TestAppendOrder(t *testing.T) {
	// empty column starts at 0
	assert.Equal(t, 0, appendOrder(nil))
	assert.Equal(t, 0, appendOrder([]models.Task{}))

	// one past the maximum, regardless of slice order
	assert.Equal(t, 1, appendOrder([]models.Task{{Order: 0}}))
	assert.Equal(t, 3, appendOrder([]models.Task{{Order: 0}, {Order: 1}, {Order: 2}}))
	assert.Equal(t, 6, appendOrder([]models.Task{{Order: 5}, {Order: 2}}))
}

func TestGroupTasksByStatus(t *testing.T) {
	tasks := []models.Task{
		{ID: primitive.NewObjectID(), Title: "a", Status: models.StatusTodo},
		{ID: primitive.NewObjectID(), Title: "b", Status: models.StatusCompleted},
		{ID: primitive.NewObjectID(), Title: "c", Status: models.StatusTodo},
	}

	board := GroupTasksByStatus(tasks)

	// all four columns are present even when empty
	require.Len(t, board, 4)
	for _, status := range models.KanbanStatuses {
		assert.Contains(t, board, status)
	}

	assert.Len(t, board[models.StatusTodo], 2)
	assert.Len(t, board[models.StatusCompleted], 1)
	assert.Empty(t, board[models.StatusInProgress])
	assert.Empty(t, board[models.StatusInReview])
}

func TestGroupTasksByStatusDropsUnknownStatus(t *testing.T) {
	tasks := []models.Task{
		{ID: primitive.NewObjectID(), Status: "blocked"},
		{ID: primitive.NewObjectID(), Status: models.StatusInReview},
	}

	board := GroupTasksByStatus(tasks)
	require.Len(t, board, 4)
	assert.Len(t, board[models.StatusInReview], 1)
	assert.NotContains(t, board, models.TaskStatus("blocked"))
}

func TestGroupTasksByStatusEmptyInput(t *testing.T) {
	board := GroupTasksByStatus(nil)
	require.Len(t, board, 4)
	for _, status := range models.KanbanStatuses {
		assert.NotNil(t, board[status])
		assert.Empty(t, board[status])
	}
}
