package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskApplyStatusIsReversible(t *testing.T) {
	task := Task{Status: StatusInProgress}

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	task.ApplyStatus(StatusCompleted, now)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	task.ApplyStatus(StatusInProgress, now.Add(time.Hour))
	assert.Nil(t, task.CompletedAt)

	later := now.Add(2 * time.Hour)
	task.ApplyStatus(StatusCompleted, later)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, later, *task.CompletedAt)
}

func TestTaskApplyStatusRepeatedCompletionKeepsTimestamp(t *testing.T) {
	task := Task{Status: StatusTodo}

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	task.ApplyStatus(StatusCompleted, first)
	require.NotNil(t, task.CompletedAt)

	// a repeated completed status must not rewrite the completion time
	task.ApplyStatus(StatusCompleted, first.Add(time.Hour))
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, first, *task.CompletedAt)
}

func TestTaskToggleSubtask(t *testing.T) {
	subtaskID := primitive.NewObjectID()
	task := Task{Subtasks: []Subtask{{ID: subtaskID, Title: "write docs"}}}

	now := time.Now()
	require.True(t, task.ToggleSubtask(subtaskID, now))
	assert.True(t, task.Subtasks[0].IsCompleted)
	require.NotNil(t, task.Subtasks[0].CompletedAt)

	// second toggle goes back to incomplete
	require.True(t, task.ToggleSubtask(subtaskID, now))
	assert.False(t, task.Subtasks[0].IsCompleted)
	assert.Nil(t, task.Subtasks[0].CompletedAt)

	assert.False(t, task.ToggleSubtask(primitive.NewObjectID(), now))
}

func TestTaskRemoveSubtask(t *testing.T) {
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	task := Task{Subtasks: []Subtask{{ID: first}, {ID: second}}}

	require.True(t, task.RemoveSubtask(first))
	require.Len(t, task.Subtasks, 1)
	assert.Equal(t, second, task.Subtasks[0].ID)

	assert.False(t, task.RemoveSubtask(first))
	assert.Len(t, task.Subtasks, 1)
}

func TestTaskIsWatcher(t *testing.T) {
	watcher := primitive.NewObjectID()
	task := Task{Watchers: []UserRef{NewUserRef(watcher)}}

	assert.True(t, task.IsWatcher(watcher))
	assert.False(t, task.IsWatcher(primitive.NewObjectID()))
}

func TestValidTaskStatus(t *testing.T) {
	for _, s := range KanbanStatuses {
		assert.True(t, ValidTaskStatus(s))
	}
	assert.False(t, ValidTaskStatus("done"))
}
