package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListOptionsNormalize(t *testing.T) {
	opts := ListOptions{}.Normalize("createdAt", "desc")
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, defaultPageLimit, opts.Limit)
	assert.Equal(t, "createdAt", opts.SortBy)
	assert.Equal(t, "desc", opts.SortOrder)

	opts = ListOptions{Page: 3, Limit: 500, SortOrder: "sideways"}.Normalize("name", "asc")
	assert.Equal(t, maxPageLimit, opts.Limit)
	assert.Equal(t, "asc", opts.SortOrder)
	assert.Equal(t, int64(200), opts.Skip())
}

func TestListOptionsSort(t *testing.T) {
	asc := ListOptions{SortBy: "order", SortOrder: "asc"}.Sort()
	assert.Equal(t, bson.D{{Key: "order", Value: 1}}, asc)

	desc := ListOptions{SortBy: "createdAt", SortOrder: "desc"}.Sort()
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, desc)
}

func TestTaskFilterBuildStatusList(t *testing.T) {
	requester := primitive.NewObjectID()
	now := time.Now()

	filter, err := TaskFilter{Status: "todo"}.Build(requester, now)
	require.NoError(t, err)
	assert.Equal(t, "todo", filter["status"])

	filter, err = TaskFilter{Status: "todo, in-progress"}.Build(requester, now)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$in": []string{"todo", "in-progress"}}, filter["status"])
}

func TestTaskFilterBuildAssignee(t *testing.T) {
	requester := primitive.NewObjectID()
	now := time.Now()

	filter, err := TaskFilter{Assignee: "me"}.Build(requester, now)
	require.NoError(t, err)
	assert.Equal(t, requester, filter["assignee"])

	filter, err = TaskFilter{Assignee: "unassigned"}.Build(requester, now)
	require.NoError(t, err)
	assert.Nil(t, filter["assignee"])
	assert.Contains(t, filter, "assignee")

	other := primitive.NewObjectID()
	filter, err = TaskFilter{Assignee: other.Hex()}.Build(requester, now)
	require.NoError(t, err)
	assert.Equal(t, other, filter["assignee"])

	_, err = TaskFilter{Assignee: "not-an-id"}.Build(requester, now)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "assignee", vErr.Fields[0].Field)
}

func TestTaskFilterBuildDueDateDayRange(t *testing.T) {
	filter, err := TaskFilter{DueDate: "2026-03-15"}.Build(primitive.NewObjectID(), time.Now())
	require.NoError(t, err)

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, bson.M{"$gte": day, "$lt": day.AddDate(0, 0, 1)}, filter["dueDate"])

	_, err = TaskFilter{DueDate: "15.03.2026"}.Build(primitive.NewObjectID(), time.Now())
	assert.Error(t, err)
}

func TestTaskFilterBuildOverdue(t *testing.T) {
	now := time.Now()
	filter, err := TaskFilter{Overdue: true}.Build(primitive.NewObjectID(), now)
	require.NoError(t, err)

	and, ok := filter["$and"].(bson.A)
	require.True(t, ok)
	assert.Contains(t, and, bson.M{"dueDate": bson.M{"$lt": now}})
	assert.Contains(t, and, bson.M{"status": bson.M{"$ne": "completed"}})
}

func TestTaskFilterBuildOverdueKeepsStatusFilter(t *testing.T) {
	now := time.Now()
	filter, err := TaskFilter{Status: "in-progress", Overdue: true}.Build(primitive.NewObjectID(), now)
	require.NoError(t, err)

	// the status filter survives alongside the overdue clauses
	assert.Equal(t, "in-progress", filter["status"])
	and, ok := filter["$and"].(bson.A)
	require.True(t, ok)
	assert.Contains(t, and, bson.M{"dueDate": bson.M{"$lt": now}})
	assert.Contains(t, and, bson.M{"status": bson.M{"$ne": "completed"}})
}

func TestTaskFilterBuildInvalidProject(t *testing.T) {
	_, err := TaskFilter{Project: "xyz"}.Build(primitive.NewObjectID(), time.Now())
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "project", vErr.Fields[0].Field)
}

func TestTaskFilterBuildSearchEscapesRegex(t *testing.T) {
	filter, err := TaskFilter{Search: "fix (urgent)"}.Build(primitive.NewObjectID(), time.Now())
	require.NoError(t, err)

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	re := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `fix \(urgent\)`, re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestProjectFilterBuild(t *testing.T) {
	filter := ProjectFilter{Status: "planning", Priority: "high", Search: "web"}.Build()
	assert.Equal(t, "planning", filter["status"])
	assert.Equal(t, "high", filter["priority"])
	assert.Contains(t, filter, "$or")
}

func TestUserFilterBuild(t *testing.T) {
	active := true
	filter := UserFilter{Role: "manager", IsActive: &active}.Build()
	assert.Equal(t, "manager", filter["role"])
	assert.Equal(t, true, filter["isActive"])
}
