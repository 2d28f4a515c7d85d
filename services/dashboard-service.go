package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow/backend/models"
	"taskflow/backend/utils"
)

type DashboardService struct {
	ProjectsCollection *mongo.Collection
	TasksCollection    *mongo.Collection
}

func NewDashboardService(projectsCollection, tasksCollection *mongo.Collection) *DashboardService {
	return &DashboardService{
		ProjectsCollection: projectsCollection,
		TasksCollection:    tasksCollection,
	}
}

// DashboardStats aggregates task counts over the requester's projects.
type DashboardStats struct {
	Projects   int64            `json:"projects"`
	Tasks      int64            `json:"tasks"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByPriority map[string]int64 `json:"byPriority"`
	Overdue    int64            `json:"overdue"`
	DueSoon    int64            `json:"dueThisWeek"`
}

// Stats computes the dashboard for the requester: counts scoped to
// projects they own or belong to.
func (s *DashboardService) Stats(ctx context.Context, requester *utils.Claims) (*DashboardStats, error) {
	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}

	projectCursor, err := s.ProjectsCollection.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"owner": requesterID},
		bson.M{"members.user": requesterID},
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %v", err)
	}
	defer projectCursor.Close(ctx)

	var projectIDs []primitive.ObjectID
	for projectCursor.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := projectCursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode project: %v", err)
		}
		projectIDs = append(projectIDs, row.ID)
	}
	if err := projectCursor.Err(); err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Projects:   int64(len(projectIDs)),
		ByStatus:   map[string]int64{},
		ByPriority: map[string]int64{},
	}
	if len(projectIDs) == 0 {
		return stats, nil
	}

	scope := bson.M{"project": bson.M{"$in": projectIDs}}

	byStatus, err := s.groupCounts(ctx, scope, "$status")
	if err != nil {
		return nil, err
	}
	for status, count := range byStatus {
		stats.ByStatus[status] = count
		stats.Tasks += count
	}

	byPriority, err := s.groupCounts(ctx, scope, "$priority")
	if err != nil {
		return nil, err
	}
	stats.ByPriority = byPriority

	now := time.Now()
	stats.Overdue, err = s.TasksCollection.CountDocuments(ctx, bson.M{
		"project": bson.M{"$in": projectIDs},
		"dueDate": bson.M{"$lt": now},
		"status":  bson.M{"$ne": models.StatusCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %v", err)
	}

	stats.DueSoon, err = s.TasksCollection.CountDocuments(ctx, bson.M{
		"project": bson.M{"$in": projectIDs},
		"dueDate": bson.M{"$gte": now, "$lt": now.AddDate(0, 0, 7)},
		"status":  bson.M{"$ne": models.StatusCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming tasks: %v", err)
	}

	return stats, nil
}

func (s *DashboardService) groupCounts(ctx context.Context, match bson.M, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.TasksCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks: %v", err)
	}
	defer cursor.Close(ctx)

	counts := map[string]int64{}
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode aggregation row: %v", err)
		}
		counts[row.ID] = row.Count
	}
	return counts, cursor.Err()
}
