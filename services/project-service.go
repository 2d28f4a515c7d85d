package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow/backend/logging"
	"taskflow/backend/models"
	"taskflow/backend/utils"
)

type ProjectService struct {
	ProjectsCollection *mongo.Collection
	TasksCollection    *mongo.Collection
	UsersCollection    *mongo.Collection
	Notifications      *NotificationService
}

func NewProjectService(projectsCollection, tasksCollection, usersCollection *mongo.Collection, notifications *NotificationService) *ProjectService {
	return &ProjectService{
		ProjectsCollection: projectsCollection,
		TasksCollection:    tasksCollection,
		UsersCollection:    usersCollection,
		Notifications:      notifications,
	}
}

// TaskStats summarizes a project's tasks for list annotations.
type TaskStats struct {
	Total     int64            `json:"total"`
	Completed int64            `json:"completed"`
	ByStatus  map[string]int64 `json:"byStatus"`
}

// ProjectView is a project annotated with task statistics and progress.
type ProjectView struct {
	models.Project
	TaskStats TaskStats `json:"taskStats"`
	Progress  int       `json:"progress"`
}

// Progress is the completed-task percentage, rounded.
func (ts TaskStats) ProgressPercent() int {
	if ts.Total == 0 {
		return 0
	}
	return int(math.Round(float64(ts.Completed) / float64(ts.Total) * 100))
}

// CreateProject stores a new project. Any authenticated user may create
// one; the requester becomes the immutable owner.
func (s *ProjectService) CreateProject(ctx context.Context, owner primitive.ObjectID, project models.Project) (*models.Project, error) {
	v := &ValidationError{}
	if strings.TrimSpace(project.Name) == "" {
		v.Add("name", "project name is required", project.Name)
	}
	if project.Status != "" && !models.ValidProjectStatus(project.Status) {
		v.Add("status", "unknown project status", project.Status)
	}
	if project.Priority != "" && !models.ValidPriority(project.Priority) {
		v.Add("priority", "unknown priority", project.Priority)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if project.Status == "" {
		project.Status = models.ProjectPlanning
	}
	if project.Priority == "" {
		project.Priority = models.PriorityMedium
	}

	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.Owner = models.NewUserRef(owner)
	project.Members = []models.ProjectMember{}
	project.CompletedAt = nil
	if project.Tags == nil {
		project.Tags = []string{}
	}
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == models.ProjectCompleted {
		project.CompletedAt = &now
	}

	if _, err := s.ProjectsCollection.InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created by %s.", project.ID.Hex(), owner.Hex())
	return &project, nil
}

// GetProject loads a project and checks view access: non-public projects
// are visible to members and global admins only.
func (s *ProjectService) GetProject(ctx context.Context, id string, requester *utils.Claims) (*models.Project, error) {
	project, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}
	if !project.CanView(requesterID, requester.Role) {
		return nil, fmt.Errorf("%w: not a member of this project", ErrForbidden)
	}

	return project, nil
}

// ListProjects returns the requester's visible projects, each annotated
// with task stats and progress.
func (s *ProjectService) ListProjects(ctx context.Context, requester *utils.Claims, filter ProjectFilter, opts ListOptions) ([]ProjectView, models.Pagination, error) {
	opts = opts.Normalize("createdAt", "desc")
	query := filter.Build()

	if requester.Role != models.RoleAdmin {
		requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
		if err != nil {
			return nil, models.Pagination{}, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
		}
		query["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"owner": requesterID},
			bson.M{"members.user": requesterID},
			bson.M{"isPublic": true},
		}}}
	}

	total, err := s.ProjectsCollection.CountDocuments(ctx, query)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count projects: %v", err)
	}

	cursor, err := s.ProjectsCollection.Find(ctx, query, findPage(opts))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to fetch projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode projects: %v", err)
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		stats, err := s.taskStats(ctx, p.ID)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		views = append(views, ProjectView{Project: p, TaskStats: stats, Progress: stats.ProgressPercent()})
	}

	return views, models.NewPagination(opts.Page, opts.Limit, total), nil
}

// taskStats aggregates the project's tasks by status.
func (s *ProjectService) taskStats(ctx context.Context, projectID primitive.ObjectID) (TaskStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project": projectID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.TasksCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return TaskStats{}, fmt.Errorf("failed to aggregate task stats: %v", err)
	}
	defer cursor.Close(ctx)

	stats := TaskStats{ByStatus: map[string]int64{}}
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return TaskStats{}, fmt.Errorf("failed to decode task stats: %v", err)
		}
		stats.ByStatus[row.ID] = row.Count
		stats.Total += row.Count
		if row.ID == string(models.StatusCompleted) {
			stats.Completed = row.Count
		}
	}
	if err := cursor.Err(); err != nil {
		return TaskStats{}, err
	}
	return stats, nil
}

// UpdateProject applies field changes after the management check. The
// owner is immutable; status transitions keep the one-way completion
// timestamp.
func (s *ProjectService) UpdateProject(ctx context.Context, id string, requester *utils.Claims, changes models.Project) (*models.Project, error) {
	project, _, err := s.loadForManage(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	update := bson.M{"updatedAt": time.Now()}
	if strings.TrimSpace(changes.Name) != "" {
		update["name"] = strings.TrimSpace(changes.Name)
	}
	if changes.Description != "" {
		update["description"] = changes.Description
	}
	if changes.Priority != "" {
		if !models.ValidPriority(changes.Priority) {
			return nil, (&ValidationError{}).Add("priority", "unknown priority", changes.Priority)
		}
		update["priority"] = changes.Priority
	}
	if changes.Status != "" {
		if !models.ValidProjectStatus(changes.Status) {
			return nil, (&ValidationError{}).Add("status", "unknown project status", changes.Status)
		}
		project.ApplyStatus(changes.Status, time.Now())
		update["status"] = project.Status
		if project.CompletedAt != nil {
			update["completedAt"] = project.CompletedAt
		}
	}
	if changes.Color != "" {
		update["color"] = changes.Color
	}
	if changes.Tags != nil {
		update["tags"] = changes.Tags
	}
	if changes.StartDate != nil {
		update["startDate"] = changes.StartDate
	}
	if changes.DueDate != nil {
		update["dueDate"] = changes.DueDate
	}
	if changes.Budget != (models.Budget{}) {
		update["budget"] = changes.Budget
	}

	if _, err := s.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": project.ID}, bson.M{"$set": update}); err != nil {
		return nil, fmt.Errorf("failed to update project: %v", err)
	}

	return s.loadProject(ctx, id)
}

// SetArchived flips the archival flag.
func (s *ProjectService) SetArchived(ctx context.Context, id string, requester *utils.Claims, archived bool) (*models.Project, error) {
	project, _, err := s.loadForManage(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	_, err = s.ProjectsCollection.UpdateOne(ctx,
		bson.M{"_id": project.ID},
		bson.M{"$set": bson.M{"isArchived": archived, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %v", err)
	}
	return s.loadProject(ctx, id)
}

// DeleteProject removes the project and cascade-deletes its tasks. The two
// writes are not atomic; a crash in between can leave orphaned tasks.
func (s *ProjectService) DeleteProject(ctx context.Context, id string, requester *utils.Claims) error {
	project, _, err := s.loadForManage(ctx, id, requester)
	if err != nil {
		return err
	}

	if _, err := s.ProjectsCollection.DeleteOne(ctx, bson.M{"_id": project.ID}); err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}

	result, err := s.TasksCollection.DeleteMany(ctx, bson.M{"project": project.ID})
	if err != nil {
		return fmt.Errorf("project deleted but task cascade failed: %v", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted with %d tasks.", project.ID.Hex(), result.DeletedCount)
	return nil
}

// AddMember adds a user to the project member list. Adding someone already
// present, the owner included, is rejected rather than ignored.
func (s *ProjectService) AddMember(ctx context.Context, id string, requester *utils.Claims, userID string, role models.MemberRole) (*models.Project, error) {
	project, _, err := s.loadForManage(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	memberID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, (&ValidationError{}).Add("user", "invalid user id", userID)
	}
	if role == "" {
		role = models.MemberMember
	}
	if !models.ValidMemberRole(role) {
		return nil, (&ValidationError{}).Add("role", "unknown member role", role)
	}

	var user models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": memberID}).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	if project.IsMember(memberID) {
		return nil, fmt.Errorf("%w: user is already a member of this project", ErrConflict)
	}

	member := models.ProjectMember{
		User:     models.NewUserRef(memberID),
		Role:     role,
		JoinedAt: time.Now(),
	}

	_, err = s.ProjectsCollection.UpdateOne(ctx,
		bson.M{"_id": project.ID},
		bson.M{"$push": bson.M{"members": member}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %v", err)
	}

	s.Notifications.Notify(memberID.Hex(), fmt.Sprintf("You have been added to project %q", project.Name))

	return s.loadProject(ctx, id)
}

// RemoveMember removes a user from the member list. The owner is never a
// removable member.
func (s *ProjectService) RemoveMember(ctx context.Context, id string, requester *utils.Claims, userID string) (*models.Project, error) {
	project, _, err := s.loadForManage(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	memberID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, (&ValidationError{}).Add("user", "invalid user id", userID)
	}

	if project.Owner.Is(memberID) {
		return nil, fmt.Errorf("%w: the project owner cannot be removed", ErrInvalidOperation)
	}
	if _, ok := project.MemberRoleOf(memberID); !ok {
		return nil, fmt.Errorf("%w: user is not a member of this project", ErrNotFound)
	}

	_, err = s.ProjectsCollection.UpdateOne(ctx,
		bson.M{"_id": project.ID},
		bson.M{"$pull": bson.M{"members": bson.M{"user": memberID}}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to remove member: %v", err)
	}

	return s.loadProject(ctx, id)
}

func (s *ProjectService) loadProject(ctx context.Context, id string) (*models.Project, error) {
	projectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrNotFound)
	}

	var project models.Project
	err = s.ProjectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: project not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	return &project, nil
}

// loadForManage loads the project and enforces the update/delete rule:
// owner, project-admin member, or global admin. Existence is checked
// before authorization, so missing projects yield NotFound regardless of
// the caller.
func (s *ProjectService) loadForManage(ctx context.Context, id string, requester *utils.Claims) (*models.Project, primitive.ObjectID, error) {
	project, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, primitive.NilObjectID, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}

	if !project.CanManage(requesterID, requester.Role) {
		return nil, primitive.NilObjectID, fmt.Errorf("%w: insufficient project permissions", ErrForbidden)
	}

	return project, requesterID, nil
}
