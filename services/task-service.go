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

	"taskflow/backend/logging"
	"taskflow/backend/models"
	"taskflow/backend/utils"
)

type TaskService struct {
	TasksCollection    *mongo.Collection
	ProjectsCollection *mongo.Collection
	Notifications      *NotificationService
	Workflow           *WorkflowService
}

func NewTaskService(tasksCollection, projectsCollection *mongo.Collection, notifications *NotificationService, workflow *WorkflowService) *TaskService {
	return &TaskService{
		TasksCollection:    tasksCollection,
		ProjectsCollection: projectsCollection,
		Notifications:      notifications,
		Workflow:           workflow,
	}
}

// CreateTask stores a new task. The creator must be a member of the
// project; the task is appended to the end of its status column and the
// creator watches it by default.
func (s *TaskService) CreateTask(ctx context.Context, creator *utils.Claims, task models.Task) (*models.Task, error) {
	v := &ValidationError{}
	if strings.TrimSpace(task.Title) == "" {
		v.Add("title", "task title is required", task.Title)
	}
	if task.Status != "" && !models.ValidTaskStatus(task.Status) {
		v.Add("status", "unknown task status", task.Status)
	}
	if task.Priority != "" && !models.ValidPriority(task.Priority) {
		v.Add("priority", "unknown priority", task.Priority)
	}
	if task.EstimatedHours < 0 {
		v.Add("estimatedHours", "must not be negative", task.EstimatedHours)
	}
	if task.ActualHours < 0 {
		v.Add("actualHours", "must not be negative", task.ActualHours)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var project models.Project
	err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": task.Project}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: project not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}

	creatorID, err := primitive.ObjectIDFromHex(creator.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}
	if !project.IsMember(creatorID) {
		return nil, fmt.Errorf("%w: only project members can create tasks", ErrForbidden)
	}

	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	order, err := s.nextOrder(ctx, task.Project, task.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.ID = primitive.NewObjectID()
	task.Creator = models.NewUserRef(creatorID)
	task.Order = order
	task.Watchers = []models.UserRef{models.NewUserRef(creatorID)}
	task.CompletedAt = nil
	if task.Status == models.StatusCompleted {
		task.CompletedAt = &now
	}
	if task.Subtasks == nil {
		task.Subtasks = []models.Subtask{}
	}
	for i := range task.Subtasks {
		if task.Subtasks[i].ID.IsZero() {
			task.Subtasks[i].ID = primitive.NewObjectID()
		}
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if task.Dependencies == nil {
		task.Dependencies = []primitive.ObjectID{}
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	s.Workflow.RegisterTask(ctx, task.ID.Hex(), task.Title)

	if task.Assignee != nil && !task.Assignee.Is(creatorID) {
		s.Notifications.Notify(task.Assignee.ResolveID().Hex(), fmt.Sprintf("You have been assigned to task %q", task.Title))
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s.", task.ID.Hex(), task.Project.Hex())
	return &task, nil
}

// appendOrder returns the next free board position after the given column
// tasks: one past the maximum order, or 0 for an empty column.
func appendOrder(column []models.Task) int {
	next := 0
	for _, t := range column {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// nextOrder computes the append position for the (project, status) column.
func (s *TaskService) nextOrder(ctx context.Context, projectID primitive.ObjectID, status models.TaskStatus) (int, error) {
	var top models.Task
	err := s.TasksCollection.FindOne(ctx,
		bson.M{"project": projectID, "status": status},
		options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}}),
	).Decode(&top)
	if err == mongo.ErrNoDocuments {
		return appendOrder(nil), nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute task order: %v", err)
	}
	return appendOrder([]models.Task{top}), nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	taskID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid task id", ErrNotFound)
	}

	var task models.Task
	err = s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: task not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}
	return &task, nil
}

// ListTasks returns a filtered, paginated task page, default sorted by
// creation time descending.
func (s *TaskService) ListTasks(ctx context.Context, requester *utils.Claims, filter TaskFilter, opts ListOptions) ([]models.Task, models.Pagination, error) {
	opts = opts.Normalize("createdAt", "desc")

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}

	query, err := filter.Build(requesterID, time.Now())
	if err != nil {
		return nil, models.Pagination{}, err
	}

	total, err := s.TasksCollection.CountDocuments(ctx, query)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count tasks: %v", err)
	}

	cursor, err := s.TasksCollection.Find(ctx, query, findPage(opts))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to fetch tasks: %v", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode tasks: %v", err)
	}

	return tasks, models.NewPagination(opts.Page, opts.Limit, total), nil
}

// GroupTasksByStatus buckets tasks into the four fixed kanban columns.
// Tasks carrying an unknown status are silently dropped.
func GroupTasksByStatus(tasks []models.Task) map[models.TaskStatus][]models.Task {
	board := make(map[models.TaskStatus][]models.Task, len(models.KanbanStatuses))
	for _, status := range models.KanbanStatuses {
		board[status] = []models.Task{}
	}
	for _, task := range tasks {
		if _, ok := board[task.Status]; ok {
			board[task.Status] = append(board[task.Status], task)
		}
	}
	return board
}

// TasksByProject returns the project's kanban board: tasks sorted by
// column order then creation time, grouped by status.
func (s *TaskService) TasksByProject(ctx context.Context, projectID string) (map[models.TaskStatus][]models.Task, error) {
	id, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrNotFound)
	}

	cursor, err := s.TasksCollection.Find(ctx,
		bson.M{"project": id},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}

	return GroupTasksByStatus(tasks), nil
}

// UpdateTask applies general field changes. Requires project membership.
func (s *TaskService) UpdateTask(ctx context.Context, id string, requester *utils.Claims, changes models.Task) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireMembership(ctx, task.Project, requester); err != nil {
		return nil, err
	}

	update := bson.M{"updatedAt": time.Now()}
	if strings.TrimSpace(changes.Title) != "" {
		update["title"] = strings.TrimSpace(changes.Title)
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
	if changes.Tags != nil {
		update["tags"] = changes.Tags
	}
	if changes.StartDate != nil {
		update["startDate"] = changes.StartDate
	}
	if changes.DueDate != nil {
		update["dueDate"] = changes.DueDate
	}
	if changes.EstimatedHours > 0 {
		update["estimatedHours"] = changes.EstimatedHours
	}
	if changes.ActualHours > 0 {
		update["actualHours"] = changes.ActualHours
	}
	if changes.Assignee != nil {
		newAssignee := changes.Assignee.ResolveID()
		if newAssignee.IsZero() {
			update["assignee"] = nil
		} else {
			update["assignee"] = newAssignee
			if task.Assignee == nil || !task.Assignee.Is(newAssignee) {
				s.Notifications.Notify(newAssignee.Hex(), fmt.Sprintf("You have been assigned to task %q", task.Title))
			}
		}
	}

	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{"$set": update}); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}

	return s.GetTask(ctx, id)
}

// UpdateTaskStatus moves a task between kanban columns. Beyond
// authentication there is intentionally no membership check here. The
// completion timestamp is reversible: set on entering completed, cleared
// on leaving it.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, newOrder *int) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, (&ValidationError{}).Add("status", "unknown task status", status)
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == models.StatusInProgress && len(task.Dependencies) > 0 {
		unfinished, err := s.hasUnfinishedDependency(ctx, task.Dependencies)
		if err != nil {
			return nil, err
		}
		if unfinished {
			return nil, fmt.Errorf("%w: cannot start task due to unfinished dependency", ErrInvalidOperation)
		}
	}

	now := time.Now()
	prevStatus := task.Status
	task.ApplyStatus(status, now)

	update := bson.M{
		"status":    task.Status,
		"updatedAt": now,
	}
	if newOrder != nil {
		update["order"] = *newOrder
	} else if prevStatus != status {
		// moved to a new column without an explicit position: append
		order, err := s.nextOrder(ctx, task.Project, status)
		if err != nil {
			return nil, err
		}
		update["order"] = order
	}

	set := bson.M{"$set": update}
	if task.CompletedAt != nil {
		update["completedAt"] = task.CompletedAt
	} else {
		set["$unset"] = bson.M{"completedAt": ""}
	}

	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, set); err != nil {
		return nil, fmt.Errorf("failed to update task status: %v", err)
	}

	for _, w := range task.Watchers {
		s.Notifications.Notify(w.ResolveID().Hex(), fmt.Sprintf("Task %q moved to %s", task.Title, status))
	}

	return s.GetTask(ctx, id)
}

// hasUnfinishedDependency reports whether any of the given tasks is not
// yet completed.
func (s *TaskService) hasUnfinishedDependency(ctx context.Context, deps []primitive.ObjectID) (bool, error) {
	count, err := s.TasksCollection.CountDocuments(ctx, bson.M{
		"_id":    bson.M{"$in": deps},
		"status": bson.M{"$ne": models.StatusCompleted},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check dependencies: %v", err)
	}
	return count > 0, nil
}

// AddSubtask appends a subtask with its own identity.
func (s *TaskService) AddSubtask(ctx context.Context, id string, requester *utils.Claims, title string) (*models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, (&ValidationError{}).Add("title", "subtask title is required", title)
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireMembership(ctx, task.Project, requester); err != nil {
		return nil, err
	}

	subtask := models.Subtask{ID: primitive.NewObjectID(), Title: strings.TrimSpace(title)}
	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$push": bson.M{"subtasks": subtask}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add subtask: %v", err)
	}

	return s.GetTask(ctx, id)
}

// ToggleSubtask flips a subtask's completion, stamping or clearing its
// completion time.
func (s *TaskService) ToggleSubtask(ctx context.Context, id, subtaskID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	sid, err := primitive.ObjectIDFromHex(subtaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subtask id", ErrNotFound)
	}

	if !task.ToggleSubtask(sid, time.Now()) {
		return nil, fmt.Errorf("%w: subtask not found", ErrNotFound)
	}

	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$set": bson.M{"subtasks": task.Subtasks, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle subtask: %v", err)
	}

	return task, nil
}

// DeleteSubtask removes a subtask by id.
func (s *TaskService) DeleteSubtask(ctx context.Context, id, subtaskID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	sid, err := primitive.ObjectIDFromHex(subtaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subtask id", ErrNotFound)
	}

	if !task.RemoveSubtask(sid) {
		return nil, fmt.Errorf("%w: subtask not found", ErrNotFound)
	}

	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$set": bson.M{"subtasks": task.Subtasks, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete subtask: %v", err)
	}

	return task, nil
}

// DeleteTask removes a task. Comments referencing the task are left in
// place as an audit trail.
func (s *TaskService) DeleteTask(ctx context.Context, id string, requester *utils.Claims) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireMembership(ctx, task.Project, requester); err != nil {
		return err
	}

	if _, err := s.TasksCollection.DeleteOne(ctx, bson.M{"_id": task.ID}); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	s.Workflow.UnregisterTask(ctx, task.ID.Hex())

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s.", task.ID.Hex(), requester.UserID)
	return nil
}

// AddWatcher subscribes a user to task updates.
func (s *TaskService) AddWatcher(ctx context.Context, id string, userID primitive.ObjectID) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.IsWatcher(userID) {
		return task, nil
	}

	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$push": bson.M{"watchers": userID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add watcher: %v", err)
	}
	return s.GetTask(ctx, id)
}

// RemoveWatcher unsubscribes a user from task updates.
func (s *TaskService) RemoveWatcher(ctx context.Context, id string, userID primitive.ObjectID) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$pull": bson.M{"watchers": userID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to remove watcher: %v", err)
	}
	return s.GetTask(ctx, id)
}

// AddDependency records that task depends on another task, mirroring the
// edge into the dependency graph, which rejects duplicates and cycles.
func (s *TaskService) AddDependency(ctx context.Context, id, dependsOnID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	dependsOn, err := s.GetTask(ctx, dependsOnID)
	if err != nil {
		return nil, err
	}
	if task.ID == dependsOn.ID {
		return nil, fmt.Errorf("%w: a task cannot depend on itself", ErrInvalidOperation)
	}

	if err := s.Workflow.AddDependency(ctx, task.ID.Hex(), dependsOn.ID.Hex()); err != nil {
		return nil, err
	}

	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$addToSet": bson.M{"dependencies": dependsOn.ID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record dependency: %v", err)
	}

	return s.GetTask(ctx, id)
}

// RemoveDependency deletes a dependency edge.
func (s *TaskService) RemoveDependency(ctx context.Context, id, dependsOnID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	dependsOn, err := primitive.ObjectIDFromHex(dependsOnID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid task id", ErrNotFound)
	}

	if err := s.Workflow.RemoveDependency(ctx, task.ID.Hex(), dependsOn.Hex()); err != nil {
		return nil, err
	}

	_, err = s.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$pull": bson.M{"dependencies": dependsOn}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to remove dependency: %v", err)
	}

	return s.GetTask(ctx, id)
}

// requireMembership checks that the requester belongs to the task's
// project (global admins pass).
func (s *TaskService) requireMembership(ctx context.Context, projectID primitive.ObjectID, requester *utils.Claims) error {
	if requester.Role == models.RoleAdmin {
		return nil
	}

	var project models.Project
	err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("%w: project not found", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch project: %v", err)
	}

	requesterID, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid requester id", ErrUnauthorized)
	}
	if !project.IsMember(requesterID) {
		return fmt.Errorf("%w: not a member of this project", ErrForbidden)
	}
	return nil
}
