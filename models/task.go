package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusInReview   TaskStatus = "in-review"
	StatusCompleted  TaskStatus = "completed"
)

// KanbanStatuses lists the fixed board columns in display order.
var KanbanStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusInReview, StatusCompleted}

func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusCompleted:
		return true
	}
	return false
}

type Subtask struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

type Attachment struct {
	Filename   string             `bson:"filename" json:"filename"`
	URL        string             `bson:"url" json:"url"`
	Size       int64              `bson:"size" json:"size"`
	UploadedBy primitive.ObjectID `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
	UploadedAt time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

type Task struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title          string               `bson:"title" json:"title"`
	Description    string               `bson:"description" json:"description"`
	Status         TaskStatus           `bson:"status" json:"status"`
	Priority       Priority             `bson:"priority" json:"priority"`
	Project        primitive.ObjectID   `bson:"project" json:"project"`
	Creator        UserRef              `bson:"creator" json:"creator"`
	Assignee       *UserRef             `bson:"assignee,omitempty" json:"assignee,omitempty"`
	Subtasks       []Subtask            `bson:"subtasks" json:"subtasks"`
	Attachments    []Attachment         `bson:"attachments" json:"attachments"`
	StartDate      *time.Time           `bson:"startDate,omitempty" json:"startDate,omitempty"`
	DueDate        *time.Time           `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CompletedAt    *time.Time           `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	EstimatedHours float64              `bson:"estimatedHours" json:"estimatedHours"`
	ActualHours    float64              `bson:"actualHours" json:"actualHours"`
	Tags           []string             `bson:"tags" json:"tags"`
	Order          int                  `bson:"order" json:"order"`
	Watchers       []UserRef            `bson:"watchers" json:"watchers"`
	Dependencies   []primitive.ObjectID `bson:"dependencies" json:"dependencies"`
	IsArchived     bool                 `bson:"isArchived" json:"isArchived"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ApplyStatus sets the status and maintains the reversible completion
// timestamp: stamped on the transition into completed, cleared on leaving
// it. Re-applying completed keeps the original timestamp.
func (t *Task) ApplyStatus(status TaskStatus, now time.Time) {
	if status == StatusCompleted {
		if t.Status != StatusCompleted {
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = status
}

// ToggleSubtask flips the completion state of the identified subtask.
// Returns false if no subtask has that id.
func (t *Task) ToggleSubtask(subtaskID primitive.ObjectID, now time.Time) bool {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID != subtaskID {
			continue
		}
		t.Subtasks[i].IsCompleted = !t.Subtasks[i].IsCompleted
		if t.Subtasks[i].IsCompleted {
			t.Subtasks[i].CompletedAt = &now
		} else {
			t.Subtasks[i].CompletedAt = nil
		}
		return true
	}
	return false
}

// RemoveSubtask deletes the identified subtask. Returns false if absent.
func (t *Task) RemoveSubtask(subtaskID primitive.ObjectID) bool {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
			return true
		}
	}
	return false
}

// IsWatcher reports whether the user already watches the task.
func (t *Task) IsWatcher(userID primitive.ObjectID) bool {
	for _, w := range t.Watchers {
		if w.Is(userID) {
			return true
		}
	}
	return false
}
