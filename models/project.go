package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectOnHold     ProjectStatus = "on-hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type MemberRole string

const (
	MemberViewer MemberRole = "viewer"
	MemberMember MemberRole = "member"
	MemberAdmin  MemberRole = "admin"
)

func ValidMemberRole(r MemberRole) bool {
	return r == MemberViewer || r == MemberMember || r == MemberAdmin
}

type ProjectMember struct {
	User     UserRef    `bson:"user" json:"user"`
	Role     MemberRole `bson:"role" json:"role"`
	JoinedAt time.Time  `bson:"joinedAt" json:"joinedAt"`
}

type Budget struct {
	Estimated float64 `bson:"estimated" json:"estimated"`
	Spent     float64 `bson:"spent" json:"spent"`
	Currency  string  `bson:"currency" json:"currency"`
}

type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Status      ProjectStatus      `bson:"status" json:"status"`
	Priority    Priority           `bson:"priority" json:"priority"`
	Owner       UserRef            `bson:"owner" json:"owner"`
	Members     []ProjectMember    `bson:"members" json:"members"`
	Tags        []string           `bson:"tags" json:"tags"`
	Color       string             `bson:"color" json:"color"`
	Budget      Budget             `bson:"budget" json:"budget"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	IsArchived  bool               `bson:"isArchived" json:"isArchived"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsMember reports whether the given user is the owner or appears in the
// member list. Works for both bare and expanded references.
func (p *Project) IsMember(userID primitive.ObjectID) bool {
	if p.Owner.Is(userID) {
		return true
	}
	for _, m := range p.Members {
		if m.User.Is(userID) {
			return true
		}
	}
	return false
}

// MemberRoleOf returns the per-project role of a user in the member list.
// The owner is not in the list; callers handle ownership separately.
func (p *Project) MemberRoleOf(userID primitive.ObjectID) (MemberRole, bool) {
	for _, m := range p.Members {
		if m.User.Is(userID) {
			return m.Role, true
		}
	}
	return "", false
}

// CanManage reports whether the user may update or delete the project:
// the owner, a member with the admin project role, or a global admin.
func (p *Project) CanManage(userID primitive.ObjectID, globalRole string) bool {
	if globalRole == RoleAdmin {
		return true
	}
	if p.Owner.Is(userID) {
		return true
	}
	role, ok := p.MemberRoleOf(userID)
	return ok && role == MemberAdmin
}

// CanView reports whether the user may read the project.
func (p *Project) CanView(userID primitive.ObjectID, globalRole string) bool {
	if p.IsPublic || globalRole == RoleAdmin {
		return true
	}
	return p.IsMember(userID)
}

// ApplyStatus sets the status and maintains the one-way completion
// timestamp: completedAt is set on the first transition into completed and
// never cleared afterwards.
func (p *Project) ApplyStatus(status ProjectStatus, now time.Time) {
	p.Status = status
	if status == ProjectCompleted && p.CompletedAt == nil {
		p.CompletedAt = &now
	}
}
