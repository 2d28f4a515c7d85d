package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProjectIsMember(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	project := Project{
		Owner: NewUserRef(owner),
		Members: []ProjectMember{
			{User: NewUserRef(member), Role: MemberMember},
		},
	}

	assert.True(t, project.IsMember(owner))
	assert.True(t, project.IsMember(member))
	assert.False(t, project.IsMember(outsider))
}

func TestProjectIsMemberWithEmptyMemberList(t *testing.T) {
	owner := primitive.NewObjectID()
	project := Project{Owner: NewUserRef(owner)}

	assert.True(t, project.IsMember(owner))
	assert.False(t, project.IsMember(primitive.NewObjectID()))
}

func TestProjectIsMemberWithExpandedReferences(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()

	ownerRef := UserRef{}
	ownerRef.Expand(&User{ID: owner, Name: "Owner"})
	memberRef := UserRef{}
	memberRef.Expand(&User{ID: member, Name: "Member"})

	project := Project{
		Owner:   ownerRef,
		Members: []ProjectMember{{User: memberRef, Role: MemberViewer}},
	}

	assert.True(t, project.IsMember(owner))
	assert.True(t, project.IsMember(member))
}

func TestProjectCanManage(t *testing.T) {
	owner := primitive.NewObjectID()
	projectAdmin := primitive.NewObjectID()
	regular := primitive.NewObjectID()
	globalAdmin := primitive.NewObjectID()

	project := Project{
		Owner: NewUserRef(owner),
		Members: []ProjectMember{
			{User: NewUserRef(projectAdmin), Role: MemberAdmin},
			{User: NewUserRef(regular), Role: MemberMember},
		},
	}

	assert.True(t, project.CanManage(owner, RoleUser))
	assert.True(t, project.CanManage(projectAdmin, RoleUser))
	assert.True(t, project.CanManage(globalAdmin, RoleAdmin))
	assert.False(t, project.CanManage(regular, RoleUser))
	assert.False(t, project.CanManage(regular, RoleManager))
}

func TestProjectCanView(t *testing.T) {
	owner := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	private := Project{Owner: NewUserRef(owner)}
	assert.True(t, private.CanView(owner, RoleUser))
	assert.False(t, private.CanView(outsider, RoleUser))
	assert.True(t, private.CanView(outsider, RoleAdmin))

	public := Project{Owner: NewUserRef(owner), IsPublic: true}
	assert.True(t, public.CanView(outsider, RoleUser))
}

func TestProjectApplyStatusCompletionIsOneWay(t *testing.T) {
	project := Project{Status: ProjectInProgress}

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	project.ApplyStatus(ProjectCompleted, first)
	require.NotNil(t, project.CompletedAt)
	assert.Equal(t, first, *project.CompletedAt)

	// leaving completed keeps the original timestamp
	project.ApplyStatus(ProjectInProgress, first.Add(time.Hour))
	require.NotNil(t, project.CompletedAt)
	assert.Equal(t, first, *project.CompletedAt)

	// re-completing does not refresh it either
	project.ApplyStatus(ProjectCompleted, first.Add(2*time.Hour))
	assert.Equal(t, first, *project.CompletedAt)
}

func TestValidProjectEnums(t *testing.T) {
	assert.True(t, ValidProjectStatus(ProjectOnHold))
	assert.False(t, ValidProjectStatus("archived"))
	assert.True(t, ValidPriority(PriorityCritical))
	assert.False(t, ValidPriority("urgent"))
	assert.True(t, ValidMemberRole(MemberViewer))
	assert.False(t, ValidMemberRole("owner"))
}
