package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow/backend/models"
)

// Resolver expands bare user references into full user documents on
// response payloads.
type Resolver interface {
	Expand(ctx context.Context, refs ...*models.UserRef) error
}

// UserResolver batches reference expansion into a single lookup.
type UserResolver struct {
	UsersCollection *mongo.Collection
}

func NewUserResolver(usersCollection *mongo.Collection) *UserResolver {
	return &UserResolver{UsersCollection: usersCollection}
}

// Expand fills in the user documents for every reference in one query.
// Unknown ids are left bare rather than failing the response.
func (r *UserResolver) Expand(ctx context.Context, refs ...*models.UserRef) error {
	ids := make([]primitive.ObjectID, 0, len(refs))
	seen := make(map[primitive.ObjectID]bool)
	for _, ref := range refs {
		if ref == nil || ref.User != nil {
			continue
		}
		id := ref.ResolveID()
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	cursor, err := r.UsersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to expand user references: %v", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[primitive.ObjectID]*models.User, len(ids))
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return fmt.Errorf("failed to decode user: %v", err)
		}
		user.Password = ""
		u := user
		byID[user.ID] = &u
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	for _, ref := range refs {
		if ref == nil || ref.User != nil {
			continue
		}
		if user, ok := byID[ref.ResolveID()]; ok {
			ref.Expand(user)
		}
	}
	return nil
}

// ExpandProject expands the owner and member references.
func (r *UserResolver) ExpandProject(ctx context.Context, project *models.Project) error {
	refs := []*models.UserRef{&project.Owner}
	for i := range project.Members {
		refs = append(refs, &project.Members[i].User)
	}
	return r.Expand(ctx, refs...)
}

// ExpandTask expands the creator, assignee and watcher references.
func (r *UserResolver) ExpandTask(ctx context.Context, task *models.Task) error {
	refs := []*models.UserRef{&task.Creator}
	if task.Assignee != nil {
		refs = append(refs, task.Assignee)
	}
	for i := range task.Watchers {
		refs = append(refs, &task.Watchers[i])
	}
	return r.Expand(ctx, refs...)
}

// ExpandComments expands author references across a comment page,
// replies included.
func (r *UserResolver) ExpandComments(ctx context.Context, comments []models.Comment) error {
	var refs []*models.UserRef
	for i := range comments {
		refs = append(refs, &comments[i].Author)
		for j := range comments[i].Replies {
			refs = append(refs, &comments[i].Replies[j].Author)
		}
	}
	return r.Expand(ctx, refs...)
}
