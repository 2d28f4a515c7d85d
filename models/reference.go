package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRef is a reference to a user that may be stored as a bare ObjectID or
// arrive expanded as a full user document. Identity comparisons must always
// go through ResolveID.
type UserRef struct {
	ID   primitive.ObjectID
	User *User
}

// NewUserRef builds a bare reference from an id.
func NewUserRef(id primitive.ObjectID) UserRef {
	return UserRef{ID: id}
}

// ResolveID returns the referenced user's id regardless of whether the
// reference is expanded.
func (r UserRef) ResolveID() primitive.ObjectID {
	if r.User != nil {
		return r.User.ID
	}
	return r.ID
}

// Is reports whether the reference points at the given user id.
func (r UserRef) Is(id primitive.ObjectID) bool {
	return r.ResolveID() == id
}

// Expand attaches the full user document to the reference.
func (r *UserRef) Expand(u *User) {
	r.User = u
	if u != nil {
		r.ID = u.ID
	}
}

// MarshalBSONValue always persists the bare id; expansion is an in-memory,
// response-side concern.
func (r UserRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.ResolveID())
}

func (r *UserRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeObjectID:
		return raw.Unmarshal(&r.ID)
	case bson.TypeEmbeddedDocument:
		var u User
		if err := raw.Unmarshal(&u); err != nil {
			return err
		}
		r.User = &u
		r.ID = u.ID
		return nil
	case bson.TypeNull:
		return nil
	}
	return fmt.Errorf("cannot decode %s into a user reference", t)
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(r.User)
	}
	return json.Marshal(r.ID)
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var u User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		r.User = &u
		r.ID = u.ID
		return nil
	}
	return json.Unmarshal(data, &r.ID)
}
