package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"password,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Department string             `bson:"department" json:"department"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	LastLogin  *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidRole reports whether s is one of the known global roles.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleManager || s == RoleAdmin
}
