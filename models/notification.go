package models

import "time"

// Notification is a feed entry for a single user, stored in Cassandra with
// the user id as the partition key.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}
