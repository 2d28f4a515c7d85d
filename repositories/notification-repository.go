package repositories

import (
	"fmt"
	"os"
	"time"

	"github.com/gocql/gocql"

	"taskflow/backend/logging"
	"taskflow/backend/models"
)

// NotificationRepo stores per-user notification feeds in Cassandra.
type NotificationRepo struct {
	session *gocql.Session
}

// NewNotificationRepo connects to Cassandra, creating the keyspace and
// table on first use.
func NewNotificationRepo() (*NotificationRepo, error) {
	host := os.Getenv("CASS_DB")
	if host == "" {
		host = "127.0.0.1"
	}

	cluster := gocql.NewCluster(host)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra: %v", err)
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS taskflow
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create keyspace: %v", err)
	}
	session.Close()

	cluster.Keyspace = "taskflow"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to taskflow keyspace: %v", err)
	}

	repo := &NotificationRepo{session: session}
	if err := repo.createTable(); err != nil {
		session.Close()
		return nil, err
	}

	logging.Logger.Info("Event ID: CASS_CONNECTED, Description: Connected to Cassandra taskflow keyspace.")
	return repo, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	logging.Logger.Info("Event ID: CASS_SESSION_CLOSED, Description: Cassandra session closed.")
}

func (nr *NotificationRepo) createTable() error {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID,
			user_id TEXT,
			message TEXT,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %v", err)
	}
	return nil
}

func (nr *NotificationRepo) CreateNotification(notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = gocql.TimeUUID().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	return nr.session.Query(
		`INSERT INTO notifications (id, user_id, message, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?)`,
		notification.ID, notification.UserID, notification.Message, notification.CreatedAt, notification.IsRead,
	).Exec()
}

func (nr *NotificationRepo) GetNotificationsByUserID(userID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, message, created_at, is_read
		 FROM notifications WHERE user_id = ?`, userID).Iter()

	var notifications []models.Notification
	var notification models.Notification
	for iter.Scan(&notification.ID, &notification.UserID, &notification.Message,
		&notification.CreatedAt, &notification.IsRead) {
		notifications = append(notifications, notification)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (nr *NotificationRepo) MarkNotificationAsRead(userID, notificationID string, createdAt time.Time) error {
	uuid, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification id: %v", err)
	}

	return nr.session.Query(
		`UPDATE notifications SET is_read = true WHERE user_id = ? AND id = ? AND created_at = ?`,
		userID, uuid, createdAt,
	).Exec()
}

func (nr *NotificationRepo) DeleteNotification(userID, notificationID string, createdAt time.Time) error {
	uuid, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification id: %v", err)
	}

	return nr.session.Query(
		`DELETE FROM notifications WHERE user_id = ? AND id = ? AND created_at = ?`,
		userID, uuid, createdAt,
	).Exec()
}
