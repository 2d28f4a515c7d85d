package services

import (
	"time"

	"github.com/sony/gobreaker"

	"taskflow/backend/logging"
	"taskflow/backend/models"
	"taskflow/backend/repositories"
)

// NotificationService writes feed entries behind a circuit breaker.
// Notification failures are logged and never fail the triggering operation.
type NotificationService struct {
	Repo    *repositories.NotificationRepo
	Breaker *gobreaker.CircuitBreaker
}

func NewNotificationService(repo *repositories.NotificationRepo, breaker *gobreaker.CircuitBreaker) *NotificationService {
	return &NotificationService{Repo: repo, Breaker: breaker}
}

// Notify appends a message to the user's feed. Best effort.
func (s *NotificationService) Notify(userID, message string) {
	if s == nil || s.Repo == nil {
		return
	}
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		return nil, s.Repo.CreateNotification(&models.Notification{
			UserID:    userID,
			Message:   message,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_WRITE_FAILED, Description: Failed to store notification for user %s: %v", userID, err)
	}
}

// List returns the user's feed, newest first.
func (s *NotificationService) List(userID string) ([]models.Notification, error) {
	result, err := s.Breaker.Execute(func() (interface{}, error) {
		return s.Repo.GetNotificationsByUserID(userID)
	})
	if err != nil {
		return nil, err
	}
	notifications, _ := result.([]models.Notification)
	return notifications, nil
}

// MarkRead flags a single feed entry as read.
func (s *NotificationService) MarkRead(userID, notificationID string, createdAt time.Time) error {
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		return nil, s.Repo.MarkNotificationAsRead(userID, notificationID, createdAt)
	})
	return err
}

// Delete removes a single feed entry.
func (s *NotificationService) Delete(userID, notificationID string, createdAt time.Time) error {
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		return nil, s.Repo.DeleteNotification(userID, notificationID, createdAt)
	})
	return err
}
