package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"shelfaware/internal/models"
	"shelfaware/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found or already read")

const unreadCountTTL = 60 * time.Second

type NotificationService interface {
	GetUnread(ctx context.Context, userID string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID string, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	rdb  *redis.Client
}

// NewNotificationService builds the service. rdb may be nil; the unread
// counter then always hits the database.
func NewNotificationService(repo repository.NotificationRepository, rdb *redis.Client) NotificationService {
	return &notificationService{repo: repo, rdb: rdb}
}

func (s *notificationService) GetUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.repo.GetUnreadByUser(ctx, userID)
}

// UnreadCount backs the app's badge counter. The count is cached briefly so
// the badge poll does not hammer the database.
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	key := unreadCountKey(userID)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		s.rdb.Set(ctx, key, strconv.FormatInt(count, 10), unreadCountTTL)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID string, notificationID int64) error {
	// Verify notification belongs to user
	notifications, err := s.repo.GetUnreadByUser(ctx, userID)
	if err != nil {
		return err
	}

	found := false
	for _, n := range notifications {
		if n.ID == notificationID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotificationNotFound
	}

	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return err
	}
	s.invalidateCount(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	s.invalidateCount(ctx, userID)
	return nil
}

func (s *notificationService) invalidateCount(ctx context.Context, userID string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, unreadCountKey(userID))
	}
}

func unreadCountKey(userID string) string {
	return "notifications:unread:" + userID
}
