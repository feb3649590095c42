package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grownet-api/models"
)

const EventNotificationNew = "notification:new"

// dedupeWindow suppresses identical notifications created close together.
const dedupeWindow = time.Hour

type NotificationStore interface {
	HasRecentDuplicate(ctx context.Context, params models.CreateNotificationParams, since time.Time) (bool, error)
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID string, notificationType models.NotificationType, offset, limit int) ([]models.Notification, int64, error)
	Stats(ctx context.Context, userID string) (models.NotificationStats, error)
	MarkAsRead(ctx context.Context, userID, id string) (bool, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Mailer sends connection emails. Implemented by EmailService.
type Mailer interface {
	SendConnectionEmail(to, recipientName, actorName string, kind models.NotificationType) error
}

type NotificationService struct {
	store  NotificationStore
	users  UserDirectory
	push   RealtimePush
	mailer Mailer
	now    func() time.Time
}

// NewNotificationService builds the service. push and mailer may be nil.
func NewNotificationService(store NotificationStore, users UserDirectory, push RealtimePush, mailer Mailer) *NotificationService {
	return &NotificationService{
		store:  store,
		users:  users,
		push:   push,
		mailer: mailer,
		now:    time.Now,
	}
}

// Create stores a notification for the target user and pushes it to any open
// socket. Self notifications and repeats inside the dedupe window are skipped
// without error.
func (s *NotificationService) Create(ctx context.Context, params models.CreateNotificationParams) error {
	if params.ActorUserID == params.TargetUserID {
		return nil
	}

	dup, err := s.store.HasRecentDuplicate(ctx, params, s.now().Add(-dedupeWindow))
	if err != nil {
		return fmt.Errorf("check duplicate notification: %w", err)
	}
	if dup {
		return nil
	}

	message := params.Message
	if message == "" {
		message = params.Type.DefaultMessage()
	}

	notification := &models.Notification{
		ID:           uuid.New().String(),
		Type:         params.Type,
		ActorUserID:  params.ActorUserID,
		TargetUserID: params.TargetUserID,
		RelatedID:    params.RelatedID,
		Message:      message,
	}
	if err := s.store.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	var actor *models.User
	if s.users != nil {
		if u, err := s.users.FindByID(ctx, params.ActorUserID); err == nil {
			actor = u
			notification.ActorUser = u
		}
	}

	if s.push != nil {
		if err := s.push.EmitToUser(params.TargetUserID, EventNotificationNew, notification.ToResponse(s.now())); err != nil {
			logPushFailure(EventNotificationNew, params.TargetUserID, err)
		}
	}

	if s.shouldEmail(params.Type) && actor != nil {
		s.sendEmailAsync(params.TargetUserID, actor.Name, params.Type)
	}

	return nil
}

func (s *NotificationService) shouldEmail(t models.NotificationType) bool {
	if s.mailer == nil || s.users == nil {
		return false
	}
	return t == models.NotificationTypeConnectionMatched || t == models.NotificationTypeConnectionAccepted
}

func (s *NotificationService) sendEmailAsync(targetUserID, actorName string, kind models.NotificationType) {
	go func() {
		target, err := s.users.FindByID(context.Background(), targetUserID)
		if err != nil {
			log.Printf("Failed to load %s for email: %v", targetUserID, err)
			return
		}
		if err := s.mailer.SendConnectionEmail(target.Email, target.Name, actorName, kind); err != nil {
			logSideEffect("email", fmt.Errorf("%s to %s: %w", kind, target.Email, err))
		}
	}()
}

// List returns one page of the user's notifications. page starts at 1 and
// limit is clamped to 1..50 with a default of 20.
func (s *NotificationService) List(ctx context.Context, userID string, notificationType models.NotificationType, page, limit int) (*models.PaginatedNotifications, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := s.store.List(ctx, userID, notificationType, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	now := s.now()
	responses := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse(now))
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &models.PaginatedNotifications{
		Notifications: responses,
		Page:          page,
		Limit:         limit,
		Total:         total,
		HasMore:       page < totalPages,
		TotalPages:    totalPages,
	}, nil
}

func (s *NotificationService) Stats(ctx context.Context, userID string) (models.NotificationStats, error) {
	return s.store.Stats(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	ok, err := s.store.MarkAsRead(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// PurgeRead removes read notifications older than retention.
func (s *NotificationService) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.DeleteReadBefore(ctx, s.now().Add(-retention))
}
