package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grownet-api/models"
)

const (
	EventMessageNew = "message:new"

	maxMessageLength    = 2000
	defaultMessagePage  = 50
	maxMessagePageLimit = 100
)

type ConversationReader interface {
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]models.Message, error)
}

// ConversationService serves the private threads provisioned by matches.
type ConversationService struct {
	conversations ConversationReader
	notifications NotificationSink
	push          RealtimePush
}

func NewConversationService(conversations ConversationReader, notifications NotificationSink, push RealtimePush) *ConversationService {
	return &ConversationService{conversations: conversations, notifications: notifications, push: push}
}

func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

// Get returns the conversation if userID participates in it.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotFound
	}
	return conv, nil
}

// SendMessage appends a message and tells the other participant.
func (s *ConversationService) SendMessage(ctx context.Context, userID, conversationID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxMessageLength {
		return nil, fmt.Errorf("%w: message must be 1-%d characters", ErrInvalidInput, maxMessageLength)
	}

	conv, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       userID,
		Body:           body,
		CreatedAt:      time.Now(),
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	for _, id := range conv.ParticipantIDs {
		if id == userID {
			continue
		}
		if s.push != nil {
			if err := s.push.EmitToUser(id, EventMessageNew, msg); err != nil {
				logPushFailure(EventMessageNew, id, err)
			}
		}
		if s.notifications != nil {
			if err := s.notifications.Create(ctx, models.CreateNotificationParams{
				Type:         models.NotificationTypeMessage,
				ActorUserID:  userID,
				TargetUserID: id,
				RelatedID:    conv.ID,
			}); err != nil {
				logSideEffect("notification", err)
			}
		}
	}

	return msg, nil
}

// ListMessages pages backwards through a conversation, newest first.
func (s *ConversationService) ListMessages(ctx context.Context, userID, conversationID string, before *time.Time, limit int) ([]models.Message, error) {
	if limit < 1 || limit > maxMessagePageLimit {
		limit = defaultMessagePage
	}
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.conversations.ListMessages(ctx, conversationID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}
