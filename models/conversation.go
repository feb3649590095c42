package models

import "time"

type ConversationType string

const (
	ConversationTypePrivate ConversationType = "private"
)

// Conversation is a messaging thread. Private conversations are keyed by the
// normalized pair key so there is at most one per pair.
type Conversation struct {
	ID             string           `json:"id" gorm:"primaryKey;size:191"`
	Type           ConversationType `json:"type" gorm:"not null;default:'private';size:20"`
	PairKey        string           `json:"-" gorm:"uniqueIndex:uk_conversations_pair;not null;size:383"`
	ParticipantIDs StringSliceType  `json:"participant_ids"`
	LastMessageAt  *time.Time       `json:"last_message_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID             string    `json:"id" gorm:"primaryKey;size:191"`
	ConversationID string    `json:"conversation_id" gorm:"not null;size:191;index:idx_messages_conversation_created,priority:1"`
	SenderID       string    `json:"sender_id" gorm:"not null;size:191"`
	Body           string    `json:"body" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_messages_conversation_created,priority:2"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
