// File: /models/notification.go
package models

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationTypeConnectionRequest  NotificationType = "connection_request"
	NotificationTypeConnectionMatched  NotificationType = "connection_matched"
	NotificationTypeConnectionAccepted NotificationType = "connection_accepted"
	NotificationTypeMessage            NotificationType = "message"
)

type Notification struct {
	ID           string           `json:"id" gorm:"primaryKey;size:191"`
	Type         NotificationType `json:"type" gorm:"not null;size:50"`
	ActorUserID  string           `json:"actor_user_id" gorm:"not null;size:191"`                    // Who performed the action
	TargetUserID string           `json:"target_user_id" gorm:"not null;size:191;index"`             // Who receives the notification
	RelatedID    string           `json:"related_id" gorm:"size:191"`                                // Connection or conversation id
	Message      string           `json:"message" gorm:"size:500"`
	IsRead       bool             `json:"is_read" gorm:"default:false"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// Relationships
	ActorUser *User `json:"actor_user,omitempty" gorm:"foreignKey:ActorUserID"`
}

// NotificationResponse represents the API response for notifications
type NotificationResponse struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	ActorUser *UserSummary     `json:"actor_user,omitempty"`
	RelatedID string           `json:"related_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	Message   string           `json:"message"`
	TimeAgo   string           `json:"time_ago"`
}

// NotificationStats represents notification statistics
type NotificationStats struct {
	UnreadCount int `json:"unread_count"`
	TotalCount  int `json:"total_count"`
}

// PaginatedNotifications represents paginated notification response
type PaginatedNotifications struct {
	Notifications []NotificationResponse `json:"notifications"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	Total         int64                  `json:"total"`
	HasMore       bool                   `json:"has_more"`
	TotalPages    int                    `json:"total_pages"`
}

// CreateNotificationParams for creating new notifications
type CreateNotificationParams struct {
	Type         NotificationType `json:"type"`
	ActorUserID  string           `json:"actor_user_id"`
	TargetUserID string           `json:"target_user_id"`
	RelatedID    string           `json:"related_id,omitempty"`
	Message      string           `json:"message,omitempty"`
}

// DefaultMessage returns the human-readable text for a notification type
func (t NotificationType) DefaultMessage() string {
	switch t {
	case NotificationTypeConnectionRequest:
		return "sent you a connection request"
	case NotificationTypeConnectionMatched:
		return "wants to connect with you too. It's a match!"
	case NotificationTypeConnectionAccepted:
		return "accepted your connection request"
	case NotificationTypeMessage:
		return "sent you a message"
	default:
		return "interacted with you"
	}
}

// GetTimeAgo returns a human-readable time difference
func (n *Notification) GetTimeAgo(now time.Time) string {
	diff := now.Sub(n.CreatedAt)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/(24*7)), "week")
	default:
		return plural(int(diff.Hours()/(24*30)), "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// ToResponse converts Notification to NotificationResponse
func (n *Notification) ToResponse(now time.Time) NotificationResponse {
	response := NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		Message:   n.Message,
		TimeAgo:   n.GetTimeAgo(now),
	}
	if response.Message == "" {
		response.Message = n.Type.DefaultMessage()
	}

	if n.ActorUser != nil {
		summary := n.ActorUser.Summary()
		response.ActorUser = &summary
	}

	return response
}
