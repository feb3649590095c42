package models

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMentor, RoleMentee, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string          `json:"id" gorm:"primaryKey;size:191"`
	Name      string          `json:"name" gorm:"not null;size:255"`
	Handle    string          `json:"handle" gorm:"uniqueIndex;not null;size:50"`
	Email     string          `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string          `json:"-" gorm:"not null;size:255"`
	Role      Role            `json:"role" gorm:"not null;default:'mentee';size:20"`
	Headline  string          `json:"headline" gorm:"size:255"`
	Avatar    *string         `json:"avatar" gorm:"size:500"`
	Skills    StringSliceType `json:"skills"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UserSummary is the public projection of a user shown to other members.
type UserSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Handle   string  `json:"handle"`
	Role     Role    `json:"role"`
	Headline string  `json:"headline,omitempty"`
	Avatar   *string `json:"avatar"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Handle:   u.Handle,
		Role:     u.Role,
		Headline: u.Headline,
		Avatar:   u.Avatar,
	}
}

// GenerateHandleFromName creates a handle from the user's name
func GenerateHandleFromName(name string) string {
	// Convert to lowercase and replace spaces with underscores
	handle := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	// Remove special characters
	handle = strings.ReplaceAll(handle, ".", "")
	handle = strings.ReplaceAll(handle, "-", "_")
	return handle
}
