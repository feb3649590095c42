package models

import "time"

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	// ConnectionStatusBlocked is reserved; no flow transitions into it yet.
	ConnectionStatusBlocked ConnectionStatus = "blocked"
)

// Connection is the single relationship record for an unordered pair of users.
// RequesterID and ReceiverID keep the orientation chosen at creation and are
// never swapped. PairKey is order independent and carries a unique index.
type Connection struct {
	ID          string           `json:"id" gorm:"primaryKey;size:191"`
	PairKey     string           `json:"-" gorm:"uniqueIndex:uk_connections_pair;not null;size:383"`
	RequesterID string           `json:"requester_id" gorm:"not null;size:191;index"`
	ReceiverID  string           `json:"receiver_id" gorm:"not null;size:191;index"`
	Status      ConnectionStatus `json:"status" gorm:"not null;default:'pending';size:20;index"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Requester *User `json:"requester,omitempty" gorm:"foreignKey:RequesterID"`
	Receiver  *User `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID"`
}

// PairKey returns the normalized key for the unordered pair {a, b}.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Involves reports whether userID is one of the two participants.
func (c *Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.ReceiverID == userID
}

// OtherParty returns the participant that is not userID.
func (c *Connection) OtherParty(userID string) string {
	if c.RequesterID == userID {
		return c.ReceiverID
	}
	return c.RequesterID
}

// ConnectionState is the relationship between the caller and another user as
// seen from the caller's side.
type ConnectionState string

const (
	ConnectionStateNone            ConnectionState = "none"
	ConnectionStatePendingSent     ConnectionState = "pending_sent"
	ConnectionStatePendingReceived ConnectionState = "pending_received"
	ConnectionStateConnected       ConnectionState = "connected"
)

type ConnectionStatusResponse struct {
	State        ConnectionState `json:"state"`
	ConnectionID string          `json:"connection_id,omitempty"`
}

// PendingRequestResponse is an incoming or outgoing request with the other
// party's profile attached.
type PendingRequestResponse struct {
	ID        string           `json:"id"`
	User      UserSummary      `json:"user"`
	Status    ConnectionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
