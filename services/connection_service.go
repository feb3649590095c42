package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grownet-api/metrics"
	"grownet-api/models"
)

// Realtime event names pushed by the connection engine.
const (
	EventConnectionRequest  = "connection:request"
	EventConnectionMatched  = "connection:matched"
	EventConnectionAccepted = "connection:accepted"
)

// maxWriteAttempts bounds how often a send is re-read after losing a write race.
const maxWriteAttempts = 3

// ConnectionStore persists connection records. Lookups return
// gorm.ErrRecordNotFound when nothing matches and Create returns
// gorm.ErrDuplicatedKey when a record for the pair already exists.
type ConnectionStore interface {
	FindByPair(ctx context.Context, a, b string) (*models.Connection, error)
	FindByID(ctx context.Context, id string) (*models.Connection, error)
	Create(ctx context.Context, conn *models.Connection) error
	UpdateStatus(ctx context.Context, id string, from, to models.ConnectionStatus) (bool, error)
	DeleteWithStatus(ctx context.Context, id string, status models.ConnectionStatus) (bool, error)
	ListAccepted(ctx context.Context, userID string) ([]models.Connection, error)
	ListPendingIncoming(ctx context.Context, userID string) ([]models.Connection, error)
	ListPendingOutgoing(ctx context.Context, userID string) ([]models.Connection, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type ConversationStore interface {
	FindOrCreatePrivate(ctx context.Context, a, b string) (*models.Conversation, error)
}

type NotificationSink interface {
	Create(ctx context.Context, params models.CreateNotificationParams) error
}

type RealtimePush interface {
	EmitToUser(userID, event string, payload interface{}) error
}

type PresenceChecker interface {
	OnlineUsers(userIDs []string) []string
}

// MatchResult is the outcome of sendRequest and acceptRequest.
type MatchResult struct {
	Connection   *models.Connection   `json:"connection"`
	Matched      bool                 `json:"matched"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
}

// ConnectionService owns the connection lifecycle between two users: request,
// mutual match, accept, reject and removal. All mutation of connection records
// goes through it.
type ConnectionService struct {
	connections   ConnectionStore
	users         UserDirectory
	conversations ConversationStore
	notifications NotificationSink
	push          RealtimePush
	presence      PresenceChecker
}

func NewConnectionService(
	connections ConnectionStore,
	users UserDirectory,
	conversations ConversationStore,
	notifications NotificationSink,
	push RealtimePush,
	presence PresenceChecker,
) *ConnectionService {
	return &ConnectionService{
		connections:   connections,
		users:         users,
		conversations: conversations,
		notifications: notifications,
		push:          push,
		presence:      presence,
	}
}

// SendRequest asks targetID to connect with actorID. If targetID already has
// a pending request out to actorID the two are matched immediately.
func (s *ConnectionService) SendRequest(ctx context.Context, actorID, targetID string) (*MatchResult, error) {
	if actorID == targetID {
		metrics.ConnectionOutcomes.WithLabelValues("send", "self").Inc()
		return nil, ErrInvalidOperation
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup target user: %w", err)
	}

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		existing, err := s.connections.FindByPair(ctx, actorID, targetID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup connection: %w", err)
		}

		if existing == nil {
			result, err := s.createRequest(ctx, actorID, targetID)
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// The other side inserted first; re-read and classify their row.
				log.Printf("Connection insert for %s -> %s lost a race (attempt %d), retrying as read", actorID, targetID, attempt)
				metrics.RaceRetries.Inc()
				continue
			}
			return result, err
		}

		switch {
		case existing.Status == models.ConnectionStatusAccepted:
			metrics.ConnectionOutcomes.WithLabelValues("send", "already_connected").Inc()
			return nil, ErrAlreadyConnected
		case existing.Status == models.ConnectionStatusPending && existing.RequesterID == actorID:
			metrics.ConnectionOutcomes.WithLabelValues("send", "duplicate").Inc()
			return nil, ErrDuplicateRequest
		case existing.Status == models.ConnectionStatusPending && existing.RequesterID == targetID:
			result, err := s.match(ctx, existing, actorID, models.NotificationTypeConnectionMatched, EventConnectionMatched)
			if errors.Is(err, errStale) {
				log.Printf("Connection %s changed during match (attempt %d), re-reading", existing.ID, attempt)
				metrics.RaceRetries.Inc()
				continue
			}
			if err == nil {
				metrics.ConnectionOutcomes.WithLabelValues("send", "matched").Inc()
			}
			return result, err
		default:
			metrics.ConnectionOutcomes.WithLabelValues("send", "already_connected").Inc()
			return nil, ErrAlreadyConnected
		}
	}

	return nil, fmt.Errorf("connection %s -> %s still contended after %d attempts", actorID, targetID, maxWriteAttempts)
}

func (s *ConnectionService) createRequest(ctx context.Context, actorID, targetID string) (*MatchResult, error) {
	conn := &models.Connection{
		ID:          uuid.New().String(),
		RequesterID: actorID,
		ReceiverID:  targetID,
		Status:      models.ConnectionStatusPending,
	}
	if err := s.connections.Create(ctx, conn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		return nil, fmt.Errorf("create connection: %w", err)
	}

	s.notify(ctx, models.CreateNotificationParams{
		Type:         models.NotificationTypeConnectionRequest,
		ActorUserID:  actorID,
		TargetUserID: targetID,
		RelatedID:    conn.ID,
	})
	s.emit(targetID, EventConnectionRequest, conn)

	metrics.ConnectionOutcomes.WithLabelValues("send", "created").Inc()
	return &MatchResult{Connection: conn}, nil
}

// errStale means a conditional write found the record already moved on.
var errStale = errors.New("connection changed concurrently")

// match flips a pending record to accepted, provisions the pair's private
// conversation and tells the original requester. actorID is the receiver.
func (s *ConnectionService) match(ctx context.Context, conn *models.Connection, actorID string, kind models.NotificationType, event string) (*MatchResult, error) {
	ok, err := s.connections.UpdateStatus(ctx, conn.ID, models.ConnectionStatusPending, models.ConnectionStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("accept connection: %w", err)
	}
	if !ok {
		return nil, errStale
	}
	conn.Status = models.ConnectionStatusAccepted
	conn.UpdatedAt = time.Now()

	result := &MatchResult{Connection: conn, Matched: true}

	conv, err := s.conversations.FindOrCreatePrivate(ctx, conn.RequesterID, conn.ReceiverID)
	if err != nil {
		// The match stands; OpenConversation provisions the thread later.
		logSideEffect("conversation", fmt.Errorf("connection %s: %w", conn.ID, err))
	} else {
		result.Conversation = conv
	}

	s.notify(ctx, models.CreateNotificationParams{
		Type:         kind,
		ActorUserID:  actorID,
		TargetUserID: conn.RequesterID,
		RelatedID:    conn.ID,
	})
	s.emit(conn.RequesterID, event, result)

	return result, nil
}

// AcceptRequest accepts a pending request addressed to actorID.
func (s *ConnectionService) AcceptRequest(ctx context.Context, actorID, connectionID string) (*MatchResult, error) {
	conn, err := s.pendingFor(ctx, actorID, connectionID)
	if err != nil {
		metrics.ConnectionOutcomes.WithLabelValues("accept", "not_found").Inc()
		return nil, err
	}

	result, err := s.match(ctx, conn, actorID, models.NotificationTypeConnectionAccepted, EventConnectionAccepted)
	if errors.Is(err, errStale) {
		metrics.ConnectionOutcomes.WithLabelValues("accept", "not_found").Inc()
		return nil, ErrNotFound
	}
	if err == nil {
		metrics.ConnectionOutcomes.WithLabelValues("accept", "accepted").Inc()
	}
	return result, err
}

// RejectRequest silently deletes a pending request addressed to actorID.
func (s *ConnectionService) RejectRequest(ctx context.Context, actorID, connectionID string) error {
	conn, err := s.pendingFor(ctx, actorID, connectionID)
	if err != nil {
		metrics.ConnectionOutcomes.WithLabelValues("reject", "not_found").Inc()
		return err
	}

	ok, err := s.connections.DeleteWithStatus(ctx, conn.ID, models.ConnectionStatusPending)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if !ok {
		metrics.ConnectionOutcomes.WithLabelValues("reject", "not_found").Inc()
		return ErrNotFound
	}

	metrics.ConnectionOutcomes.WithLabelValues("reject", "rejected").Inc()
	return nil
}

// pendingFor loads a pending record whose receiver is actorID. Every other
// shape is reported as ErrNotFound.
func (s *ConnectionService) pendingFor(ctx context.Context, actorID, connectionID string) (*models.Connection, error) {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup connection: %w", err)
	}
	if conn.Status != models.ConnectionStatusPending || conn.ReceiverID != actorID {
		return nil, ErrNotFound
	}
	return conn, nil
}

// RemoveFriend deletes the accepted connection between actorID and otherID.
// The pair's conversation and messages are kept.
func (s *ConnectionService) RemoveFriend(ctx context.Context, actorID, otherID string) error {
	conn, err := s.acceptedBetween(ctx, actorID, otherID)
	if err != nil {
		metrics.ConnectionOutcomes.WithLabelValues("remove", "not_found").Inc()
		return err
	}

	ok, err := s.connections.DeleteWithStatus(ctx, conn.ID, models.ConnectionStatusAccepted)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if !ok {
		metrics.ConnectionOutcomes.WithLabelValues("remove", "not_found").Inc()
		return ErrNotFound
	}

	metrics.ConnectionOutcomes.WithLabelValues("remove", "removed").Inc()
	return nil
}

func (s *ConnectionService) acceptedBetween(ctx context.Context, actorID, otherID string) (*models.Connection, error) {
	if actorID == otherID {
		return nil, ErrNotFound
	}
	conn, err := s.connections.FindByPair(ctx, actorID, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup connection: %w", err)
	}
	if conn.Status != models.ConnectionStatusAccepted {
		return nil, ErrNotFound
	}
	return conn, nil
}

// ListFriends returns the profiles of everyone actorID is connected with.
func (s *ConnectionService) ListFriends(ctx context.Context, actorID string) ([]models.UserSummary, error) {
	conns, err := s.connections.ListAccepted(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	friends := make([]models.UserSummary, 0, len(conns))
	for i := range conns {
		user, err := s.otherUser(ctx, &conns[i], actorID)
		if err != nil {
			log.Printf("Skipping friend of %s on connection %s: %v", actorID, conns[i].ID, err)
			continue
		}
		friends = append(friends, user.Summary())
	}
	return friends, nil
}

// OnlineFriends returns the subset of friends with an open realtime socket.
func (s *ConnectionService) OnlineFriends(ctx context.Context, actorID string) ([]models.UserSummary, error) {
	friends, err := s.ListFriends(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if s.presence == nil || len(friends) == 0 {
		return []models.UserSummary{}, nil
	}

	ids := make([]string, len(friends))
	for i, f := range friends {
		ids[i] = f.ID
	}
	online := make(map[string]bool)
	for _, id := range s.presence.OnlineUsers(ids) {
		online[id] = true
	}

	out := make([]models.UserSummary, 0, len(online))
	for _, f := range friends {
		if online[f.ID] {
			out = append(out, f)
		}
	}
	return out, nil
}

// ListPendingIncoming returns requests waiting on actorID, newest first.
func (s *ConnectionService) ListPendingIncoming(ctx context.Context, actorID string) ([]models.PendingRequestResponse, error) {
	conns, err := s.connections.ListPendingIncoming(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return s.pendingResponses(ctx, conns, actorID), nil
}

// ListPendingOutgoing returns requests actorID sent that are still pending.
func (s *ConnectionService) ListPendingOutgoing(ctx context.Context, actorID string) ([]models.PendingRequestResponse, error) {
	conns, err := s.connections.ListPendingOutgoing(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	return s.pendingResponses(ctx, conns, actorID), nil
}

func (s *ConnectionService) pendingResponses(ctx context.Context, conns []models.Connection, actorID string) []models.PendingRequestResponse {
	out := make([]models.PendingRequestResponse, 0, len(conns))
	for i := range conns {
		user, err := s.otherUser(ctx, &conns[i], actorID)
		if err != nil {
			log.Printf("Skipping request %s: %v", conns[i].ID, err)
			continue
		}
		out = append(out, models.PendingRequestResponse{
			ID:        conns[i].ID,
			User:      user.Summary(),
			Status:    conns[i].Status,
			CreatedAt: conns[i].CreatedAt,
		})
	}
	return out
}

// otherUser resolves the participant that is not actorID, using preloaded
// relations when the store provided them.
func (s *ConnectionService) otherUser(ctx context.Context, conn *models.Connection, actorID string) (*models.User, error) {
	if conn.RequesterID == actorID && conn.Receiver != nil {
		return conn.Receiver, nil
	}
	if conn.ReceiverID == actorID && conn.Requester != nil {
		return conn.Requester, nil
	}
	return s.users.FindByID(ctx, conn.OtherParty(actorID))
}

// Status describes the relationship between actorID and otherID from the
// actor's side.
func (s *ConnectionService) Status(ctx context.Context, actorID, otherID string) (*models.ConnectionStatusResponse, error) {
	if actorID == otherID {
		return nil, ErrInvalidOperation
	}

	conn, err := s.connections.FindByPair(ctx, actorID, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.ConnectionStatusResponse{State: models.ConnectionStateNone}, nil
		}
		return nil, fmt.Errorf("lookup connection: %w", err)
	}

	resp := &models.ConnectionStatusResponse{ConnectionID: conn.ID}
	switch {
	case conn.Status == models.ConnectionStatusAccepted:
		resp.State = models.ConnectionStateConnected
	case conn.Status == models.ConnectionStatusPending && conn.RequesterID == actorID:
		resp.State = models.ConnectionStatePendingSent
	case conn.Status == models.ConnectionStatusPending:
		resp.State = models.ConnectionStatePendingReceived
	default:
		resp.State = models.ConnectionStateNone
		resp.ConnectionID = ""
	}
	return resp, nil
}

// OpenConversation returns the private conversation with a connected user,
// creating it if the match never provisioned one.
func (s *ConnectionService) OpenConversation(ctx context.Context, actorID, otherID string) (*models.Conversation, error) {
	conn, err := s.acceptedBetween(ctx, actorID, otherID)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversations.FindOrCreatePrivate(ctx, conn.RequesterID, conn.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("provision conversation: %w", err)
	}
	return conv, nil
}

func (s *ConnectionService) notify(ctx context.Context, params models.CreateNotificationParams) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Create(ctx, params); err != nil {
		logSideEffect("notification", fmt.Errorf("%s for %s: %w", params.Type, params.TargetUserID, err))
	}
}

func (s *ConnectionService) emit(userID, event string, payload interface{}) {
	if s.push == nil {
		return
	}
	if err := s.push.EmitToUser(userID, event, payload); err != nil {
		logPushFailure(event, userID, err)
	}
}
