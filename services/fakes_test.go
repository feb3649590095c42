package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"grownet-api/models"
)

// memConnections mimics the connection repository, including the unique pair
// key and conditional writes. Returned records are copies.
type memConnections struct {
	mu     sync.Mutex
	byID   map[string]*models.Connection
	byPair map[string]string
	clock  time.Time
}

func newMemConnections() *memConnections {
	return &memConnections{
		byID:   make(map[string]*models.Connection),
		byPair: make(map[string]string),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memConnections) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memConnections) FindByPair(ctx context.Context, a, b string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[models.PairKey(a, b)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m.byID[id]
	return &c, nil
}

func (m *memConnections) FindByID(ctx context.Context, id string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *conn
	return &c, nil
}

func (m *memConnections) Create(ctx context.Context, conn *models.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn.PairKey = models.PairKey(conn.RequesterID, conn.ReceiverID)
	if _, ok := m.byPair[conn.PairKey]; ok {
		return gorm.ErrDuplicatedKey
	}
	now := m.tick()
	conn.CreatedAt, conn.UpdatedAt = now, now
	c := *conn
	m.byID[conn.ID] = &c
	m.byPair[conn.PairKey] = conn.ID
	return nil
}

func (m *memConnections) UpdateStatus(ctx context.Context, id string, from, to models.ConnectionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.byID[id]
	if !ok || conn.Status != from {
		return false, nil
	}
	conn.Status = to
	conn.UpdatedAt = m.tick()
	return true, nil
}

func (m *memConnections) DeleteWithStatus(ctx context.Context, id string, status models.ConnectionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.byID[id]
	if !ok || conn.Status != status {
		return false, nil
	}
	delete(m.byID, id)
	delete(m.byPair, conn.PairKey)
	return true, nil
}

func (m *memConnections) list(match func(*models.Connection) bool) []models.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Connection
	for _, c := range m.byID {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memConnections) ListAccepted(ctx context.Context, userID string) ([]models.Connection, error) {
	return m.list(func(c *models.Connection) bool {
		return c.Involves(userID) && c.Status == models.ConnectionStatusAccepted
	}), nil
}

func (m *memConnections) ListPendingIncoming(ctx context.Context, userID string) ([]models.Connection, error) {
	return m.list(func(c *models.Connection) bool {
		return c.ReceiverID == userID && c.Status == models.ConnectionStatusPending
	}), nil
}

func (m *memConnections) ListPendingOutgoing(ctx context.Context, userID string) ([]models.Connection, error) {
	return m.list(func(c *models.Connection) bool {
		return c.RequesterID == userID && c.Status == models.ConnectionStatusPending
	}), nil
}

func (m *memConnections) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// barrierConnections holds the first n FindByPair callers until all n have
// read, so each of them sees the same snapshot before writing.
type barrierConnections struct {
	*memConnections
	mu      sync.Mutex
	waiting int
	release chan struct{}
}

func newBarrierConnections(n int) *barrierConnections {
	return &barrierConnections{memConnections: newMemConnections(), waiting: n, release: make(chan struct{})}
}

func (b *barrierConnections) FindByPair(ctx context.Context, x, y string) (*models.Connection, error) {
	conn, err := b.memConnections.FindByPair(ctx, x, y)

	b.mu.Lock()
	if b.waiting == 0 {
		b.mu.Unlock()
		return conn, err
	}
	b.waiting--
	if b.waiting == 0 {
		close(b.release)
	}
	b.mu.Unlock()

	<-b.release
	return conn, err
}

type memUsers struct {
	users map[string]*models.User
}

func newMemUsers(ids ...string) *memUsers {
	m := &memUsers{users: make(map[string]*models.User)}
	for _, id := range ids {
		m.users[id] = &models.User{ID: id, Name: "User " + id, Handle: id, Email: id + "@example.com", Role: models.RoleMentee}
	}
	return m
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

type memConversations struct {
	mu      sync.Mutex
	byPair  map[string]*models.Conversation
	created int
	fail    error
}

func newMemConversations() *memConversations {
	return &memConversations{byPair: make(map[string]*models.Conversation)}
}

func (m *memConversations) FindOrCreatePrivate(ctx context.Context, a, b string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	key := models.PairKey(a, b)
	if conv, ok := m.byPair[key]; ok {
		return conv, nil
	}
	m.created++
	conv := &models.Conversation{
		ID:             "conv-" + key,
		Type:           models.ConversationTypePrivate,
		PairKey:        key,
		ParticipantIDs: models.StringSliceType{a, b},
	}
	m.byPair[key] = conv
	return conv, nil
}

func (m *memConversations) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *memConversations) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

type recordedNotifications struct {
	mu     sync.Mutex
	params []models.CreateNotificationParams
	fail   error
}

func (r *recordedNotifications) Create(ctx context.Context, params models.CreateNotificationParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.params = append(r.params, params)
	return nil
}

func (r *recordedNotifications) ofType(t models.NotificationType) []models.CreateNotificationParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CreateNotificationParams
	for _, p := range r.params {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

type pushed struct {
	userID string
	event  string
}

type recordedPush struct {
	mu     sync.Mutex
	events []pushed
	fail   error
}

func (r *recordedPush) EmitToUser(userID, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, pushed{userID: userID, event: event})
	return nil
}

func (r *recordedPush) count(userID, event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.userID == userID && e.event == event {
			n++
		}
	}
	return n
}

type staticPresence map[string]bool

func (p staticPresence) OnlineUsers(ids []string) []string {
	var out []string
	for _, id := range ids {
		if p[id] {
			out = append(out, id)
		}
	}
	return out
}

var errBoom = errors.New("boom")
