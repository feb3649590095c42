package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"grownet-api/models"
)

type memNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
	clock func() time.Time
}

func (m *memNotificationStore) HasRecentDuplicate(ctx context.Context, p models.CreateNotificationParams, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.Type == p.Type && n.ActorUserID == p.ActorUserID && n.TargetUserID == p.TargetUserID &&
			n.RelatedID == p.RelatedID && n.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.CreatedAt = m.clock()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotificationStore) List(ctx context.Context, userID string, t models.NotificationType, offset, limit int) ([]models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []models.Notification
	for _, n := range m.items {
		if n.TargetUserID == userID && (t == "" || n.Type == t) {
			mine = append(mine, n)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (m *memNotificationStore) Stats(ctx context.Context, userID string) (models.NotificationStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s models.NotificationStats
	for _, n := range m.items {
		if n.TargetUserID == userID {
			s.TotalCount++
			if !n.IsRead {
				s.UnreadCount++
			}
		}
	}
	return s, nil
}

func (m *memNotificationStore) MarkAsRead(ctx context.Context, userID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].TargetUserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotificationStore) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].TargetUserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memNotificationStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].TargetUserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotificationStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int64
	for _, item := range m.items {
		if item.IsRead && item.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return n, nil
}

type sentEmail struct {
	to, recipient, actor string
	kind                 models.NotificationType
}

type chanMailer struct {
	sent chan sentEmail
}

func (c *chanMailer) SendConnectionEmail(to, recipientName, actorName string, kind models.NotificationType) error {
	c.sent <- sentEmail{to: to, recipient: recipientName, actor: actorName, kind: kind}
	return nil
}

type notificationFixture struct {
	svc    *NotificationService
	store  *memNotificationStore
	push   *recordedPush
	mailer *chanMailer
	now    time.Time
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{
		push:   &recordedPush{},
		mailer: &chanMailer{sent: make(chan sentEmail, 4)},
		now:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store = &memNotificationStore{clock: clock}
	f.svc = NewNotificationService(f.store, newMemUsers("alice", "bob"), f.push, f.mailer)
	f.svc.now = clock
	return f
}

func requestParams(related string) models.CreateNotificationParams {
	return models.CreateNotificationParams{
		Type:         models.NotificationTypeConnectionRequest,
		ActorUserID:  "alice",
		TargetUserID: "bob",
		RelatedID:    related,
	}
}

func TestNotificationCreateStoresAndPushes(t *testing.T) {
	f := newNotificationFixture()

	if err := f.svc.Create(context.Background(), requestParams("c1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.store.items) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.store.items))
	}
	got := f.store.items[0]
	if got.Message != models.NotificationTypeConnectionRequest.DefaultMessage() {
		t.Fatalf("expected default message, got %q", got.Message)
	}
	if f.push.count("bob", EventNotificationNew) != 1 {
		t.Fatal("expected notification:new push to bob")
	}
	select {
	case e := <-f.mailer.sent:
		t.Fatalf("request notifications must not email, got %+v", e)
	default:
	}
}

func TestNotificationCreateSkipsSelf(t *testing.T) {
	f := newNotificationFixture()
	p := requestParams("c1")
	p.TargetUserID = "alice"

	if err := f.svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.store.items) != 0 {
		t.Fatal("self notification must be skipped")
	}
}

func TestNotificationCreateDedupesWithinWindow(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.svc.Create(ctx, requestParams("c1")); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if len(f.store.items) != 1 {
		t.Fatalf("expected one notification inside the window, got %d", len(f.store.items))
	}

	// A different related record is a different event.
	if err := f.svc.Create(ctx, requestParams("c2")); err != nil {
		t.Fatal(err)
	}
	if len(f.store.items) != 2 {
		t.Fatalf("expected a second notification, got %d", len(f.store.items))
	}

	f.now = f.now.Add(2 * time.Hour)
	if err := f.svc.Create(ctx, requestParams("c1")); err != nil {
		t.Fatal(err)
	}
	if len(f.store.items) != 3 {
		t.Fatalf("expected a repeat after the window, got %d", len(f.store.items))
	}
}

func TestNotificationCreateEmailsOnMatch(t *testing.T) {
	f := newNotificationFixture()
	p := requestParams("c1")
	p.Type = models.NotificationTypeConnectionMatched

	if err := f.svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case e := <-f.mailer.sent:
		if e.to != "bob@example.com" || e.actor != "User alice" || e.kind != models.NotificationTypeConnectionMatched {
			t.Fatalf("unexpected email %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a match email")
	}
}

func TestNotificationListPaginates(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()

	for i, related := range []string{"a", "b", "c"} {
		f.now = f.now.Add(time.Duration(i+1) * time.Minute)
		if err := f.svc.Create(ctx, requestParams(related)); err != nil {
			t.Fatal(err)
		}
	}

	page, err := f.svc.List(ctx, "bob", "", 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || !page.HasMore || len(page.Notifications) != 2 {
		t.Fatalf("unexpected first page %+v", page)
	}
	if page.Notifications[0].RelatedID != "c" {
		t.Fatalf("expected newest first, got %s", page.Notifications[0].RelatedID)
	}

	last, err := f.svc.List(ctx, "bob", "", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if last.HasMore || len(last.Notifications) != 1 {
		t.Fatalf("unexpected last page %+v", last)
	}

	clamped, err := f.svc.List(ctx, "bob", "", 0, 500)
	if err != nil {
		t.Fatal(err)
	}
	if clamped.Page != 1 || clamped.Limit != 20 {
		t.Fatalf("expected clamped paging, got page=%d limit=%d", clamped.Page, clamped.Limit)
	}
}

func TestNotificationOwnership(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()

	if err := f.svc.Create(ctx, requestParams("c1")); err != nil {
		t.Fatal(err)
	}
	id := f.store.items[0].ID

	if err := f.svc.MarkAsRead(ctx, "alice", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-owner mark read must be ErrNotFound, got %v", err)
	}
	if err := f.svc.Delete(ctx, "alice", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-owner delete must be ErrNotFound, got %v", err)
	}

	if err := f.svc.MarkAsRead(ctx, "bob", id); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	stats, _ := f.svc.Stats(ctx, "bob")
	if stats.UnreadCount != 0 || stats.TotalCount != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := f.svc.Delete(ctx, "bob", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, "bob", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete must be ErrNotFound, got %v", err)
	}
}

func TestNotificationPurgeRead(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()

	if err := f.svc.Create(ctx, requestParams("old")); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Create(ctx, requestParams("unread")); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.MarkAsRead(ctx, "bob", f.store.items[0].ID); err != nil {
		t.Fatal(err)
	}

	f.now = f.now.Add(48 * time.Hour)
	deleted, err := f.svc.PurgeRead(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeRead: %v", err)
	}
	if deleted != 1 || len(f.store.items) != 1 || f.store.items[0].RelatedID != "unread" {
		t.Fatalf("expected only the read notification purged, deleted=%d items=%+v", deleted, f.store.items)
	}
}
