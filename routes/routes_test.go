package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"grownet-api/config"
	"grownet-api/database"
	"grownet-api/realtime"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Initialize("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		AllowedOrigins:   []string{"*"},
		ConnectRateLimit: 600,
		ConnectRateBurst: 100,
	}
	registry := realtime.NewPresenceRegistry()

	r := gin.New()
	SetupRoutes(r, db, cfg, registry, registry, nil)
	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

// register returns the new user's token and id.
func (s *testServer) register(name, email, role string) (string, string) {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "Password1!", "role": role,
	})
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %v", email, code, body)
	}
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func TestConnectionFlowEndToEnd(t *testing.T) {
	s := newTestServer(t)
	aliceToken, aliceID := s.register("Alice Mentor", "alice@example.com", "mentor")
	bobToken, bobID := s.register("Bob Mentee", "bob@example.com", "mentee")

	code, _ := s.do(http.MethodPost, "/api/v1/connections/request/"+aliceID, aliceToken, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("self request: expected 400, got %d", code)
	}
	code, _ = s.do(http.MethodPost, "/api/v1/connections/request/missing-user", aliceToken, nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", code)
	}

	code, body := s.do(http.MethodPost, "/api/v1/connections/request/"+bobID, aliceToken, nil)
	if code != http.StatusCreated || body["matched"] != false {
		t.Fatalf("request: %d %v", code, body)
	}
	code, _ = s.do(http.MethodPost, "/api/v1/connections/request/"+bobID, aliceToken, nil)
	if code != http.StatusConflict {
		t.Fatalf("duplicate request: expected 409, got %d", code)
	}

	code, body = s.do(http.MethodGet, "/api/v1/connections/requests", bobToken, nil)
	if code != http.StatusOK || body["total"] != float64(1) {
		t.Fatalf("incoming requests: %d %v", code, body)
	}
	code, body = s.do(http.MethodGet, "/api/v1/connections/status/"+aliceID, bobToken, nil)
	if code != http.StatusOK || body["state"] != "pending_received" {
		t.Fatalf("status: %d %v", code, body)
	}

	// Bob asks back instead of accepting: that is a match.
	code, body = s.do(http.MethodPost, "/api/v1/connections/request/"+aliceID, bobToken, nil)
	if code != http.StatusOK || body["matched"] != true {
		t.Fatalf("mutual request: %d %v", code, body)
	}
	conv, ok := body["conversation"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected conversation in %v", body)
	}
	convID := conv["id"].(string)

	code, _ = s.do(http.MethodPost, "/api/v1/connections/request/"+bobID, aliceToken, nil)
	if code != http.StatusConflict {
		t.Fatalf("already connected: expected 409, got %d", code)
	}

	code, body = s.do(http.MethodGet, "/api/v1/connections/friends", aliceToken, nil)
	if code != http.StatusOK || body["total"] != float64(1) {
		t.Fatalf("friends: %d %v", code, body)
	}

	code, body = s.do(http.MethodPost, "/api/v1/connections/friends/"+aliceID+"/conversation", bobToken, nil)
	if code != http.StatusOK || body["id"] != convID {
		t.Fatalf("open conversation: %d %v", code, body)
	}

	code, _ = s.do(http.MethodPost, "/api/v1/conversations/"+convID+"/messages", bobToken, map[string]string{"body": "Hi Alice!"})
	if code != http.StatusCreated {
		t.Fatalf("send message: %d", code)
	}
	code, body = s.do(http.MethodGet, "/api/v1/conversations/"+convID+"/messages", aliceToken, nil)
	if code != http.StatusOK || len(body["messages"].([]interface{})) != 1 {
		t.Fatalf("list messages: %d %v", code, body)
	}

	// Alice was told about the request's match and the message.
	code, body = s.do(http.MethodGet, "/api/v1/notifications/stats", aliceToken, nil)
	if code != http.StatusOK || body["unread_count"] != float64(2) {
		t.Fatalf("alice stats: %d %v", code, body)
	}
	code, _ = s.do(http.MethodPut, "/api/v1/notifications/read-all", aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("read-all: %d", code)
	}

	code, _ = s.do(http.MethodDelete, "/api/v1/connections/friends/"+bobID, aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("remove friend: %d", code)
	}
	code, body = s.do(http.MethodGet, "/api/v1/connections/status/"+bobID, aliceToken, nil)
	if code != http.StatusOK || body["state"] != "none" {
		t.Fatalf("status after removal: %d %v", code, body)
	}
	code, _ = s.do(http.MethodGet, "/api/v1/conversations/"+convID, aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("conversation must survive removal, got %d", code)
	}
}

func TestAcceptAndRejectEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := s.register("Alice", "alice@example.com", "mentor")
	bobToken, bobID := s.register("Bob", "bob@example.com", "mentee")
	carolToken, carolID := s.register("Carol", "carol@example.com", "mentee")

	_, body := s.do(http.MethodPost, "/api/v1/connections/request/"+bobID, aliceToken, nil)
	toBob := body["connection"].(map[string]interface{})["id"].(string)
	_, body = s.do(http.MethodPost, "/api/v1/connections/request/"+carolID, aliceToken, nil)
	toCarol := body["connection"].(map[string]interface{})["id"].(string)

	code, _ := s.do(http.MethodPut, "/api/v1/connections/accept/"+toBob, aliceToken, nil)
	if code != http.StatusNotFound {
		t.Fatalf("requester accept: expected 404, got %d", code)
	}
	code, body = s.do(http.MethodPut, "/api/v1/connections/accept/"+toBob, bobToken, nil)
	if code != http.StatusOK || body["conversation"] == nil {
		t.Fatalf("accept: %d %v", code, body)
	}
	code, _ = s.do(http.MethodPut, "/api/v1/connections/accept/"+toBob, bobToken, nil)
	if code != http.StatusNotFound {
		t.Fatalf("second accept: expected 404, got %d", code)
	}

	code, _ = s.do(http.MethodDelete, "/api/v1/connections/reject/"+toCarol, carolToken, nil)
	if code != http.StatusOK {
		t.Fatalf("reject: %d", code)
	}
	code, body = s.do(http.MethodGet, "/api/v1/connections/requests/sent", aliceToken, nil)
	if code != http.StatusOK || body["total"] != float64(0) {
		t.Fatalf("sent requests after reject/accept: %d %v", code, body)
	}
}

func TestAuthAndRoleGuards(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/v1/connections/friends", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}

	code, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "Password1!", "role": "admin",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("self-registering as admin: expected 400, got %d", code)
	}

	token, _ := s.register("Dana", "dana@example.com", "mentee")
	code, _ = s.do(http.MethodGet, "/api/v1/metrics", token, nil)
	if code != http.StatusForbidden {
		t.Fatalf("mentee metrics: expected 403, got %d", code)
	}

	code, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Dana Again", "email": "dana@example.com", "password": "Password1!", "role": "mentor",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", code)
	}

	code, body := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "dana@example.com", "password": "Password1!",
	})
	if code != http.StatusOK || body["token"] == nil {
		t.Fatalf("login: %d %v", code, body)
	}
	code, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "dana@example.com", "password": "wrong",
	})
	if code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", code)
	}
}
