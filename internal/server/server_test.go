package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskmind/taskmind-gateway/internal/config"
	"github.com/taskmind/taskmind-gateway/internal/executor"
	"github.com/taskmind/taskmind-gateway/internal/logging"
	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
	"github.com/taskmind/taskmind-gateway/internal/session"
	"github.com/taskmind/taskmind-gateway/internal/taskapi"
)

type listExec struct{}

func (listExec) Execute(ctx context.Context, req executor.ToolRequest) executor.ToolExecutionResult {
	return executor.ToolExecutionResult{
		Success: true,
		Tasks:   []taskapi.Task{{ID: "1", Title: "Buy milk"}},
	}
}

func newTestServer() *Server {
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 18700},
	}
	sessions := session.NewManager(func(userID string) *orchestrator.Conversation {
		return orchestrator.New(userID, listExec{})
	})
	return New(cfg, sessions, logging.WithComponent("server"))
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
}

func TestChatHandler(t *testing.T) {
	srv := newTestServer()
	body := strings.NewReader(`{"user_id":"u1","message":"Show my tasks"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("Expected user+ai messages, got %d", len(resp.Messages))
	}
	if resp.Messages[1].Sender != "ai" {
		t.Errorf("Expected ai reply, got %+v", resp.Messages[1])
	}
	if !strings.Contains(resp.Messages[1].Text, "Buy milk") {
		t.Errorf("Unexpected reply %q", resp.Messages[1].Text)
	}
}

func TestChatHandlerValidation(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"user_id":"u1"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestConversationGetAndClear(t *testing.T) {
	srv := newTestServer()

	chat := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"user_id":"u1","message":"Show my tasks"}`))
	srv.Handler().ServeHTTP(httptest.NewRecorder(), chat)

	get := httptest.NewRequest(http.MethodGet, "/api/v1/conversation?user_id=u1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, get)
	var resp ConversationResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Messages) != 3 {
		t.Fatalf("Expected welcome+user+ai, got %d", len(resp.Messages))
	}

	del := httptest.NewRequest(http.MethodDelete, "/api/v1/conversation?user_id=u1", nil)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), del)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conversation?user_id=u1", nil))
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "welcome" {
		t.Errorf("Expected only welcome after clear, got %+v", resp.Messages)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("Expected prometheus output")
	}
}
