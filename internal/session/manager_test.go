package session

import (
	"context"
	"testing"

	"github.com/taskmind/taskmind-gateway/internal/executor"
	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
)

type noopExec struct{}

func (noopExec) Execute(ctx context.Context, req executor.ToolRequest) executor.ToolExecutionResult {
	return executor.ToolExecutionResult{Success: true}
}

func newManager() *Manager {
	return NewManager(func(userID string) *orchestrator.Conversation {
		return orchestrator.New(userID, noopExec{})
	})
}

func TestGetCreatesOnce(t *testing.T) {
	m := newManager()
	first := m.Get("u1")
	second := m.Get("u1")
	if first != second {
		t.Error("Expected the same conversation for repeated Get")
	}
	if m.Count() != 1 {
		t.Errorf("Expected 1 conversation, got %d", m.Count())
	}
}

func TestGetPerUser(t *testing.T) {
	m := newManager()
	if m.Get("u1") == m.Get("u2") {
		t.Error("Expected distinct conversations per user")
	}
	if m.Count() != 2 {
		t.Errorf("Expected 2 conversations, got %d", m.Count())
	}
}

func TestDrop(t *testing.T) {
	m := newManager()
	m.Get("u1")
	m.Drop("u1")
	if m.Count() != 0 {
		t.Errorf("Expected 0 conversations after drop, got %d", m.Count())
	}
	m.Drop("u1") // dropping again is fine
}
