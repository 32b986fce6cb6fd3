package agent

import (
	"context"
	"testing"
	"time"

	"github.com/taskmind/taskmind-gateway/internal/channel"
	"github.com/taskmind/taskmind-gateway/internal/executor"
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

type fakeAdapter struct {
	incoming chan *channel.Message
	sent     []channel.Response
	sentTo   []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{incoming: make(chan *channel.Message, 10)}
}

func (f *fakeAdapter) Start(ctx context.Context) error { return nil }
func (f *fakeAdapter) Stop() error                     { close(f.incoming); return nil }
func (f *fakeAdapter) Name() string                    { return "fake" }
func (f *fakeAdapter) IsEnabled() bool                 { return true }
func (f *fakeAdapter) Incoming() <-chan *channel.Message {
	return f.incoming
}
func (f *fakeAdapter) SendMessage(userID string, resp *channel.Response) error {
	f.sent = append(f.sent, *resp)
	f.sentTo = append(f.sentTo, userID)
	return nil
}

func TestProcessSendsReply(t *testing.T) {
	sessions := session.NewManager(func(userID string) *orchestrator.Conversation {
		return orchestrator.New(userID, listExec{})
	})
	loop := NewLoop(sessions)
	adapter := newFakeAdapter()

	loop.Process(context.Background(), &channel.Message{
		ID:      "1",
		Channel: "fake",
		UserID:  "u1",
		Content: "Show my tasks",
	}, adapter)

	if len(adapter.sent) != 1 {
		t.Fatalf("Expected 1 reply, got %d", len(adapter.sent))
	}
	if adapter.sentTo[0] != "u1" {
		t.Errorf("Expected reply to u1, got %s", adapter.sentTo[0])
	}
	if adapter.sent[0].Content != "📋 You have 1 task: ⏳ Buy milk" {
		t.Errorf("Unexpected reply %q", adapter.sent[0].Content)
	}
}

func TestRunDrainsUntilClose(t *testing.T) {
	sessions := session.NewManager(func(userID string) *orchestrator.Conversation {
		return orchestrator.New(userID, listExec{})
	})
	loop := NewLoop(sessions)
	adapter := newFakeAdapter()

	adapter.incoming <- &channel.Message{ID: "1", UserID: "u1", Content: "Show my tasks"}
	adapter.incoming <- &channel.Message{ID: "2", UserID: "u2", Content: "Show my tasks"}
	adapter.Stop()

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background(), adapter)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after channel close")
	}

	if len(adapter.sent) != 2 {
		t.Errorf("Expected 2 replies, got %d", len(adapter.sent))
	}
	if sessions.Count() != 2 {
		t.Errorf("Expected 2 conversations, got %d", sessions.Count())
	}
}
