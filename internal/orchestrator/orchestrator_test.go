package orchestrator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/taskmind/taskmind-gateway/internal/executor"
	"github.com/taskmind/taskmind-gateway/internal/taskapi"
)

type fakeExec struct {
	mu       sync.Mutex
	requests []executor.ToolRequest
	result   executor.ToolExecutionResult
}

func (f *fakeExec) Execute(ctx context.Context, req executor.ToolRequest) executor.ToolExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result
}

func (f *fakeExec) lastRequest() *executor.ToolRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return &f.requests[len(f.requests)-1]
}

type fakeClassifier struct {
	label string
}

func (f *fakeClassifier) ClassifyIntent(ctx context.Context, input string) string {
	return f.label
}

func TestWelcomeMessageSeeded(t *testing.T) {
	conv := New("u1", &fakeExec{})
	messages := conv.Messages()
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].ID != "welcome" || messages[0].Sender != "ai" {
		t.Errorf("Unexpected welcome message: %+v", messages[0])
	}
	if !strings.Contains(messages[0].Text, "Add a task to buy groceries") {
		t.Errorf("Unexpected welcome text: %q", messages[0].Text)
	}
}

func TestProcessMessageAppendsTurnPair(t *testing.T) {
	exec := &fakeExec{result: executor.ToolExecutionResult{
		Success: true,
		Tasks:   []taskapi.Task{{ID: "1", Title: "A"}, {ID: "2", Title: "B", Completed: true}},
	}}
	conv := New("u1", exec)

	conv.ProcessMessage(context.Background(), "Show my tasks")

	messages := conv.Messages()
	if len(messages) != 3 {
		t.Fatalf("Expected welcome + user + ai, got %d messages", len(messages))
	}
	if messages[1].Sender != "user" || messages[1].Text != "Show my tasks" {
		t.Errorf("Unexpected user message: %+v", messages[1])
	}
	if messages[2].Sender != "ai" {
		t.Errorf("Unexpected reply sender: %+v", messages[2])
	}
	req := exec.lastRequest()
	if req == nil || req.Action != "list_tasks" || req.UserID != "u1" {
		t.Errorf("Unexpected tool request: %+v", req)
	}
	if conv.IsLoading() {
		t.Error("Expected loading=false after turn")
	}
}

func TestClearConversationIdempotent(t *testing.T) {
	conv := New("u1", &fakeExec{result: executor.ToolExecutionResult{Success: true}})
	conv.ProcessMessage(context.Background(), "Show my tasks")

	conv.ClearConversation()
	first := conv.Messages()
	conv.ClearConversation()
	second := conv.Messages()

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected single welcome message after clear, got %d then %d", len(first), len(second))
	}
	if first[0].ID != "welcome" || second[0].ID != "welcome" {
		t.Error("Expected welcome message after clear")
	}
}

type blockingExec struct {
	started chan struct{}
	calls   int32
}

func (b *blockingExec) Execute(ctx context.Context, req executor.ToolRequest) executor.ToolExecutionResult {
	if atomic.AddInt32(&b.calls, 1) == 1 {
		close(b.started)
		<-ctx.Done()
		return executor.ToolExecutionResult{Success: false, Error: ctx.Err().Error()}
	}
	return executor.ToolExecutionResult{Success: true, Tasks: []taskapi.Task{{ID: "1", Title: "B task"}}}
}

func TestNewTurnSupersedesInFlight(t *testing.T) {
	exec := &blockingExec{started: make(chan struct{})}
	conv := New("u1", exec)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conv.ProcessMessage(context.Background(), "Show my tasks")
	}()

	<-exec.started
	conv.ProcessMessage(context.Background(), "Show my tasks again")
	wg.Wait()

	messages := conv.Messages()
	// welcome, user A, user B, ai reply for B; A must not contribute a reply.
	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d: %+v", len(messages), messages)
	}
	aiReplies := 0
	for _, m := range messages[1:] {
		if m.Sender == "ai" {
			aiReplies++
		}
	}
	if aiReplies != 1 {
		t.Errorf("Expected exactly one AI reply, got %d", aiReplies)
	}
	if messages[3].Sender != "ai" {
		t.Errorf("Expected final message to be the reply to B, got %+v", messages[3])
	}
}

func TestClearCancelsInFlightTurn(t *testing.T) {
	exec := &blockingExec{started: make(chan struct{})}
	conv := New("u1", exec)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conv.ProcessMessage(context.Background(), "Show my tasks")
	}()

	<-exec.started
	conv.ClearConversation()
	wg.Wait()

	messages := conv.Messages()
	if len(messages) != 1 || messages[0].ID != "welcome" {
		t.Fatalf("Expected only the welcome message, got %+v", messages)
	}
	if conv.IsLoading() {
		t.Error("Expected loading=false after clear")
	}
}

func TestCallbacksFire(t *testing.T) {
	created := []taskapi.Task{}
	exec := &fakeExec{result: executor.ToolExecutionResult{
		Success: true,
		Task:    &taskapi.Task{ID: "9", Title: "buy groceries"},
	}}
	conv := New("u1", exec, WithCallbacks(Callbacks{
		OnTaskCreated: func(task taskapi.Task) { created = append(created, task) },
	}))

	conv.ProcessMessage(context.Background(), "Add a task to buy groceries")

	if len(created) != 1 || created[0].ID != "9" {
		t.Errorf("Expected OnTaskCreated with task 9, got %+v", created)
	}
}

func TestCallbacksSkippedOnFailure(t *testing.T) {
	fired := false
	exec := &fakeExec{result: executor.ToolExecutionResult{Success: false, Error: "nope"}}
	conv := New("u1", exec, WithCallbacks(Callbacks{
		OnTaskCreated: func(task taskapi.Task) { fired = true },
	}))

	conv.ProcessMessage(context.Background(), "Add a task to buy groceries")
	if fired {
		t.Error("Expected no callback on failed turn")
	}
}

func TestClassifierOverridesLowConfidence(t *testing.T) {
	exec := &fakeExec{result: executor.ToolExecutionResult{Success: true}}
	conv := New("u1", exec, WithClassifier(&fakeClassifier{label: "SEARCH_TASKS"}))

	// "my tasks" parses as LIST_TASKS with low confidence.
	conv.ProcessMessage(context.Background(), "my tasks")

	req := exec.lastRequest()
	if req == nil || req.Action != "search_tasks" {
		t.Errorf("Expected classifier override to search_tasks, got %+v", req)
	}
}

func TestClassifierNeverOverridesUnknown(t *testing.T) {
	exec := &fakeExec{result: executor.ToolExecutionResult{Success: true}}
	conv := New("u1", exec, WithClassifier(&fakeClassifier{label: "CREATE_TASK"}))

	// UNKNOWN carries confidence 1.0, above the override gate.
	conv.ProcessMessage(context.Background(), "xyzzy plugh")

	req := exec.lastRequest()
	if req == nil || req.Action != "unknown" {
		t.Errorf("Expected unknown action to stand, got %+v", req)
	}
}

type panickingExec struct{}

func (panickingExec) Execute(ctx context.Context, req executor.ToolRequest) executor.ToolExecutionResult {
	panic("boom")
}

func TestApologyOnPanic(t *testing.T) {
	conv := New("u1", panickingExec{})
	conv.ProcessMessage(context.Background(), "Show my tasks")

	messages := conv.Messages()
	last := messages[len(messages)-1]
	if last.Sender != "ai" || last.Text != apologyText {
		t.Errorf("Expected apology reply, got %+v", last)
	}
}
