package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskmind/taskmind-gateway/internal/executor"
	"github.com/taskmind/taskmind-gateway/internal/intent"
	"github.com/taskmind/taskmind-gateway/internal/logging"
	"github.com/taskmind/taskmind-gateway/internal/metrics"
	"github.com/taskmind/taskmind-gateway/internal/reply"
	"github.com/taskmind/taskmind-gateway/internal/taskapi"
)

const welcomeText = `Hello! I'm your AI assistant. You can ask me to add, update, or manage your tasks. Try saying "Add a task to buy groceries"`

const apologyText = "Sorry, I encountered an error processing your request. Could you please try again?"

// Message is one entry in the conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"` // "user" or "ai"
	Timestamp time.Time `json:"timestamp"`
}

// ToolExecutor runs one tool request per turn.
type ToolExecutor interface {
	Execute(ctx context.Context, req executor.ToolRequest) executor.ToolExecutionResult
}

// Classifier is the optional second opinion on intent. Implementations
// return "UNKNOWN" when they have nothing to add.
type Classifier interface {
	ClassifyIntent(ctx context.Context, input string) string
}

// Rephraser optionally rewrites a reply into more natural phrasing.
type Rephraser interface {
	GenerateNaturalResponse(ctx context.Context, userInput, baseMessage string) string
}

// Callbacks fire after a successful turn mutates task state. All fields
// are optional.
type Callbacks struct {
	OnTaskCreated func(task taskapi.Task)
	OnTaskUpdate  func(task taskapi.Task)
	OnTaskDeleted func(taskID string)
}

// Conversation drives the intent pipeline for one user and holds the
// transcript. A new user turn supersedes any turn still in flight: the
// superseded turn appends nothing and fires no callbacks.
type Conversation struct {
	userID     string
	exec       ToolExecutor
	classifier Classifier
	rephraser  Rephraser
	callbacks  Callbacks
	threshold  float64
	logger     *slog.Logger

	mu         sync.Mutex
	messages   []Message
	loading    bool
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithClassifier enables classifier overrides for low-confidence parses.
func WithClassifier(c Classifier) Option {
	return func(conv *Conversation) { conv.classifier = c }
}

// WithRephraser enables natural-language rewriting of replies.
func WithRephraser(r Rephraser) Option {
	return func(conv *Conversation) { conv.rephraser = r }
}

// WithCallbacks registers task mutation callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(conv *Conversation) { conv.callbacks = cb }
}

// WithConfidenceThreshold overrides the default 0.8 gate.
func WithConfidenceThreshold(threshold float64) Option {
	return func(conv *Conversation) { conv.threshold = threshold }
}

func New(userID string, exec ToolExecutor, opts ...Option) *Conversation {
	conv := &Conversation{
		userID:    userID,
		exec:      exec,
		threshold: 0.8,
		logger:    logging.WithComponent("orchestrator"),
	}
	for _, opt := range opts {
		opt(conv)
	}
	conv.messages = []Message{welcomeMessage()}
	return conv
}

func welcomeMessage() Message {
	return Message{
		ID:        "welcome",
		Text:      welcomeText,
		Sender:    "ai",
		Timestamp: time.Now(),
	}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// MessagesSince returns the messages appended after index n.
func (c *Conversation) MessagesSince(n int) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= len(c.messages) {
		return nil
	}
	out := make([]Message, len(c.messages)-n)
	copy(out, c.messages[n:])
	return out
}

// IsLoading reports whether a turn is in flight.
func (c *Conversation) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ClearConversation cancels any in-flight turn and resets the transcript
// to the single welcome message. Calling it twice is a no-op the second
// time apart from the fresh timestamp.
func (c *Conversation) ClearConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.loading = false
	c.messages = []Message{welcomeMessage()}
}

// ProcessMessage runs one full turn: parse, optionally reclassify,
// execute, format, append the reply, and fire callbacks. It blocks until
// the turn finishes or is superseded by a newer one.
func (c *Conversation) ProcessMessage(ctx context.Context, input string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	turnCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.generation++
	gen := c.generation
	c.messages = append(c.messages, Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Text:      input,
		Sender:    "user",
		Timestamp: time.Now(),
	})
	c.loading = true
	c.mu.Unlock()

	start := time.Now()
	replyText, intentType, toolResult := c.runTurn(turnCtx, input)

	c.mu.Lock()
	if gen != c.generation {
		// Superseded by a newer turn or a clear; discard silently.
		c.mu.Unlock()
		return
	}
	c.loading = false
	c.cancel = nil
	cancel()
	c.messages = append(c.messages, Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Text:      replyText,
		Sender:    "ai",
		Timestamp: time.Now(),
	})
	callbacks := c.callbacks
	c.mu.Unlock()

	status := "ok"
	if !toolResult.Success {
		status = "failed"
	}
	metrics.TurnsTotal.WithLabelValues(string(intentType), status).Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())

	if toolResult.Success {
		switch intentType {
		case intent.TypeCreateTask:
			if toolResult.Task != nil && callbacks.OnTaskCreated != nil {
				callbacks.OnTaskCreated(*toolResult.Task)
			}
		case intent.TypeUpdateTask:
			if toolResult.Task != nil && callbacks.OnTaskUpdate != nil {
				callbacks.OnTaskUpdate(*toolResult.Task)
			}
		case intent.TypeDeleteTask:
			if toolResult.TaskID != "" && callbacks.OnTaskDeleted != nil {
				callbacks.OnTaskDeleted(toolResult.TaskID)
			}
		}
	}
}

// runTurn executes the pipeline for one input. A panic anywhere in the
// pipeline collapses to the apology reply instead of taking down the
// conversation.
func (c *Conversation) runTurn(ctx context.Context, input string) (replyText string, intentType intent.Type, toolResult executor.ToolExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Turn panicked", "panic", r)
			replyText = apologyText
			intentType = intent.TypeUnknown
			toolResult = executor.ToolExecutionResult{Success: false}
		}
	}()

	isUrdu := intent.IsUrdu(input)
	parsed := intent.Parse(input)

	if c.classifier != nil && parsed.Confidence < c.threshold {
		label := c.classifier.ClassifyIntent(ctx, input)
		if mapped, ok := intent.FromLabel(label); ok && mapped != parsed.Intent {
			c.logger.Debug("Classifier override", "from", parsed.Intent, "to", mapped)
			metrics.ClassifierOverrides.Inc()
			parsed.Intent = mapped
		}
	}

	req := executor.ToolRequest{
		Action: parsed.Intent.Action(),
		UserID: c.userID,
		Params: parsed.Entities,
	}
	result := c.exec.Execute(ctx, req)

	text := reply.FormatWithLanguage(result, parsed.Intent, isUrdu)
	if c.rephraser != nil && result.Success && !isUrdu {
		text = c.rephraser.GenerateNaturalResponse(ctx, input, text)
	}
	return text, parsed.Intent, result
}
