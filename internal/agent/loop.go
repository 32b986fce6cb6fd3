package agent

import (
	"context"
	"log/slog"

	"github.com/taskmind/taskmind-gateway/internal/channel"
	"github.com/taskmind/taskmind-gateway/internal/logging"
	"github.com/taskmind/taskmind-gateway/internal/session"
)

// Loop drains channel adapters and feeds each inbound message through the
// user's conversation, then pushes the new assistant replies back out on
// the surface the message came from.
type Loop struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewLoop(sessions *session.Manager) *Loop {
	return &Loop{
		sessions: sessions,
		logger:   logging.WithComponent("agent"),
	}
}

// Run consumes one adapter until its incoming channel closes or the
// context ends. Call it in a goroutine per adapter.
func (l *Loop) Run(ctx context.Context, adapter channel.Adapter) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-adapter.Incoming():
			if !ok {
				return
			}
			l.Process(ctx, msg, adapter)
		}
	}
}

// Process runs one inbound message through the pipeline and sends every
// reply it produced back to the user.
func (l *Loop) Process(ctx context.Context, msg *channel.Message, adapter channel.Adapter) {
	conv := l.sessions.Get(msg.UserID)

	before := len(conv.Messages())
	conv.ProcessMessage(ctx, msg.Content)

	for _, m := range conv.MessagesSince(before) {
		if m.Sender != "ai" {
			continue
		}
		if err := adapter.SendMessage(msg.UserID, &channel.Response{Content: m.Text}); err != nil {
			l.logger.Warn("Failed to send reply", "channel", adapter.Name(), "user_id", msg.UserID, "error", err)
		}
	}
}
