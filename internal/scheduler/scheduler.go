package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskmind/taskmind-gateway/internal/logging"
)

// TokenRefresher renews the access token before it expires.
type TokenRefresher interface {
	AccessToken() string
	IsExpired() bool
	Refresh(ctx context.Context) error
}

// Scheduler runs periodic maintenance jobs, currently just proactive
// token refresh so long-idle sessions do not hit a 401 on their next turn.
type Scheduler struct {
	cron   *cron.Cron
	tokens TokenRefresher
	logger *slog.Logger
}

func New(tokens TokenRefresher) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		tokens: tokens,
		logger: logging.WithComponent("scheduler"),
	}
	s.scheduleTokenRefresh()
	return s
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) scheduleTokenRefresh() {
	_, err := s.cron.AddFunc("@every 10m", func() {
		if s.tokens.AccessToken() == "" {
			return
		}
		if !s.tokens.IsExpired() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.tokens.Refresh(ctx); err != nil {
			s.logger.Warn("Scheduled token refresh failed", "error", err)
		}
	})
	if err != nil {
		s.logger.Error("Failed to schedule token refresh", "error", err)
	}
}
