package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskmind/taskmind-gateway/internal/agent"
	"github.com/taskmind/taskmind-gateway/internal/auth"
	"github.com/taskmind/taskmind-gateway/internal/channel"
	"github.com/taskmind/taskmind-gateway/internal/channel/discord"
	"github.com/taskmind/taskmind-gateway/internal/channel/telegram"
	"github.com/taskmind/taskmind-gateway/internal/channel/webchat"
	"github.com/taskmind/taskmind-gateway/internal/classify"
	"github.com/taskmind/taskmind-gateway/internal/config"
	"github.com/taskmind/taskmind-gateway/internal/executor"
	"github.com/taskmind/taskmind-gateway/internal/logging"
	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
	"github.com/taskmind/taskmind-gateway/internal/scheduler"
	"github.com/taskmind/taskmind-gateway/internal/server"
	"github.com/taskmind/taskmind-gateway/internal/session"
	"github.com/taskmind/taskmind-gateway/internal/taskapi"
	"github.com/taskmind/taskmind-gateway/internal/tui"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	tuiFlag := flag.Bool("tui", false, "Launch the interactive chat client instead of the gateway")
	flag.Parse()

	logger := logging.WithComponent("main")
	logger.Info("Starting TaskMind-Gateway", "version", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// Token store for the Task API. Tokens come from the environment; the
	// scheduler keeps the access token fresh from then on.
	tokens := auth.NewStore(cfg.TaskAPI.URL, cfg.TaskAPI.GetTimeout())
	if access := os.Getenv("TASKMIND_ACCESS_TOKEN"); access != "" {
		if err := tokens.SetTokens(access, os.Getenv("TASKMIND_REFRESH_TOKEN")); err != nil {
			logger.Error("Invalid TASKMIND_ACCESS_TOKEN", "error", err)
			os.Exit(1)
		}
		if user, ok := tokens.CurrentUser(); ok {
			logger.Info("Authenticated", "user_id", user.ID)
		}
	} else {
		logger.Warn("No access token configured, turns will ask the user to log in")
	}

	tasks := taskapi.NewClient(cfg.TaskAPI.URL, tokens, cfg.TaskAPI.GetTimeout())
	exec := executor.New(tokens, tasks)

	cohere := classify.NewClient(cfg.Cohere.URL, cfg.Cohere.APIKey, cfg.Cohere.GetTimeout())
	classifier := classify.NewEnhancedClassifier(cohere)
	if cohere.Configured() {
		logger.Info("Enhanced intent classification enabled")
	}

	factory := func(userID string) *orchestrator.Conversation {
		opts := []orchestrator.Option{
			orchestrator.WithConfidenceThreshold(cfg.Assistant.ConfidenceThreshold),
		}
		if cohere.Configured() {
			opts = append(opts, orchestrator.WithClassifier(classifier))
			if cfg.Cohere.NaturalReplies {
				opts = append(opts, orchestrator.WithRephraser(classifier))
			}
		}
		return orchestrator.New(userID, exec, opts...)
	}

	if *tuiFlag {
		runTUI(cfg, tokens, factory, logger)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(factory)
	loop := agent.NewLoop(sessions)

	sched := scheduler.New(tokens)
	sched.Start()
	logger.Info("Scheduler started")

	adapters := []channel.Adapter{}
	if cfg.Channels.Telegram.Enabled {
		adapters = append(adapters, telegram.New(cfg.Channels.Telegram.Token))
	}
	if cfg.Channels.Discord.Enabled {
		adapters = append(adapters, discord.New(cfg.Channels.Discord.Token))
	}
	if cfg.Channels.WebChat.Enabled {
		adapters = append(adapters, webchat.New(cfg.Channels.WebChat.Port))
	}

	for _, adapter := range adapters {
		if err := adapter.Start(ctx); err != nil {
			logger.Error("Failed to start adapter", "adapter", adapter.Name(), "error", err)
			continue
		}
		logger.Info("Adapter started", "adapter", adapter.Name())
		go loop.Run(ctx, adapter)
	}

	srv := server.New(cfg, sessions, logging.WithComponent("server"))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for _, adapter := range adapters {
		if err := adapter.Stop(); err != nil {
			logger.Error("Failed to stop adapter", "adapter", adapter.Name(), "error", err)
		}
	}

	sched.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}

func runTUI(cfg *config.Config, tokens *auth.Store, factory session.ConversationFactory, logger *slog.Logger) {
	userID := "local"
	info := tui.AuthInfo{}
	if user, ok := tokens.CurrentUser(); ok {
		userID = user.ID
		info = tui.AuthInfo{LoggedIn: true, Email: user.Email}
	}

	conv := factory(userID)
	app := tui.NewApp(conv, cfg.TaskAPI.URL, info)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("TUI error", "error", err)
		os.Exit(1)
	}
}
