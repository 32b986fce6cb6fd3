package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskmind/taskmind-gateway/internal/config"
	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
	"github.com/taskmind/taskmind-gateway/internal/session"
)

// Server exposes the gateway's HTTP API: health, metrics, and a direct
// chat endpoint mirroring what the channel adapters do.
type Server struct {
	cfg        *config.Config
	sessions   *session.Manager
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Uptime    string          `json:"uptime"`
	Channels  map[string]bool `json:"channels"`
	Timestamp string          `json:"timestamp"`
}

// ChatRequest is one user turn submitted over HTTP.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ChatResponse carries the transcript delta produced by the turn.
type ChatResponse struct {
	Messages []orchestrator.Message `json:"messages"`
}

// ConversationResponse is the full transcript for a user.
type ConversationResponse struct {
	UserID   string                 `json:"user_id"`
	Messages []orchestrator.Message `json:"messages"`
}

// New creates the HTTP server.
func New(cfg *config.Config, sessions *session.Manager, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		startTime: time.Now(),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/chat", s.chatHandler)
	mux.HandleFunc("/api/v1/conversation", s.conversationHandler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Channels: map[string]bool{
			"telegram": s.cfg.Channels.Telegram.Enabled,
			"discord":  s.cfg.Channels.Discord.Enabled,
			"webchat":  s.cfg.Channels.WebChat.Enabled,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// chatHandler runs one turn synchronously and returns the messages the
// turn appended, usually the user's message plus the assistant reply.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Message == "" {
		http.Error(w, "user_id and message required", http.StatusBadRequest)
		return
	}

	conv := s.sessions.Get(req.UserID)
	before := len(conv.Messages())
	conv.ProcessMessage(r.Context(), req.Message)

	response := ChatResponse{Messages: conv.MessagesSince(before)}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// conversationHandler returns or clears a user's transcript.
func (s *Server) conversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		conv := s.sessions.Get(userID)
		response := ConversationResponse{UserID: userID, Messages: conv.Messages()}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)

	case http.MethodDelete:
		conv := s.sessions.Get(userID)
		conv.ClearConversation()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
