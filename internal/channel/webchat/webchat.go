package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskmind/taskmind-gateway/internal/channel"
	"github.com/taskmind/taskmind-gateway/internal/logging"
)

// Adapter serves a WebSocket chat endpoint on its own port.
type Adapter struct {
	port     int
	incoming chan *channel.Message
	upgrader websocket.Upgrader
	conns    map[string]*websocket.Conn
	connMux  sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
	handlers sync.WaitGroup
	logger   *slog.Logger
}

// WSMessage is the wire format both directions.
type WSMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	UserID  string `json:"user_id,omitempty"`
}

func New(port int) *Adapter {
	return &Adapter{
		port:     port,
		incoming: make(chan *channel.Message, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[string]*websocket.Conn),
		stopCh: make(chan struct{}),
		logger: logging.WithComponent("webchat"),
	}
}

func (a *Adapter) Name() string { return "webchat" }

func (a *Adapter) IsEnabled() bool { return a.port > 0 }

func (a *Adapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.wsHandler)
	server := &http.Server{Addr: ":" + strconv.Itoa(a.port), Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("WebChat server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
		a.stopProducers()
	}()

	return nil
}

// Stop waits for connection handlers to exit before closing the inbound
// channel, so no handler is left sending on a closed channel.
func (a *Adapter) Stop() error {
	a.stopProducers()
	a.handlers.Wait()
	close(a.incoming)
	return nil
}

func (a *Adapter) stopProducers() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
		// Hijacked websocket conns outlive server.Shutdown; closing them
		// unblocks the handlers' reads.
		a.connMux.Lock()
		for _, conn := range a.conns {
			conn.Close()
		}
		a.connMux.Unlock()
	})
}

func (a *Adapter) SendMessage(userID string, resp *channel.Response) error {
	a.connMux.RLock()
	conn, exists := a.conns[userID]
	a.connMux.RUnlock()

	if !exists {
		// User disconnected between turn start and reply.
		return nil
	}

	msg := WSMessage{Type: "message", Content: resp.Content}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}

func (a *Adapter) wsHandler(rw http.ResponseWriter, r *http.Request) {
	a.handlers.Add(1)
	defer a.handlers.Done()

	conn, err := a.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		a.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous_" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	a.connMux.Lock()
	a.conns[userID] = conn
	a.connMux.Unlock()

	defer func() {
		a.connMux.Lock()
		delete(a.conns, userID)
		a.connMux.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-a.stopCh:
			return
		default:
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				a.logger.Debug("WebSocket read ended", "user_id", userID, "error", err)
				return
			}
			if msg.Type != "message" {
				continue
			}
			inbound := &channel.Message{
				ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
				Channel:   "webchat",
				UserID:    userID,
				Content:   msg.Content,
				Metadata:  map[string]string{"connection_id": userID},
				Timestamp: time.Now().Unix(),
			}
			select {
			case a.incoming <- inbound:
			case <-a.stopCh:
				return
			}
		}
	}
}
