package session

import (
	"sync"

	"github.com/taskmind/taskmind-gateway/internal/metrics"
	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
)

// ConversationFactory builds a fresh conversation for a user.
type ConversationFactory func(userID string) *orchestrator.Conversation

// Manager maps users to their conversations. Conversations live in memory
// only; a restart starts everyone from the welcome message again.
type Manager struct {
	mu            sync.Mutex
	conversations map[string]*orchestrator.Conversation
	factory       ConversationFactory
}

func NewManager(factory ConversationFactory) *Manager {
	return &Manager{
		conversations: make(map[string]*orchestrator.Conversation),
		factory:       factory,
	}
}

// Get returns the user's conversation, creating one on first contact.
func (m *Manager) Get(userID string) *orchestrator.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[userID]
	if !ok {
		conv = m.factory(userID)
		m.conversations[userID] = conv
		metrics.ActiveConversations.Set(float64(len(m.conversations)))
	}
	return conv
}

// Drop removes a user's conversation entirely.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[userID]; ok {
		conv.ClearConversation()
		delete(m.conversations, userID)
		metrics.ActiveConversations.Set(float64(len(m.conversations)))
	}
}

// Count returns the number of live conversations.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}
