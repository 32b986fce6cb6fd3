package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
)

type Chat struct {
	viewport viewport.Model
	messages []orchestrator.Message
}

func NewChat() *Chat {
	vp := viewport.New(0, 0)
	vp.SetContent("TaskMind-Gateway Chat\n")
	return &Chat{viewport: vp}
}

func (c *Chat) Init() tea.Cmd {
	return nil
}

func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

func (c *Chat) View(width, height int) string {
	c.viewport.Width = width - 2
	c.viewport.Height = height - 2
	return ChatPanelStyle.Width(width).Height(height).Render(c.viewport.View())
}

// SetMessages replaces the transcript and scrolls to the newest entry.
func (c *Chat) SetMessages(messages []orchestrator.Message) {
	c.messages = messages
	var sb strings.Builder
	for _, msg := range messages {
		var style lipgloss.Style
		label := "you"
		if msg.Sender == "ai" {
			style = AssistantMessageStyle
			label = "assistant"
		} else {
			style = UserMessageStyle
		}
		sb.WriteString(style.Render(label + ": " + msg.Text))
		sb.WriteString("\n")
	}
	c.viewport.SetContent(sb.String())
	c.viewport.GotoBottom()
}
