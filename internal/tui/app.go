package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskmind/taskmind-gateway/internal/orchestrator"
)

type Panel int

const (
	ChatPanel Panel = iota
	StatusPanel
)

// turnDoneMsg signals that a conversation turn finished.
type turnDoneMsg struct{}

// AuthInfo is what the status panel shows about the session.
type AuthInfo struct {
	LoggedIn bool
	Email    string
}

// App is the interactive chat client. It drives a single local
// conversation against the same pipeline the channel adapters use.
type App struct {
	width, height int
	currentPanel  Panel
	conv          *orchestrator.Conversation
	chat          *Chat
	status        *Status
	input         *Input
	keys          KeyMap
}

func NewApp(conv *orchestrator.Conversation, taskAPIURL string, auth AuthInfo) *App {
	app := &App{
		currentPanel: ChatPanel,
		conv:         conv,
		chat:         NewChat(),
		status:       NewStatus(taskAPIURL),
		input:        NewInput(),
		keys:         DefaultKeyMap,
	}
	app.status.SetAuth(auth.LoggedIn, auth.Email)
	app.chat.SetMessages(conv.Messages())
	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.chat.Init(), a.status.Init(), a.input.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Tab):
			a.currentPanel = (a.currentPanel + 1) % 2
		case key.Matches(msg, a.keys.Clear):
			a.conv.ClearConversation()
			a.chat.SetMessages(a.conv.Messages())
		case msg.String() == "enter":
			if text := a.input.Value(); text != "" {
				a.input.Reset()
				a.status.SetProcessing(true)
				cmds = append(cmds, a.sendTurn(text))
				// Show the user message immediately; the reply lands with
				// turnDoneMsg.
				a.chat.SetMessages(append(a.conv.Messages(), orchestrator.Message{Text: text, Sender: "user"}))
			}
		}

	case turnDoneMsg:
		a.status.SetProcessing(false)
		a.status.IncTurns()
		a.chat.SetMessages(a.conv.Messages())

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	a.status, cmd = a.status.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) sendTurn(text string) tea.Cmd {
	return func() tea.Msg {
		a.conv.ProcessMessage(context.Background(), text)
		return turnDoneMsg{}
	}
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	statusBar := a.statusBarView()
	inputBar := a.input.View()

	contentHeight := a.height - lipgloss.Height(statusBar) - lipgloss.Height(inputBar)

	leftWidth := int(float64(a.width) * 0.7)
	rightWidth := a.width - leftWidth

	chatView := a.chat.View(leftWidth, contentHeight)
	rightView := a.status.View(rightWidth, contentHeight)

	layout := lipgloss.JoinHorizontal(lipgloss.Top, chatView, rightView)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, layout, inputBar)
}

func (a *App) statusBarView() string {
	return StatusBarStyle.Width(a.width).Render(fmt.Sprintf("TaskMind-Gateway v1.0.0 | %s", a.taskState()))
}

func (a *App) taskState() string {
	if a.conv.IsLoading() {
		return "processing"
	}
	return "ready"
}
