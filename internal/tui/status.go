package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type Status struct {
	taskAPIURL string
	loggedIn   bool
	userEmail  string
	turns      int
	processing bool
}

func NewStatus(taskAPIURL string) *Status {
	return &Status{taskAPIURL: taskAPIURL}
}

func (s *Status) Init() tea.Cmd {
	return nil
}

func (s *Status) Update(msg tea.Msg) (*Status, tea.Cmd) {
	return s, nil
}

func (s *Status) SetAuth(loggedIn bool, email string) {
	s.loggedIn = loggedIn
	s.userEmail = email
}

func (s *Status) SetProcessing(processing bool) {
	s.processing = processing
}

func (s *Status) IncTurns() {
	s.turns++
}

func (s *Status) View(width, height int) string {
	auth := "logged out"
	if s.loggedIn {
		auth = "logged in"
		if s.userEmail != "" {
			auth += " as " + s.userEmail
		}
	}
	state := "idle"
	if s.processing {
		state = "thinking..."
	}
	content := fmt.Sprintf(
		"Task API: %s\nAuth: %s\nTurns: %d\nState: %s",
		s.taskAPIURL, auth, s.turns, state,
	)
	return StatusPanelStyle.Width(width).Height(height).Render(content)
}
