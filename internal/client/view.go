package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

type styles struct {
	self   lipgloss.Style
	sender lipgloss.Style
	notice lipgloss.Style
	status lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		self:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		sender: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		notice: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (a *App) View() string {
	if !a.ready {
		return "connecting..."
	}

	var b strings.Builder
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(a.statusLine())
	return b.String()
}

func (a *App) statusLine() string {
	state := "connected"
	if a.closed {
		state = "disconnected"
	}
	return a.styles.status.Render(
		fmt.Sprintf("%s | room %s | %s | esc to quit", state, a.cfg.Room, a.cfg.Username),
	)
}

func buildWelcome(room string) string {
	banner := figure.NewFigure("roomcast", "", true).String()
	return banner + "\n" +
		"Joined room " + room + ".\n" +
		"Messages from other members appear here. Type and press Enter to send."
}
