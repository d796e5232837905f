package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roomcast/roomcast/internal/config"
)

// App implements the bubbletea tea.Model interface for the terminal client.
type App struct {
	cfg     config.ClientConfig
	session *Session

	viewport viewport.Model
	input    textinput.Model
	lines    []string
	styles   styles

	width  int
	height int
	ready  bool
	closed bool
}

// NewApp assembles the UI around an already-connected session.
func NewApp(cfg config.ClientConfig, session *Session) *App {
	input := textinput.New()
	input.Placeholder = "Type a message and press Enter"
	input.Prompt = "> "
	input.Focus()

	return &App{
		cfg:     cfg,
		session: session,
		input:   input,
		styles:  defaultStyles(),
	}
}

type eventMsg Event

func waitForEvent(session *Session) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-session.Events())
	}
}

// Init starts cursor blinking and event consumption.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(a.session))
}

// Update routes terminal and relay events through the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			_ = a.session.Close()
			return a, tea.Quit
		case tea.KeyEnter:
			return a, a.submit()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		a.ready = true

	case eventMsg:
		return a, a.handleEvent(Event(msg))
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) submit() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	if text == "" || a.closed {
		return nil
	}
	if err := a.session.Send(text); err != nil {
		a.appendLine(a.styles.notice.Render(fmt.Sprintf("send failed: %v", err)))
		a.closed = true
		return nil
	}
	a.appendLine(a.styles.self.Render(a.cfg.Username) + " " + text)
	a.input.Reset()
	return nil
}

func (a *App) handleEvent(event Event) tea.Cmd {
	switch {
	case event.Err != nil:
		a.appendLine(a.styles.notice.Render(fmt.Sprintf("disconnected: %v", event.Err)))
		a.closed = true
		return nil
	case event.Notice != "":
		a.appendLine(a.styles.notice.Render(event.Notice))
	case event.Message != nil:
		a.appendLine(a.styles.sender.Render(event.Message.Sender) + " " + event.Message.Text)
	}
	return waitForEvent(a.session)
}

func (a *App) appendLine(line string) {
	a.lines = append(a.lines, line)
	a.refreshViewport()
}

func (a *App) refreshViewport() {
	if len(a.lines) == 0 {
		a.viewport.SetContent(buildWelcome(a.cfg.Room))
		return
	}
	a.viewport.SetContent(strings.Join(a.lines, "\n"))
	a.viewport.GotoBottom()
}

func (a *App) resize() {
	const fixed = 3 // input line, status line, spacer
	height := a.height - fixed
	if height < 3 {
		height = 3
	}
	a.viewport = viewport.New(a.width, height)
	inputWidth := a.width - len(a.input.Prompt) - 1
	if inputWidth < 10 {
		inputWidth = 10
	}
	a.input.Width = inputWidth
	a.refreshViewport()
}
