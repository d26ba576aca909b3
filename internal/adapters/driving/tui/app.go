package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sheetrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sheetrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sheetrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sheetrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// Config identifies the conversation the chat screen is bound to.
type Config struct {
	// UploadID scopes retrieval to one upload.
	UploadID string

	// SessionID keys the conversation history.
	SessionID string
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	cfg    Config
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	statusBar *status.Bar
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model

	// turns is the conversation as last confirmed by the services,
	// plus the pending question while waiting.
	turns   []domain.Turn
	waiting bool
	err     error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat screen for one upload and session.
func NewApp(ports *Ports, cfg Config) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if strings.TrimSpace(cfg.UploadID) == "" {
		return nil, fmt.Errorf("creating app: %w", domain.ErrNoUpload)
	}
	if strings.TrimSpace(cfg.SessionID) == "" {
		return nil, fmt.Errorf("creating app: session id is required: %w", domain.ErrInvalidInput)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	ti := textinput.New()
	ti.Placeholder = "Ask a question about the upload..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Pending

	bar := status.NewBar(s, km)
	bar.SetMessage(fmt.Sprintf("upload %s | session %s", cfg.UploadID, cfg.SessionID))

	return &App{
		ports:     ports,
		cfg:       cfg,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		statusBar: bar,
		viewport:  viewport.New(80, 20),
		input:     ti,
		spinner:   sp,
		turns:     []domain.Turn{},
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle("sheetrag - "+a.cfg.UploadID),
		a.loadHistory(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.turns = domain.CloneTurns(msg.Turns)
		a.refresh()
		return a, nil

	case messages.AnswerReceived:
		a.waiting = false
		if msg.Err != nil {
			// The failed exchange was not recorded; drop the pending question.
			if n := len(a.turns); n > 0 && a.turns[n-1].Role == domain.RoleUser {
				a.turns = a.turns[:n-1]
			}
			a.setError(msg.Err)
			a.refresh()
			return a, nil
		}
		a.turns = domain.CloneTurns(msg.Answer.History)
		a.clearError()
		a.refresh()
		return a, nil

	case messages.SessionReset:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.turns = []domain.Turn{}
		a.clearError()
		a.refresh()
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.statusBar.SetSpinner(a.spinner.View())
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Send):
		return a, a.submit()

	case key.Matches(msg, a.keymap.Reset):
		if a.waiting {
			return a, nil
		}
		return a, a.reset()

	case key.Matches(msg, a.keymap.ScrollUp), key.Matches(msg, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit sends the typed question. It is a no-op while a question is
// pending or when the input is blank.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if a.waiting || question == "" {
		return nil
	}

	a.input.Reset()
	a.waiting = true
	a.clearError()
	a.statusBar.SetState(status.StateThinking)
	a.turns = append(a.turns, domain.Turn{Role: domain.RoleUser, Content: question})
	a.refresh()

	return tea.Batch(a.spinner.Tick, a.ask(question))
}

func (a *App) loadHistory() tea.Cmd {
	ctx, history, sessionID := a.ctx, a.ports.History, a.cfg.SessionID
	return func() tea.Msg {
		turns, err := history.Get(ctx, sessionID)
		return messages.HistoryLoaded{Turns: turns, Err: err}
	}
}

func (a *App) ask(question string) tea.Cmd {
	ctx, chat, cfg := a.ctx, a.ports.Chat, a.cfg
	return func() tea.Msg {
		answer, err := chat.Ask(ctx, cfg.SessionID, cfg.UploadID, question)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

func (a *App) reset() tea.Cmd {
	ctx, chat, sessionID := a.ctx, a.ports.Chat, a.cfg.SessionID
	return func() tea.Msg {
		return messages.SessionReset{Err: chat.Reset(ctx, sessionID)}
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(describeError(err))
}

func (a *App) clearError() {
	a.err = nil
	a.statusBar.SetState(status.StateReady)
	a.statusBar.SetMessage(fmt.Sprintf("upload %s | session %s", a.cfg.UploadID, a.cfg.SessionID))
}

// describeError shortens well-known failures for the status bar.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "language model unavailable"
	case errors.Is(err, domain.ErrNoUpload):
		return "no upload indexed"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}

// SetDimensions resizes the conversation pane and the input.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// title + input + status bar, each with a blank separator
	reserved := 6
	vh := height - reserved
	if vh < 1 {
		vh = 1
	}
	a.viewport.Width = width
	a.viewport.Height = vh
	a.input.Width = width - 4
	a.statusBar.SetWidth(width)
	a.refresh()
}

func (a *App) refresh() {
	a.viewport.SetContent(a.renderConversation())
	a.viewport.GotoBottom()
}

func (a *App) renderConversation() string {
	width := a.width - 2
	if width < 10 {
		width = 10
	}
	wrap := lipgloss.NewStyle().Width(width)

	if len(a.turns) == 0 {
		return a.styles.AssistantLabel.Render("assistant") + "\n" +
			a.styles.Message.Render(wrap.Render(a.ports.Chat.Greeting()))
	}

	var b strings.Builder
	for i, turn := range a.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := a.styles.AssistantLabel.Render("assistant")
		if turn.Role == domain.RoleUser {
			label = a.styles.UserLabel.Render("you")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(a.styles.Message.Render(wrap.Render(turn.Content)))
	}
	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	title := a.styles.Title.Render("sheetrag chat")
	input := a.styles.Input.Render(a.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		a.viewport.View(),
		input,
		a.statusBar.View(),
	)
}

// Turns returns the conversation currently shown.
func (a *App) Turns() []domain.Turn {
	return domain.CloneTurns(a.turns)
}

// Waiting reports whether a question is pending.
func (a *App) Waiting() bool {
	return a.waiting
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Run starts the chat program and blocks until the user quits.
func Run(ctx context.Context, ports *Ports, cfg Config) error {
	app, err := NewApp(ports, cfg)
	if err != nil {
		return err
	}
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
