// Package tui is the terminal front end for the trainer: a bubbletea model
// that renders the session snapshot and turns key presses into intents.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/bjtrainer/internal/protocol"
	"github.com/lox/bjtrainer/internal/session"
)

// Controller is the session surface the model drives. *session.Session
// implements it.
type Controller interface {
	Snapshot() session.Snapshot
	Play() error
	Act(code string) error
	SetAnswer(text string)
	Answer() error
	EditBet()
	SetBetBuffer(text string)
	SaveBet() error
	CancelBet()
}

// ErrorMsg reports a failed intent
type ErrorMsg struct {
	Err error
}

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

// Model is the Bubble Tea model for the trainer
type Model struct {
	logger *log.Logger
	ctrl   Controller
	hand   int
	snap   session.Snapshot

	// UI components
	transcriptView viewport.Model
	answerInput    textinput.Model
	betInput       textinput.Model

	transcript []string
	status     string
	quitting   bool
	quitSignal chan struct{}

	// Dimensions
	width  int
	height int

	// Test mode
	testMode    bool
	capturedLog []string
}

// NewModel creates a new model
func NewModel(logger *log.Logger) *Model {
	return NewModelWithOptions(logger, false)
}

// NewModelWithOptions creates a new model with test mode option
func NewModelWithOptions(logger *log.Logger, testMode bool) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	answer := textinput.New()
	answer.Placeholder = "Type your answer"
	answer.CharLimit = 100
	answer.Width = 40
	answer.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	answer.Prompt = "> "

	bet := textinput.New()
	bet.Placeholder = "amount"
	bet.CharLimit = 9
	bet.Width = 12
	bet.PromptStyle = answer.PromptStyle
	bet.Prompt = "$"

	return &Model{
		logger:         logger.WithPrefix("tui"),
		hand:           1,
		snap:           session.Snapshot{Mode: session.Mode{Kind: session.ModeBet}},
		transcriptView: vp,
		answerInput:    answer,
		betInput:       bet,
		quitSignal:     make(chan struct{}, 1),
		testMode:       testMode,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForQuit())
}

func (m *Model) listenForQuit() tea.Cmd {
	return func() tea.Msg {
		<-m.quitSignal
		return QuitMsg{}
	}
}

// SendQuitSignal asks the program to exit, e.g. when the trainer stops
func (m *Model) SendQuitSignal() {
	select {
	case m.quitSignal <- struct{}{}:
	default:
		// Quit signal already pending
	}
}

// Hand returns the hand number shown in the title
func (m *Model) Hand() int {
	return m.hand
}

// Snapshot returns the state the model last rendered
func (m *Model) Snapshot() session.Snapshot {
	return m.snap
}

// Status returns the last error shown in the status line
func (m *Model) Status() string {
	return m.status
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case SessionMsg:
		m.ctrl = msg.Controller
		m.hand = msg.Hand
		m.status = ""
		m.AddLogEntry(fmt.Sprintf("--- Hand %d ---", msg.Hand))
		cmds = append(cmds, m.applySnapshot(m.ctrl.Snapshot()))

	case StateMsg:
		// Always render the latest state; snapshots from different
		// goroutines can arrive out of order
		if m.ctrl != nil {
			cmds = append(cmds, m.applySnapshot(m.ctrl.Snapshot()))
		} else {
			cmds = append(cmds, m.applySnapshot(msg.Snapshot))
		}

	case TextMsg:
		m.AddLogEntry(msg.Text)

	case ErrorMsg:
		if msg.Err != nil {
			m.status = msg.Err.Error()
			m.logger.Debug("Intent failed", "error", msg.Err)
		}

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	switch {
	case m.snap.Mode.Kind == session.ModePrompt:
		m.answerInput, cmd = m.answerInput.Update(msg)
		cmds = append(cmds, cmd)
	case m.snap.Editing:
		m.betInput, cmd = m.betInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.transcriptView, cmd = m.transcriptView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applySnapshot stores snap and moves input focus to match it. A prompt
// takes the keyboard, so an open bet edit is cancelled by the returned cmd.
func (m *Model) applySnapshot(snap session.Snapshot) tea.Cmd {
	prev := m.snap
	m.snap = snap

	var cmd tea.Cmd
	switch {
	case snap.Editing && snap.Mode.Kind == session.ModePrompt:
		m.betInput.Blur()
		if m.ctrl != nil {
			cmd = m.intent(func(c Controller) error {
				c.CancelBet()
				return nil
			})
		}
	case snap.Editing && !prev.Editing:
		m.betInput.SetValue(snap.BetBuffer)
		m.betInput.CursorEnd()
		m.betInput.Focus()
	case !snap.Editing:
		m.betInput.Blur()
	}

	switch {
	case snap.Mode.Kind == session.ModePrompt && (prev.Mode.Kind != session.ModePrompt || prev.Mode.Prompt != snap.Mode.Prompt):
		m.answerInput.SetValue("")
		m.answerInput.Focus()
	case snap.Mode.Kind != session.ModePrompt:
		m.answerInput.Blur()
	}
	return cmd
}

// handleKey maps a key press to an intent. handled is false when the key
// should fall through to the focused input.
func (m *Model) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	key := msg.String()
	if key == "ctrl+c" {
		m.quitting = true
		return tea.Quit, true
	}

	if m.ctrl == nil {
		if key == "esc" || key == "q" {
			m.quitting = true
			return tea.Quit, true
		}
		return nil, false
	}

	switch {
	case m.snap.Mode.Kind == session.ModePrompt:
		switch key {
		case "enter":
			value := m.answerInput.Value()
			m.answerInput.SetValue("")
			return m.intent(func(c Controller) error {
				c.SetAnswer(value)
				return c.Answer()
			}), true
		case "esc":
			m.quitting = true
			return tea.Quit, true
		}
		return nil, false

	case m.snap.Editing:
		switch key {
		case "enter":
			value := strings.TrimSpace(m.betInput.Value())
			return m.intent(func(c Controller) error {
				c.SetBetBuffer(value)
				return c.SaveBet()
			}), true
		case "esc":
			return m.intent(func(c Controller) error {
				c.CancelBet()
				return nil
			}), true
		}
		return nil, false
	}

	if m.snap.Mode.Kind == session.ModeActions && m.snap.Mode.Offers(key) {
		return m.intent(func(c Controller) error { return c.Act(key) }), true
	}

	switch key {
	case "esc", "q":
		m.quitting = true
		return tea.Quit, true
	case "p":
		if !m.snap.CanPlay() {
			return nil, true
		}
		return m.intent(func(c Controller) error { return c.Play() }), true
	case "e":
		return m.intent(func(c Controller) error {
			c.EditBet()
			return nil
		}), true
	}
	return nil, false
}

// intent runs fn against the current controller off the update loop, since
// the controller notifies observers that send back into the program.
func (m *Model) intent(fn func(Controller) error) tea.Cmd {
	ctrl := m.ctrl
	m.status = ""
	return func() tea.Msg {
		if err := fn(ctrl); err != nil {
			return ErrorMsg{Err: err}
		}
		return nil
	}
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	table := m.renderTable()
	controls := m.renderControls()

	paneWidth := max(m.width-2, 1)

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(paneWidth)
	tablePane := tableStyle.Render(lipgloss.JoinVertical(lipgloss.Left, table, "", controls))

	transcriptHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(tablePane)-3, 1)
	m.transcriptView.Width = paneWidth
	m.transcriptView.Height = transcriptHeight
	m.transcriptView.SetContent(TranscriptStyle.Render(strings.Join(m.transcript, "\n")))
	m.transcriptView.GotoBottom()

	transcriptPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(paneWidth).
		Height(transcriptHeight).
		Render(m.transcriptView.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, tablePane, transcriptPane, m.renderHelp())
}

func (m *Model) renderHeader() string {
	title := HeaderStyle.Render(fmt.Sprintf("Blackjack Trainer - Hand %d", m.hand))

	status := ErrorStyle.Render("○ disconnected")
	if m.snap.Connected {
		status = SuccessStyle.Render("● connected")
	}
	balance := WarningStyle.Render(fmt.Sprintf("Balance: $%d", m.snap.Balance))

	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status, "  ", balance)
}

func (m *Model) renderTable() string {
	var b strings.Builder

	b.WriteString(HandInfoStyle.Render("Dealer: "))
	b.WriteString(m.formatHand(m.snap.Dealer))
	b.WriteString("\n")
	b.WriteString(HandInfoStyle.Render("Player: "))
	b.WriteString(m.formatHand(m.snap.Player))

	if r := m.snap.Result; r != nil {
		b.WriteString("\n\n")
		b.WriteString(renderResult(*r))
	}
	return b.String()
}

func renderResult(r session.Result) string {
	text := fmt.Sprintf("%s  %s", strings.ToUpper(string(r.Outcome)), formatProfit(r.Profit))
	switch r.Outcome {
	case protocol.OutcomeWin:
		return SuccessStyle.Render(text)
	case protocol.OutcomeLoss:
		return ErrorStyle.Render(text)
	case protocol.OutcomePush:
		return WarningStyle.Render(text)
	default:
		return InfoStyle.Render(text)
	}
}

func formatProfit(p float64) string {
	if p < 0 {
		return fmt.Sprintf("-$%g", -p)
	}
	return fmt.Sprintf("+$%g", p)
}

func (m *Model) renderControls() string {
	var b strings.Builder

	switch m.snap.Mode.Kind {
	case session.ModeActions:
		var actions []string
		for _, a := range m.snap.Mode.Actions {
			actions = append(actions, ActionsStyle.Render(fmt.Sprintf("[%s] %s", a.Code, a.Label)))
		}
		b.WriteString(strings.Join(actions, "  "))
	case session.ModePrompt:
		b.WriteString(WarningStyle.Render(m.snap.Mode.Prompt))
		b.WriteString("\n")
		b.WriteString(m.answerInput.View())
	case session.ModeNone:
		b.WriteString(InfoStyle.Render("Waiting for the dealer..."))
	}

	if m.snap.Mode.Kind != session.ModePrompt {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderBet())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.status))
	}
	return b.String()
}

func (m *Model) renderBet() string {
	if m.snap.Editing {
		return "Bet: " + m.betInput.View() + "  " + InfoStyle.Render("enter save • esc cancel")
	}

	out := fmt.Sprintf("Bet: $%d  [e]dit", m.snap.Bet)
	if m.snap.CanPlay() {
		out += " [p]lay"
	}
	return out
}

func (m *Model) renderHelp() string {
	switch {
	case m.snap.Editing:
		return InfoStyle.Render("Enter to save • Esc to cancel • Ctrl+C to quit")
	case m.snap.Mode.Kind == session.ModePrompt:
		return InfoStyle.Render("Enter to answer • Esc to quit")
	default:
		return InfoStyle.Render("↑↓ scroll transcript • q to quit")
	}
}

// formatHand renders cards with colours. A face-down dealer shows the up
// card followed by a hidden card.
func (m *Model) formatHand(h session.Hand) string {
	if h.Empty() {
		return InfoStyle.Render("-")
	}

	var formatted []string
	for _, card := range h.Cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	if h.FaceDown {
		formatted = append(formatted, HiddenCardStyle.Render("??"))
	}

	return "[" + strings.Join(formatted, " ") + "] " + fmt.Sprintf("(%d)", h.Value)
}

// AddLogEntry appends a line to the transcript
func (m *Model) AddLogEntry(entry string) {
	m.transcript = append(m.transcript, entry)

	// In test mode, also capture the log entry
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
	}
}

// GetCapturedLog returns the captured transcript (test mode only)
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the model is in test mode
func (m *Model) IsTestMode() bool {
	return m.testMode
}
