// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea model for a server session.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/prompt"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/components"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	// Controller drives the session (required)
	Controller *session.Controller
	// Theme for rendering (default: detected)
	Theme *styles.Theme
	// Address pre-fills the connect screen; with AutoConnect it is dialed
	// at start
	Address     string
	AutoConnect bool
	// DialTimeout bounds each connection attempt (default: 5s)
	DialTimeout time.Duration
	// CharLimit caps the chat input (default: 2048)
	CharLimit int
	// MaxSuggestions is the popup height in rows (default: 6)
	MaxSuggestions int
	// Timestamps shows arrival times in the log
	Timestamps bool
	// Clipboard writes copied text (default: system clipboard)
	Clipboard func(string) error
	// Context bounds every backend call (default: background)
	Context context.Context
	// Logger for diagnostics; nil discards
	Logger *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole client: the connect screen
// between sessions and the server view during one.
type Model struct {
	ctrl        *session.Controller
	ctx         context.Context
	logger      *slog.Logger
	dialTimeout time.Duration
	clipboard   func(string) error

	// Styling
	theme *styles.Theme
	keys  KeyMap

	// Dimensions
	width  int
	height int

	// Inputs
	addrInput   textinput.Model
	chatInput   textinput.Model
	promptInput textinput.Model

	// Views
	viewport  viewport.Model
	spinner   spinner.Model
	ac        *commands.Autocomplete
	popup     *components.CompletionPopup
	header    *components.Header
	logView   *components.LogView
	promptBox *components.PromptBox
	statusBar *components.StatusBar

	// shownPrompt is the prompt the prompt input was last reset for
	shownPrompt *prompt.Config

	// cancelDial aborts the dial in flight
	cancelDial context.CancelFunc

	// Connect screen notices
	connectErr string
	endNote    string

	autoDial bool
	quitting bool
}

// New creates the model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	dial := opts.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	charLimit := opts.CharLimit
	if charLimit <= 0 {
		charLimit = 2048
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	addr := textinput.New()
	addr.Prompt = "> "
	addr.Placeholder = "host[:port]"
	addr.CharLimit = 255
	addr.PromptStyle = theme.InputPrompt
	addr.SetValue(opts.Address)
	addr.Focus()

	chat := textinput.New()
	chat.Prompt = "> "
	chat.Placeholder = "Type a message..."
	chat.PromptStyle = theme.InputPrompt
	chat.CharLimit = charLimit

	answer := textinput.New()
	answer.Prompt = "> "
	answer.PromptStyle = theme.InputPrompt
	answer.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	popup := components.NewCompletionPopup(theme)
	if opts.MaxSuggestions > 0 {
		popup.SetMaxVisible(opts.MaxSuggestions)
	}
	logView := components.NewLogView(theme)
	logView.Timestamps = opts.Timestamps

	m := Model{
		ctrl:        opts.Controller,
		ctx:         ctx,
		logger:      logger.With("component", "tui"),
		dialTimeout: dial,
		clipboard:   copyFn,
		theme:       theme,
		keys:        DefaultKeyMap(),
		width:       80,
		height:      24,
		addrInput:   addr,
		chatInput:   chat,
		promptInput: answer,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		ac:          commands.NewAutocomplete(commands.Empty()),
		popup:       popup,
		header:      components.NewHeader(theme),
		logView:     logView,
		promptBox:   components.NewPromptBox(theme),
		statusBar:   components.NewStatusBar(theme),
		autoDial:    opts.AutoConnect,
	}
	m.layout()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and clocks and dials the initial address
// when asked to.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, tickCmd()}
	if addr := strings.TrimSpace(m.addrInput.Value()); addr != "" && m.autoDial {
		cmds = append(cmds, func() tea.Msg { return ConnectMsg{Address: addr} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SettingsMsg:
		m.logView.Timestamps = msg.Timestamps
		if msg.MaxSuggestions > 0 {
			m.popup.SetMaxVisible(msg.MaxSuggestions)
		}
		m.layout()
		m.refreshLog()
		return m, nil

	case ConnectMsg:
		m.addrInput.SetValue(msg.Address)
		return m, m.startConnect(msg.Address)

	case connectResultMsg:
		return m, m.handleConnectResult(msg)

	case sessionEventMsg:
		return m, m.handleSessionEvent(msg)

	case registryMsg:
		if m.ctrl.ApplyRegistry(msg.sessionID, msg.prefix, msg.cmds, msg.err) {
			m.ac.SetRegistry(m.ctrl.Registry())
			m.layout()
		}
		return m, nil

	case sendFailedMsg:
		m.ctrl.SendFailed(msg.sessionID, msg.err)
		m.refreshLog()
		return m, nil

	case tickMsg:
		if s := m.ctrl.Session(); s != nil {
			m.header.SetStatus(s.GetStatus())
		}
		return m, tickCmd()

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard write failed", "error", msg.err)
			m.statusBar.SetNotice("Copy failed: "+msg.err.Error(), true)
		} else {
			m.statusBar.SetNotice("Copied "+plural(msg.lines, "line")+" to the clipboard", false)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blinks and anything else go to the focused input.
	return m.updateFocused(msg)
}

// =============================================================================
// CONNECTING
// =============================================================================

func (m *Model) startConnect(address string) tea.Cmd {
	attempt, err := m.ctrl.BeginConnect(address)
	switch {
	case errors.Is(err, session.ErrEmptyAddress):
		m.connectErr = "Enter a server address."
		return nil
	case err != nil:
		m.connectErr = err.Error()
		return nil
	}
	m.connectErr = ""
	m.endNote = ""
	m.addrInput.Blur()

	dialCtx, cancel := context.WithTimeout(m.ctx, m.dialTimeout)
	m.cancelDial = cancel
	return tea.Batch(
		dialCmd(dialCtx, cancel, m.ctrl.Backend(), m.ctrl.PendingAddress(), attempt),
		m.spinner.Tick,
	)
}

// stopDial cancels the dial in flight, if any.
func (m *Model) stopDial() {
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
}

func (m *Model) handleConnectResult(msg connectResultMsg) tea.Cmd {
	err := m.ctrl.FinishConnect(msg.attempt, msg.err)
	if errors.Is(err, session.ErrNotConnecting) {
		// Abandoned attempt that still got through. With no live session
		// its connection is the one the backend holds.
		if msg.err == nil && m.ctrl.Session() == nil {
			_ = m.ctrl.Backend().Close()
		}
		return nil
	}
	m.cancelDial = nil
	if err != nil {
		m.connectErr = err.Error()
		m.addrInput.Focus()
		return textinput.Blink
	}

	s := m.ctrl.Session()
	m.statusBar.ClearNotice()
	m.header.SetStatus(s.GetStatus())
	m.syncSession()

	cmds := []tea.Cmd{listenCmd(s.ID, m.ctrl.Events())}
	if id, ok := m.ctrl.MarkRegistryRequested(); ok {
		cmds = append(cmds, fetchRegistryCmd(m.ctx, m.ctrl.Backend(), id))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

func (m *Model) handleSessionEvent(msg sessionEventMsg) tea.Cmd {
	s := m.ctrl.Session()
	if s == nil || s.ID != msg.sessionID {
		return nil
	}

	if msg.closed {
		m.ctrl.HandleStreamClosed()
		m.sessionEnded("Connection closed.")
		return textinput.Blink
	}
	if ended := m.ctrl.HandleEvent(msg.ev); ended {
		m.sessionEnded("Disconnected by the server.")
		return textinput.Blink
	}

	m.syncSession()
	return listenCmd(s.ID, m.ctrl.Events())
}

// syncSession brings the inputs, header and log in line with the session.
func (m *Model) syncSession() {
	s := m.ctrl.Session()
	if s == nil {
		return
	}

	cfg, open := s.Prompt.Current()
	switch {
	case open && (m.shownPrompt == nil || *m.shownPrompt != cfg):
		m.openPrompt(cfg)
	case !open && m.shownPrompt != nil:
		m.shownPrompt = nil
		m.promptInput.Blur()
		m.promptInput.Reset()
	}

	if !open && s.Phase() == session.ChatActive {
		m.chatInput.Focus()
	} else {
		m.chatInput.Blur()
	}

	m.header.SetStatus(s.GetStatus())
	m.layout()
	m.refreshLog()
}

func (m *Model) openPrompt(cfg prompt.Config) {
	m.shownPrompt = &cfg
	m.promptBox.Error = ""
	m.promptInput.Reset()
	if cfg.Kind == prompt.Secret {
		m.promptInput.EchoMode = textinput.EchoPassword
		m.promptInput.EchoCharacter = '*'
	} else {
		m.promptInput.EchoMode = textinput.EchoNormal
	}
	m.promptInput.Focus()
}

// sessionEnded returns to the connect screen.
func (m *Model) sessionEnded(note string) {
	m.endNote = note
	if t, ok := m.ctrl.LastTranscript(); ok {
		m.logger.Info("session ended", "session", t.SessionID, "reason", t.Reason, "entries", len(t.Entries))
	}

	m.shownPrompt = nil
	m.promptInput.Reset()
	m.promptInput.Blur()
	m.chatInput.Reset()
	m.chatInput.Blur()
	m.ac = commands.NewAutocomplete(commands.Empty())
	m.header.Reset()
	m.statusBar.ClearNotice()
	m.viewport.SetContent("")
	m.addrInput.Focus()
	m.layout()
}

// refreshLog re-renders the scrollback, following the tail when the view
// was already at the bottom.
func (m *Model) refreshLog() {
	s := m.ctrl.Session()
	if s == nil {
		return
	}
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.logView.Render(s.Log.Render()))
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.stopDial()
		m.ctrl.Leave()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.ctrl.Phase() {
	case session.Disconnected:
		return m.handleConnectKey(msg)
	case session.Connecting:
		if key.Matches(msg, m.keys.Dismiss) {
			m.stopDial()
			m.ctrl.Leave()
			m.connectErr = "Connection cancelled."
			m.addrInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}
	return m.handleSessionKey(msg)
}

func (m Model) handleConnectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		return m, m.startConnect(m.addrInput.Value())
	}
	var cmd tea.Cmd
	m.addrInput, cmd = m.addrInput.Update(msg)
	return m, cmd
}

func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.ctrl.Session()

	switch {
	case key.Matches(msg, m.keys.Disconnect):
		m.ctrl.Leave()
		m.sessionEnded("Left session.")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Copy):
		entries := s.Log.Entries()
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.Text()
		}
		return m, copyCmd(m.clipboard, strings.Join(lines, "\n"), len(lines))

	case key.Matches(msg, m.keys.Timestamps):
		m.logView.Timestamps = !m.logView.Timestamps
		m.refreshLog()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if cfg, open := s.Prompt.Current(); open {
		return m.handlePromptKey(msg, cfg)
	}
	if s.Phase() == session.ChatActive {
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg, cfg prompt.Config) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Submit) {
		var cmd tea.Cmd
		m.promptInput, cmd = m.promptInput.Update(msg)
		return m, cmd
	}

	id := m.ctrl.Session().ID
	var send tea.Cmd
	err := m.ctrl.SubmitPrompt(m.promptInput.Value(), func(value string) {
		send = sendCmd(m.ctx, m.ctrl.Backend(), id, value)
	})
	if errors.Is(err, prompt.ErrEmptyValue) {
		m.promptBox.Error = "A value is required."
		return m, nil
	}
	if err != nil {
		m.logger.Warn("prompt submit", "label", cfg.Label, "error", err)
		return m, nil
	}
	m.syncSession()
	return m, send
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Complete):
		if m.ac.SelectHighlighted() {
			m.syncChatInput()
		}
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if m.ac.Visible() {
			m.ac.Prev()
		} else {
			m.viewport.LineUp(1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if m.ac.Visible() {
			m.ac.Next()
		} else {
			m.viewport.LineDown(1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.ac.Dismiss()
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.ac.Visible() && m.ac.Selected() >= 0 {
			m.ac.SelectHighlighted()
			m.syncChatInput()
			return m, nil
		}
		text, ok := m.ac.Submit()
		if !ok {
			return m, nil
		}
		m.chatInput.Reset()
		m.layout()
		m.viewport.GotoBottom()
		return m, sendCmd(m.ctx, m.ctrl.Backend(), m.ctrl.Session().ID, text)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	m.ac.SetInput(m.chatInput.Value())
	m.layout()
	return m, cmd
}

// syncChatInput copies the autocomplete buffer into the input field.
func (m *Model) syncChatInput() {
	m.chatInput.SetValue(m.ac.Input())
	m.chatInput.CursorEnd()
	m.layout()
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.addrInput.Focused():
		m.addrInput, cmd = m.addrInput.Update(msg)
	case m.promptInput.Focused():
		m.promptInput, cmd = m.promptInput.Update(msg)
	case m.chatInput.Focused():
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the session controller.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Quitting reports whether the model asked the program to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

func plural(n int, word string) string {
	s := strconv.Itoa(n) + " " + word
	if n != 1 {
		s += "s"
	}
	return s
}
