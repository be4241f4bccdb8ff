// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ENGO150/WHY2-Desktop/internal/backend"
	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
)

// recordTimeout bounds writing a transcript on teardown.
const recordTimeout = 5 * time.Second

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Backend is the transport (required)
	Backend backend.Backend

	// Logger for diagnostics; nil discards
	Logger *slog.Logger

	// Recorder stores transcripts of finished sessions; nil disables
	Recorder Recorder

	// Clock returns the current time (default: time.Now)
	Clock func() time.Time
}

// Controller drives connection attempts and owns the live session, its
// event subscription and its command registry.
//
// A Controller is not safe for concurrent use. One goroutine (the UI loop)
// makes every call; blocking backend calls may run elsewhere and report
// back through BeginConnect/FinishConnect, ApplyRegistry and SendFailed.
type Controller struct {
	be       backend.Backend
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time

	connecting  bool
	pendingAddr string
	attempt     uint64

	session  *Session
	sub      backend.Subscription
	release  *sync.Once
	registry *commands.Registry
	fetched  bool

	last *Transcript
}

// NewController creates a controller in the Disconnected phase.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Controller{
		be:       opts.Backend,
		logger:   logger.With("component", "session"),
		recorder: opts.Recorder,
		now:      now,
	}
}

// Phase returns the current phase. Between sessions it is Disconnected.
func (c *Controller) Phase() Phase {
	switch {
	case c.session != nil:
		return c.session.phase
	case c.connecting:
		return Connecting
	default:
		return Disconnected
	}
}

// Session returns the live session, or nil.
func (c *Controller) Session() *Session {
	return c.session
}

// Backend returns the transport.
func (c *Controller) Backend() backend.Backend {
	return c.be
}

// LastTranscript returns the transcript of the most recently ended session.
func (c *Controller) LastTranscript() (Transcript, bool) {
	if c.last == nil {
		return Transcript{}, false
	}
	return *c.last, true
}

// =============================================================================
// CONNECTING
// =============================================================================

// BeginConnect moves from Disconnected to Connecting and returns the
// attempt number. The caller then runs Backend().Connect and reports the
// result with FinishConnect.
func (c *Controller) BeginConnect(address string) (attempt uint64, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, ErrEmptyAddress
	}
	if c.Phase() != Disconnected {
		return 0, ErrSessionActive
	}
	c.attempt++
	c.connecting = true
	c.pendingAddr = address
	c.logger.Info("connecting", "address", address, "attempt", c.attempt)
	return c.attempt, nil
}

// PendingAddress returns the address of the attempt in progress.
func (c *Controller) PendingAddress() string {
	return c.pendingAddr
}

// FinishConnect completes the attempt started by BeginConnect. A non-nil
// connectErr, or a failure to subscribe, returns a *ConnectionError and
// leaves the controller Disconnected with no session. Otherwise a new
// session starts in Authenticating with its event subscription attached.
// A result for an abandoned attempt returns ErrNotConnecting; the caller
// should close any connection it opened.
func (c *Controller) FinishConnect(attempt uint64, connectErr error) error {
	if !c.connecting || attempt != c.attempt {
		return ErrNotConnecting
	}
	address := c.pendingAddr
	c.connecting = false
	c.pendingAddr = ""

	if connectErr != nil {
		c.logger.Warn("connect failed", "address", address, "error", connectErr)
		return &ConnectionError{Address: address, Err: connectErr}
	}

	sub, err := c.be.Subscribe()
	if err != nil {
		c.logger.Warn("subscribe failed", "address", address, "error", err)
		_ = c.be.Close()
		return &ConnectionError{Address: address, Err: err}
	}

	c.session = newSession(address, c.now)
	c.sub = sub
	c.release = &sync.Once{}
	c.registry = commands.Empty()
	c.fetched = false

	c.logger.Info("session started", "session", c.session.ID, "address", address)
	return nil
}

// Connect runs a whole connection attempt, blocking on the backend.
func (c *Controller) Connect(ctx context.Context, address string) error {
	attempt, err := c.BeginConnect(address)
	if err != nil {
		return err
	}
	return c.FinishConnect(attempt, c.be.Connect(ctx, c.pendingAddr))
}

// Events returns the live session's event stream, or nil between sessions.
func (c *Controller) Events() <-chan event.Event {
	if c.sub == nil {
		return nil
	}
	return c.sub.Events()
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry returns the live session's commands. It is empty until the
// fetch completes, after a failed fetch, and between sessions.
func (c *Controller) Registry() *commands.Registry {
	if c.registry == nil {
		return commands.Empty()
	}
	return c.registry
}

// NeedsRegistry reports whether the live session's commands have not yet
// been requested.
func (c *Controller) NeedsRegistry() bool {
	return c.session != nil && !c.fetched
}

// MarkRegistryRequested records that the one fetch for this session is
// under way and returns the session it belongs to.
func (c *Controller) MarkRegistryRequested() (sessionID string, ok bool) {
	if !c.NeedsRegistry() {
		return "", false
	}
	c.fetched = true
	return c.session.ID, true
}

// ApplyRegistry installs a fetch result for sessionID. A result for a
// session that has since ended is discarded. A failed fetch is logged and
// leaves the registry empty.
func (c *Controller) ApplyRegistry(sessionID, prefix string, cmds []commands.CommandInfo, err error) bool {
	if c.session == nil || c.session.ID != sessionID {
		return false
	}
	if err != nil {
		c.logger.Warn("command list unavailable", "session", sessionID, "error", err)
		c.registry = commands.Empty()
		return true
	}
	c.registry = commands.NewRegistry(prefix, cmds)
	c.logger.Debug("command list loaded", "session", sessionID, "prefix", prefix, "commands", len(cmds))
	return true
}

// LoadRegistry fetches the command list once for the live session,
// blocking on the backend.
func (c *Controller) LoadRegistry(ctx context.Context) {
	id, ok := c.MarkRegistryRequested()
	if !ok {
		return
	}
	prefix, cmds, err := c.be.GetCommands(ctx)
	c.ApplyRegistry(id, prefix, cmds, err)
}

// =============================================================================
// EVENTS
// =============================================================================

// HandleEvent dispatches one event into the live session. It reports true
// when the event ended the session; the controller is then Disconnected
// and the session's data is gone. Events arriving with no live session are
// ignored.
func (c *Controller) HandleEvent(ev event.Event) (ended bool) {
	s := c.session
	if s == nil {
		c.logger.Debug("event without session", "kind", ev.Kind())
		return false
	}

	m := Dispatch(ev)
	if m.IsZero() {
		c.logger.Debug("event ignored", "session", s.ID, "kind", ev.Kind())
		return false
	}
	m.Apply(s)

	if s.phase == Terminated {
		c.logger.Info("server ended session", "session", s.ID)
		c.teardown(EndDisconnected)
		return true
	}
	return false
}

// HandleStreamClosed ends the live session when its event stream closes
// without a disconnect notice.
func (c *Controller) HandleStreamClosed() (ended bool) {
	if c.session == nil {
		return false
	}
	c.logger.Info("event stream closed", "session", c.session.ID)
	c.teardown(EndStreamClosed)
	return true
}

// =============================================================================
// INPUT
// =============================================================================

// SubmitPrompt answers the open prompt. send is handed the value and must
// issue the line without waiting for the result; the prompt closes at once.
func (c *Controller) SubmitPrompt(value string, send func(string)) error {
	if c.session == nil {
		return ErrNoSession
	}
	return c.session.Prompt.Submit(value, send)
}

// SendInput sends one line, blocking on the backend. A failed send is
// handled here: it becomes an error entry in the log and the session
// continues. The only error returned is ErrNoSession.
func (c *Controller) SendInput(ctx context.Context, text string) error {
	if c.session == nil {
		return ErrNoSession
	}
	id := c.session.ID
	if err := c.be.SendInput(ctx, text); err != nil {
		c.SendFailed(id, err)
	}
	return nil
}

// SendFailed records a failed send for sessionID in its log. It is a no-op
// when that session has ended.
func (c *Controller) SendFailed(sessionID string, err error) {
	if c.session == nil || c.session.ID != sessionID || err == nil {
		return
	}
	c.logger.Warn("send failed", "session", sessionID, "error", err)
	c.session.Log.Append(logbuf.Entry{
		Kind:    logbuf.KindError,
		Content: sendErrorPrefix + err.Error(),
		At:      c.now(),
	})
}

// =============================================================================
// TEARDOWN
// =============================================================================

// Leave ends the live session at the operator's request. It also cancels
// the bookkeeping of a connection attempt in progress.
func (c *Controller) Leave() {
	if c.connecting {
		c.connecting = false
		c.pendingAddr = ""
		_ = c.be.Close()
		return
	}
	if c.session == nil {
		return
	}
	c.logger.Info("leaving session", "session", c.session.ID)
	c.teardown(EndLeft)
}

// Close releases everything; the controller may not be used afterwards.
func (c *Controller) Close() error {
	c.Leave()
	return nil
}

// teardown releases the subscription exactly once, drops the connection,
// records the transcript and discards the session.
func (c *Controller) teardown(reason EndReason) {
	s := c.session
	if c.release != nil && c.sub != nil {
		sub := c.sub
		c.release.Do(sub.Unsubscribe)
	}
	if err := c.be.Close(); err != nil && !errors.Is(err, backend.ErrNotConnected) {
		c.logger.Debug("backend close", "error", err)
	}

	t := Transcript{
		SessionID:   s.ID,
		Address:     s.Address,
		StatusLabel: s.statusLabel,
		StartedAt:   s.StartedAt,
		EndedAt:     c.now(),
		Reason:      reason,
		Entries:     s.Log.Entries(),
	}
	c.last = &t

	if c.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := c.recorder.Record(ctx, t); err != nil {
			c.logger.Warn("transcript not saved", "session", s.ID, "error", err)
		}
		cancel()
	}

	c.session = nil
	c.sub = nil
	c.release = nil
	c.registry = nil
	c.fetched = false
}
