// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// plain.go - Line mode client for why2.
//
// Runs a session without the full-screen interface: server events are
// printed as they arrive and input is read with liner. Ctrl+C leaves the
// current session, Ctrl+D exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
	"github.com/ENGO150/WHY2-Desktop/internal/prompt"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
)

// addressPrompt is shown when no session is live.
const addressPrompt = "Server address: "

// chatPrompt is shown while chatting.
const chatPrompt = "> "

// PlainOptions configures a PlainClient.
type PlainOptions struct {
	// Controller drives the session (required)
	Controller *session.Controller
	// Reader supplies operator input (required)
	Reader LineReader
	// Out receives the session output
	Out io.Writer
	// DialTimeout bounds each connection attempt (default: 5s)
	DialTimeout time.Duration
	// Timestamps prefixes log lines with their arrival time
	Timestamps bool
	// Width wraps long lines at this many columns; 0 disables wrapping
	Width int
	// RawTerminal clears the current input line before printing, for
	// output that arrives while liner owns the terminal
	RawTerminal bool
	// Logger for diagnostics; nil discards
	Logger *slog.Logger
}

// PlainClient is the line mode session loop.
type PlainClient struct {
	ctrl        *session.Controller
	reader      LineReader
	out         io.Writer
	dialTimeout time.Duration
	timestamps  bool
	width       int
	raw         bool
	logger      *slog.Logger

	registry atomic.Pointer[commands.Registry]

	requests chan readRequest
	lines    chan readResult
	connects chan connectResult
	lists    chan registryResult
	sends    chan sendResult

	pending    *readRequest
	cancelDial context.CancelFunc
	shown      int
	label      string
}

type readKind int

const (
	readAddress readKind = iota
	readPrompt
	readChat
)

type readRequest struct {
	kind   readKind
	prompt string
	secret bool
}

type readResult struct {
	req  readRequest
	line string
	err  error
}

type connectResult struct {
	attempt uint64
	err     error
}

type registryResult struct {
	sessionID string
	prefix    string
	cmds      []commands.CommandInfo
	err       error
}

type sendResult struct {
	sessionID string
	err       error
}

// NewPlainClient creates a line mode client.
func NewPlainClient(opts PlainOptions) *PlainClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	dial := opts.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	p := &PlainClient{
		ctrl:        opts.Controller,
		reader:      opts.Reader,
		out:         out,
		dialTimeout: dial,
		timestamps:  opts.Timestamps,
		width:       opts.Width,
		raw:         opts.RawTerminal,
		logger:      logger.With("component", "plain"),
		requests:    make(chan readRequest),
		lines:       make(chan readResult),
		connects:    make(chan connectResult, 1),
		lists:       make(chan registryResult, 1),
		sends:       make(chan sendResult, 16),
	}
	p.registry.Store(commands.Empty())
	return p
}

// Run connects to address (or asks for one) and runs sessions until the
// input ends or ctx is cancelled.
func (p *PlainClient) Run(ctx context.Context, address string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.reader.SetCompleter(p.complete)
	go p.readLoop(ctx)

	defer p.ctrl.Leave()

	if strings.TrimSpace(address) != "" {
		p.startConnect(ctx, address)
	}

	for {
		p.requestRead(ctx)

		select {
		case <-ctx.Done():
			return nil

		case res := <-p.lines:
			p.pending = nil
			if done := p.handleLine(ctx, res); done {
				return nil
			}

		case res := <-p.connects:
			p.finishConnect(ctx, res)

		case ev, ok := <-p.ctrl.Events():
			if !ok {
				p.streamClosed()
				continue
			}
			p.handleEvent(ev)

		case res := <-p.lists:
			if p.ctrl.ApplyRegistry(res.sessionID, res.prefix, res.cmds, res.err) {
				p.registry.Store(p.ctrl.Registry())
			}

		case res := <-p.sends:
			p.ctrl.SendFailed(res.sessionID, res.err)
			p.flush(0)
		}
	}
}

// =============================================================================
// INPUT
// =============================================================================

// readLoop serves read requests one at a time. liner is not safe for
// concurrent use, so only this goroutine touches the reader.
func (p *PlainClient) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.requests:
			var res readResult
			res.req = req
			if req.secret {
				res.line, res.err = p.reader.ReadSecret(req.prompt)
			} else {
				res.line, res.err = p.reader.ReadLine(req.prompt)
			}
			select {
			case p.lines <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// nextRead decides what the operator is being asked for. There is nothing
// to type while connecting or while authenticating without a prompt.
func (p *PlainClient) nextRead() (readRequest, bool) {
	s := p.ctrl.Session()
	if s == nil {
		if p.ctrl.Phase() == session.Connecting {
			return readRequest{}, false
		}
		return readRequest{kind: readAddress, prompt: addressPrompt}, true
	}
	if cfg, ok := s.Prompt.Current(); ok {
		return readRequest{
			kind:   readPrompt,
			prompt: promptLabel(cfg.Label),
			secret: cfg.Kind == prompt.Secret,
		}, true
	}
	if s.Phase() == session.ChatActive {
		return readRequest{kind: readChat, prompt: chatPrompt}, true
	}
	return readRequest{}, false
}

func (p *PlainClient) requestRead(ctx context.Context) {
	if p.pending != nil {
		return
	}
	req, ok := p.nextRead()
	if !ok {
		return
	}
	select {
	case p.requests <- req:
		p.pending = &req
	case <-ctx.Done():
	}
}

// handleLine routes one line of input. It reports true when the client
// should exit.
func (p *PlainClient) handleLine(ctx context.Context, res readResult) bool {
	if res.err != nil {
		if errors.Is(res.err, ErrInterrupted) && p.ctrl.Phase() != session.Disconnected {
			p.stopDial()
			p.ctrl.Leave()
			p.sessionEnded("Left session.")
			return false
		}
		if !errors.Is(res.err, io.EOF) && !errors.Is(res.err, ErrInterrupted) {
			p.logger.Warn("input error", "error", res.err)
		}
		p.println("")
		return true
	}

	// The session may have moved on while the line was being typed.
	current, ok := p.nextRead()
	if !ok || current.kind != res.req.kind {
		if strings.TrimSpace(res.line) != "" {
			p.println(DimStyle.Render("(input discarded)"))
		}
		return false
	}

	switch res.req.kind {
	case readAddress:
		p.startConnect(ctx, res.line)

	case readPrompt:
		err := p.ctrl.SubmitPrompt(res.line, func(value string) {
			p.sendAsync(ctx, value)
		})
		if errors.Is(err, prompt.ErrEmptyValue) {
			p.println(WarningStyle.Render("A value is required."))
		}

	case readChat:
		if strings.TrimSpace(res.line) == "" {
			return false
		}
		p.reader.AppendHistory(res.line)
		p.sendAsync(ctx, res.line)
	}
	return false
}

// sendAsync issues a line without waiting; a failure is reported back to
// the loop and written to the session log.
func (p *PlainClient) sendAsync(ctx context.Context, text string) {
	s := p.ctrl.Session()
	if s == nil {
		return
	}
	id := s.ID
	be := p.ctrl.Backend()
	go func() {
		if err := be.SendInput(ctx, text); err != nil {
			select {
			case p.sends <- sendResult{sessionID: id, err: err}:
			case <-ctx.Done():
			}
		}
	}()
}

// complete offers command completions for liner's Tab handling. It runs
// on the reader goroutine and only reads the immutable registry.
func (p *PlainClient) complete(line string) []string {
	reg := p.registry.Load()
	suggestions := reg.SuggestionsFor(line)
	out := make([]string, 0, len(suggestions))
	for _, cmd := range suggestions {
		out = append(out, reg.Completion(cmd))
	}
	return out
}

// =============================================================================
// CONNECTING
// =============================================================================

func (p *PlainClient) startConnect(ctx context.Context, address string) {
	attempt, err := p.ctrl.BeginConnect(address)
	if err != nil {
		if !errors.Is(err, session.ErrEmptyAddress) {
			p.println(ErrorStyle.Render(err.Error()))
		}
		return
	}
	target := p.ctrl.PendingAddress()
	p.println(DimStyle.Render("Connecting to " + target + "..."))

	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	p.cancelDial = cancel
	be := p.ctrl.Backend()
	go func() {
		err := be.Connect(dialCtx, target)
		select {
		case p.connects <- connectResult{attempt: attempt, err: err}:
		case <-ctx.Done():
		}
	}()
}

// stopDial cancels the dial in flight, if any.
func (p *PlainClient) stopDial() {
	if p.cancelDial != nil {
		p.cancelDial()
		p.cancelDial = nil
	}
}

func (p *PlainClient) finishConnect(ctx context.Context, res connectResult) {
	err := p.ctrl.FinishConnect(res.attempt, res.err)
	if errors.Is(err, session.ErrNotConnecting) {
		// The attempt was abandoned; drop a connection that still came up.
		if res.err == nil && p.ctrl.Session() == nil {
			_ = p.ctrl.Backend().Close()
		}
		return
	}
	p.stopDial()
	if err != nil {
		p.println(ErrorStyle.Render("Could not connect: ") + err.Error())
		return
	}

	p.shown = 0
	p.label = ""
	p.registry.Store(commands.Empty())
	p.fetchRegistry(ctx)
}

// fetchRegistry requests the session's command list once.
func (p *PlainClient) fetchRegistry(ctx context.Context) {
	id, ok := p.ctrl.MarkRegistryRequested()
	if !ok {
		return
	}
	be := p.ctrl.Backend()
	go func() {
		prefix, cmds, err := be.GetCommands(ctx)
		select {
		case p.lists <- registryResult{sessionID: id, prefix: prefix, cmds: cmds, err: err}:
		case <-ctx.Done():
		}
	}()
}

// =============================================================================
// EVENTS
// =============================================================================

func (p *PlainClient) handleEvent(ev event.Event) {
	s := p.ctrl.Session()
	if s == nil {
		return
	}
	promptBefore := s.Prompt.IsOpen()
	before := s.Log.Len()
	retracted := int(ev.Retract())
	if retracted > before {
		retracted = before
	}

	if ended := p.ctrl.HandleEvent(ev); ended {
		p.sessionEnded("Session ended by the server.")
		return
	}

	p.flush(retracted)

	if label := s.StatusLabel(); label != p.label {
		p.label = label
		p.println(SuccessStyle.Render("Server: " + label))
	}

	// A prompt that opens while a chat line is being read would otherwise
	// go unnoticed until the line is entered.
	if cfg, ok := s.Prompt.Current(); ok && !promptBefore && p.pending != nil && p.pending.kind != readPrompt {
		p.println(InfoStyle.Render(promptLabel(cfg.Label)) + DimStyle.Render("(press Enter)"))
	}
}

func (p *PlainClient) streamClosed() {
	if p.ctrl.HandleStreamClosed() {
		p.sessionEnded("Connection closed.")
	}
}

// flush prints log entries not shown yet. retracted entries were removed
// from the tail of what was already printed.
func (p *PlainClient) flush(retracted int) {
	s := p.ctrl.Session()
	if s == nil {
		return
	}
	if retracted > 0 {
		p.println(DimStyle.Render(fmt.Sprintf("(%d line(s) retracted)", retracted)))
		p.shown -= retracted
		if p.shown < 0 {
			p.shown = 0
		}
	}
	p.printFrom(s.Log.Render())
}

func (p *PlainClient) printFrom(lines []logbuf.Line) {
	if p.shown > len(lines) {
		p.shown = len(lines)
	}
	for _, line := range lines[p.shown:] {
		text := RenderLine(line)
		indent := hangingIndent(line)
		if p.timestamps {
			text = DimStyle.Render(line.At.Format("15:04:05")) + " " + text
			indent += 9
		}
		p.println(WrapLine(text, p.width, indent))
	}
	p.shown = len(lines)
}

// sessionEnded prints whatever the last session logged after the most
// recent flush and resets per-session state.
func (p *PlainClient) sessionEnded(msg string) {
	if t, ok := p.ctrl.LastTranscript(); ok {
		var buf logbuf.Buffer
		for _, e := range t.Entries {
			buf.Append(e)
		}
		p.printFrom(buf.Render())
	}
	p.println(WarningStyle.Render(msg))
	p.shown = 0
	p.label = ""
	p.registry.Store(commands.Empty())
}

// =============================================================================
// OUTPUT
// =============================================================================

func (p *PlainClient) println(text string) {
	if p.raw {
		// liner keeps the terminal in raw mode while prompting.
		text = "\r\x1b[K" + strings.ReplaceAll(text, "\n", "\r\n") + "\r\n"
	} else {
		text += "\n"
	}
	io.WriteString(p.out, text)
}

func promptLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "> "
	}
	return label + " "
}
