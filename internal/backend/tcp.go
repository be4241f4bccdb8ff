// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

const (
	// DefaultPort is appended to addresses given without a port.
	DefaultPort = 8080

	// DefaultDialTimeout bounds a connection attempt.
	DefaultDialTimeout = 5 * time.Second

	// DefaultEventBuffer is how many events queue before a subscriber drains them.
	DefaultEventBuffer = 256

	// maxFrameSize caps a single inbound line.
	maxFrameSize = 1 << 20

	// commandListType is the event_type of the reply to a commands request.
	commandListType = "command_list"
)

// TCPConfig configures a TCP backend.
type TCPConfig struct {
	// DefaultPort is used when the address has no port (default: 8080)
	DefaultPort int

	// DialTimeout bounds Connect (default: 5s)
	DialTimeout time.Duration

	// EventBuffer is the event queue length (default: 256)
	EventBuffer int

	// SendRate limits outbound lines per second; zero disables limiting
	SendRate float64

	// SendBurst is the number of lines allowed at once (default: 1)
	SendBurst int

	// Logger receives transport diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// =============================================================================
// WIRE FRAMES
// =============================================================================

// request is a frame sent to the server.
type request struct {
	Op   string `json:"op"`
	Text string `json:"text,omitempty"`
}

// commandList is the server's reply to a commands request.
type commandList struct {
	Prefix   string                 `json:"prefix"`
	Commands []commands.CommandInfo `json:"commands"`
}

// frameHeader is decoded first to route a frame.
type frameHeader struct {
	EventType string `json:"event_type"`
}

// =============================================================================
// TCP BACKEND
// =============================================================================

// TCP is a Backend speaking newline-delimited JSON over TCP.
type TCP struct {
	cfg     TCPConfig
	logger  *slog.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	conn       net.Conn
	events     chan event.Event
	lists      chan commandList
	done       chan struct{}
	subscribed bool
	closeOnce  *sync.Once
	gen        uint64

	writeMu sync.Mutex
}

// NewTCP creates an unconnected TCP backend.
func NewTCP(cfg TCPConfig) *TCP {
	if cfg.DefaultPort == 0 {
		cfg.DefaultPort = DefaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}

	return &TCP{
		cfg:     cfg,
		logger:  logger.With("component", "backend"),
		limiter: rate.NewLimiter(limit, cfg.SendBurst),
	}
}

// NormalizeAddress appends the default port when address has none and
// checks that the result is a host:port pair.
func NormalizeAddress(address string, defaultPort int) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("invalid address: empty")
	}
	if !strings.Contains(address, ":") {
		address = address + ":" + strconv.Itoa(defaultPort)
	}
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	if host == "" {
		return "", fmt.Errorf("invalid address %q: missing host", address)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid address %q: bad port", address)
	}
	return address, nil
}

// Connect dials address and starts reading events.
func (t *TCP) Connect(ctx context.Context, address string) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return ErrAlreadyConnected
	}
	t.mu.Unlock()

	addr, err := NormalizeAddress(address, t.cfg.DefaultPort)
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	t.conn = conn
	t.events = make(chan event.Event, t.cfg.EventBuffer)
	t.lists = make(chan commandList, 1)
	t.done = make(chan struct{})
	t.subscribed = false
	t.closeOnce = &sync.Once{}
	t.gen++
	events, lists, done := t.events, t.lists, t.done
	t.mu.Unlock()

	t.logger.Info("connected", "address", addr)
	go t.readLoop(conn, events, lists, done)
	return nil
}

// errFrameTooLong reports an inbound line longer than maxFrameSize.
var errFrameTooLong = errors.New("frame exceeds size limit")

// readFrame returns the next line without its terminator. A line over
// maxFrameSize is consumed up to its newline and reported as
// errFrameTooLong so the stream stays usable. buf is reused.
func readFrame(r *bufio.Reader, buf []byte) ([]byte, error) {
	buf = buf[:0]
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(bytes.TrimSuffix(chunk, []byte{'\n'})) > maxFrameSize {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case err == nil:
			if tooLong {
				return buf, errFrameTooLong
			}
			return bytes.TrimSuffix(buf, []byte{'\n'}), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && !tooLong && len(buf) > 0:
			return buf, nil
		default:
			return buf[:0], err
		}
	}
}

// readLoop decodes frames until the connection ends. It owns events and
// closes it on exit.
func (t *TCP) readLoop(conn net.Conn, events chan<- event.Event, lists chan<- commandList, done <-chan struct{}) {
	defer close(events)

	r := bufio.NewReaderSize(conn, 64*1024)
	buf := make([]byte, 0, 64*1024)
	var err error

	for {
		var line []byte
		line, err = readFrame(r, buf)
		if errors.Is(err, errFrameTooLong) {
			t.logger.Debug("dropping oversized frame", "limit", maxFrameSize)
			continue
		}
		if err != nil {
			break
		}
		buf = line[:0]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var hdr frameHeader
		if err := json.Unmarshal(line, &hdr); err != nil {
			t.logger.Debug("dropping malformed frame", "error", err)
			continue
		}

		if hdr.EventType == commandListType {
			var list commandList
			if err := json.Unmarshal(line, &list); err != nil {
				t.logger.Debug("dropping malformed command list", "error", err)
				continue
			}
			select {
			case lists <- list:
			default:
				t.logger.Debug("dropping unsolicited command list")
			}
			continue
		}

		ev, err := event.Decode(line)
		if err != nil {
			t.logger.Debug("dropping malformed frame", "error", err)
			continue
		}

		select {
		case events <- ev:
		case <-done:
			return
		}
	}

	select {
	case <-done:
		// Closed locally; the caller already knows.
		return
	default:
	}

	if !errors.Is(err, io.EOF) {
		t.logger.Warn("connection read failed", "error", err)
	} else {
		t.logger.Info("server closed connection")
	}

	select {
	case events <- DisconnectedEvent():
	case <-done:
	}
}

// SendInput writes one input frame, waiting for the send rate limit.
func (t *TCP) SendInput(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.write(request{Op: "input", Text: text})
}

// GetCommands requests the command list and waits for the reply.
func (t *TCP) GetCommands(ctx context.Context) (string, []commands.CommandInfo, error) {
	t.mu.Lock()
	lists, done := t.lists, t.done
	t.mu.Unlock()
	if lists == nil {
		return "", nil, ErrNotConnected
	}

	if err := t.write(request{Op: "commands"}); err != nil {
		return "", nil, err
	}

	select {
	case list := <-lists:
		return list.Prefix, list.Commands, nil
	case <-done:
		return "", nil, ErrNotConnected
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
}

func (t *TCP) write(req request) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", req.Op, err)
	}
	b = append(b, '\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("write %s: %w", req.Op, err)
	}
	return nil
}

// Subscribe attaches the event stream consumer.
func (t *TCP) Subscribe() (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, ErrNotConnected
	}
	if t.subscribed {
		return nil, ErrAlreadySubscribed
	}
	t.subscribed = true
	gen := t.gen
	return &subscription{events: t.events, release: func() {
		t.mu.Lock()
		if t.gen == gen {
			t.subscribed = false
		}
		t.mu.Unlock()
	}}, nil
}

// Close drops the connection.
func (t *TCP) Close() error {
	t.mu.Lock()
	conn, done, once := t.conn, t.done, t.closeOnce
	t.conn = nil
	t.lists = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}

	var err error
	once.Do(func() {
		close(done)
		err = conn.Close()
		t.logger.Info("connection closed")
	})
	return err
}

// =============================================================================
// SUBSCRIPTION
// =============================================================================

type subscription struct {
	events  <-chan event.Event
	release func()
	once    sync.Once
}

func (s *subscription) Events() <-chan event.Event {
	return s.events
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.release)
}
