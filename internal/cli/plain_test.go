// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ENGO150/WHY2-Desktop/internal/backend"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
)

// scriptReader is a LineReader driven by the test: every read is reported
// on calls and answered from answers. Closing answers ends the input.
type scriptReader struct {
	calls   chan readCall
	answers chan string

	mu        sync.Mutex
	history   []string
	completer func(string) []string
}

type readCall struct {
	prompt string
	secret bool
}

func newScriptReader() *scriptReader {
	return &scriptReader{
		calls:   make(chan readCall, 8),
		answers: make(chan string),
	}
}

func (r *scriptReader) read(prompt string, secret bool) (string, error) {
	r.calls <- readCall{prompt: prompt, secret: secret}
	line, ok := <-r.answers
	if !ok {
		return "", io.EOF
	}
	if line == "^C" {
		return "", ErrInterrupted
	}
	return line, nil
}

func (r *scriptReader) ReadLine(prompt string) (string, error)   { return r.read(prompt, false) }
func (r *scriptReader) ReadSecret(prompt string) (string, error) { return r.read(prompt, true) }
func (r *scriptReader) Close() error                             { return nil }

func (r *scriptReader) AppendHistory(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, line)
}

func (r *scriptReader) SetCompleter(f func(string) []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completer = f
}

func (r *scriptReader) complete(line string) []string {
	r.mu.Lock()
	f := r.completer
	r.mu.Unlock()
	return f(line)
}

// expect waits for the next read and answers it.
func (r *scriptReader) expect(t *testing.T, prompt string, secret bool, answer string) {
	t.Helper()
	select {
	case call := <-r.calls:
		require.Equal(t, prompt, call.prompt)
		require.Equal(t, secret, call.secret, "secret input for %q", prompt)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for prompt %q", prompt)
	}
	r.answers <- answer
}

// syncBuffer is a goroutine-safe output sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) waitFor(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(b.String()), []byte(want))
	}, 5*time.Second, 10*time.Millisecond, "output never contained %q:\n%s", want, b.String())
}

type plainHarness struct {
	be     *backend.Memory
	ctrl   *session.Controller
	reader *scriptReader
	out    *syncBuffer
	done   chan error
	cancel context.CancelFunc
}

func startPlain(t *testing.T, be *backend.Memory, address string) *plainHarness {
	t.Helper()
	h := &plainHarness{
		be:     be,
		ctrl:   session.NewController(session.Options{Backend: be}),
		reader: newScriptReader(),
		out:    &syncBuffer{},
		done:   make(chan error, 1),
	}
	client := NewPlainClient(PlainOptions{
		Controller:  h.ctrl,
		Reader:      h.reader,
		Out:         h.out,
		DialTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- client.Run(ctx, address) }()
	t.Cleanup(cancel)
	return h
}

// finish answers any stale read left from the ended session, then ends
// input at the address prompt and waits for Run to return.
func (h *plainHarness) finish(t *testing.T) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case call := <-h.reader.calls:
			if call.prompt != addressPrompt {
				h.reader.answers <- ""
				continue
			}
			close(h.reader.answers)
		case <-deadline:
			t.Fatal("timed out waiting for the address prompt")
		}
		break
	}
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after end of input")
	}
}

func TestPlainClient_DemoSession(t *testing.T) {
	be := backend.NewDemo()
	h := startPlain(t, be, "demo.local")

	h.reader.expect(t, "Enter username: ", false, "alice")
	h.reader.expect(t, "Enter password: ", true, "hunter2")
	h.reader.expect(t, chatPrompt, false, "hello")
	h.out.waitFor(t, "[alice]:")
	h.out.waitFor(t, "hello")

	// Tab completion uses the fetched command list.
	require.Eventually(t, func() bool {
		return len(h.reader.complete("/wh")) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"/who ", "/whois "}, h.reader.complete("/wh"))
	assert.Empty(t, h.reader.complete("wh"))

	h.reader.expect(t, chatPrompt, false, "/quit")
	h.out.waitFor(t, "Session ended by the server.")
	h.finish(t)

	out := h.out.String()
	assert.Contains(t, out, "Server: demo@demo.local")
	assert.Contains(t, out, "Successfully connected to demo.local.")
	assert.Contains(t, out, "Welcome, alice.")
	assert.Equal(t, []string{"alice", "hunter2", "hello", "/quit"}, be.Sent())
	assert.Equal(t, []string{"hello", "/quit"}, h.reader.history, "prompt answers stay out of history")
	subs, unsubs := be.SubscriptionCounts()
	assert.Equal(t, 1, subs)
	assert.Equal(t, 1, unsubs)
}

func TestPlainClient_EmptyPromptValueIsRejected(t *testing.T) {
	be := backend.NewDemo()
	h := startPlain(t, be, "demo.local")

	h.reader.expect(t, "Enter username: ", false, "")
	h.out.waitFor(t, "A value is required.")
	h.reader.expect(t, "Enter username: ", false, "bob")
	h.reader.expect(t, "Enter password: ", true, "pw")
	h.reader.expect(t, chatPrompt, false, "^C")
	h.out.waitFor(t, "Left session.")
	h.finish(t)

	assert.Equal(t, []string{"bob", "pw"}, be.Sent())
}

func TestPlainClient_ConnectFailureAsksAgain(t *testing.T) {
	be := backend.NewMemory()
	be.ConnectErr = errors.New("connection refused")
	h := startPlain(t, be, "")

	h.reader.expect(t, addressPrompt, false, "nowhere:1")
	h.out.waitFor(t, "connection refused")
	h.finish(t)

	assert.Equal(t, []string{"nowhere:1"}, be.Addresses())
	assert.Equal(t, session.Disconnected, h.ctrl.Phase())
}

func TestPlainClient_SendFailureIsLogged(t *testing.T) {
	be := backend.NewMemory()
	be.SendErr = errors.New("broken pipe")
	be.OnConnect = func(m *backend.Memory, _ string) {
		m.Emit(event.UIControl{Target: event.ChatInputTarget, Enabled: true})
	}
	h := startPlain(t, be, "host")

	h.reader.expect(t, chatPrompt, false, "hello")
	h.out.waitFor(t, "Error sending: broken pipe")
	assert.Empty(t, be.Sent())

	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPlainClient_Retraction(t *testing.T) {
	be := backend.NewMemory()
	be.OnConnect = func(m *backend.Memory, _ string) {
		m.Emit(event.UIControl{Target: event.ChatInputTarget, Enabled: true})
		m.Emit(event.Message{Content: "oops", Username: "carol"})
		m.Emit(event.Clear{Header: event.Header{ClearCount: 1}})
		m.Emit(event.Message{Content: "fixed", Username: "carol"})
	}
	h := startPlain(t, be, "host")

	h.out.waitFor(t, "fixed")
	h.out.waitFor(t, "(1 line(s) retracted)")
	h.reader.expect(t, chatPrompt, false, "^C")
	h.finish(t)
}
