// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ENGO150/WHY2-Desktop/internal/event"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeServer accepts one connection and exposes its frames.
type fakeServer struct {
	ln       net.Listener
	conn     chan net.Conn
	requests chan request
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{ln: ln, conn: make(chan net.Conn, 1), requests: make(chan request, 16)}
	t.Cleanup(func() { ln.Close() })

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		s.conn <- c
		r := bufio.NewReader(c)
		for {
			line, err := r.ReadBytes('\n')
			if err != nil {
				return
			}
			var req request
			if json.Unmarshal(line, &req) == nil {
				s.requests <- req
			}
		}
	}()
	return s
}

func (s *fakeServer) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-s.conn:
		t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("server did not accept a connection")
		return nil
	}
}

func (s *fakeServer) nextRequest(t *testing.T) request {
	t.Helper()
	select {
	case r := <-s.requests:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no request received")
		return request{}
	}
}

func recvEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"chat.example", "chat.example:8080", false},
		{"chat.example:9000", "chat.example:9000", false},
		{" 127.0.0.1 ", "127.0.0.1:8080", false},
		{"", "", true},
		{":9000", "", true},
		{"host:notaport", "", true},
		{"host:70000", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeAddress(tt.in, 8080)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTCP_EventsBeforeSubscribeAreKept(t *testing.T) {
	srv := newFakeServer(t)
	be := NewTCP(TCPConfig{Logger: quietLogger()})
	defer be.Close()

	require.NoError(t, be.Connect(context.Background(), srv.ln.Addr().String()))
	conn := srv.accept(t)

	_, err := conn.Write([]byte(
		`{"event_type":"status","content":"connected","extra":"why2"}` + "\n" +
			"not json\n" +
			"\n" +
			`{"event_type":"ui_control","content":"Enter username:","state_bool":true,"extra":"text"}` + "\n"))
	require.NoError(t, err)

	sub, err := be.Subscribe()
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Equal(t, event.Status{Content: "connected", Label: "why2"}, recvEvent(t, sub.Events()))
	require.Equal(t, event.UIControl{Target: "Enter username:", Enabled: true, InputType: "text"}, recvEvent(t, sub.Events()))
}

func TestTCP_SingleSubscriber(t *testing.T) {
	srv := newFakeServer(t)
	be := NewTCP(TCPConfig{Logger: quietLogger()})
	defer be.Close()

	_, err := be.Subscribe()
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, be.Connect(context.Background(), srv.ln.Addr().String()))
	srv.accept(t)

	sub, err := be.Subscribe()
	require.NoError(t, err)
	_, err = be.Subscribe()
	require.ErrorIs(t, err, ErrAlreadySubscribed)

	sub.Unsubscribe()
	sub.Unsubscribe()
	sub2, err := be.Subscribe()
	require.NoError(t, err)
	sub2.Unsubscribe()
}

func TestTCP_SendInputAndCommands(t *testing.T) {
	srv := newFakeServer(t)
	be := NewTCP(TCPConfig{Logger: quietLogger(), SendRate: 1000, SendBurst: 10})
	defer be.Close()

	ctx := context.Background()
	require.NoError(t, be.Connect(ctx, srv.ln.Addr().String()))
	conn := srv.accept(t)

	require.NoError(t, be.SendInput(ctx, "hello there"))
	require.Equal(t, request{Op: "input", Text: "hello there"}, srv.nextRequest(t))

	type result struct {
		prefix string
		n      int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		prefix, cmds, err := be.GetCommands(ctx)
		done <- result{prefix, len(cmds), err}
	}()

	require.Equal(t, request{Op: "commands"}, srv.nextRequest(t))
	_, err := conn.Write([]byte(`{"event_type":"command_list","prefix":"/","commands":[{"name":"who","triggers":["who","w"],"args":[],"description":"List users"}]}` + "\n"))
	require.NoError(t, err)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.Equal(t, "/", r.prefix)
		require.Equal(t, 1, r.n)
	case <-time.After(2 * time.Second):
		t.Fatal("GetCommands did not return")
	}
}

func TestTCP_GetCommandsHonoursContext(t *testing.T) {
	srv := newFakeServer(t)
	be := NewTCP(TCPConfig{Logger: quietLogger()})
	defer be.Close()

	require.NoError(t, be.Connect(context.Background(), srv.ln.Addr().String()))
	srv.accept(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := be.GetCommands(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestTCP_ServerHangupEmitsDisconnected(t *testing.T) {
	srv := newFakeServer(t)
	be := NewTCP(TCPConfig{Logger: quietLogger()})
	defer be.Close()

	require.NoError(t, be.Connect(context.Background(), srv.ln.Addr().String()))
	conn := srv.accept(t)
	sub, err := be.Subscribe()
	require.NoError(t, err)

	conn.Close()

	require.Equal(t, DisconnectedEvent(), recvEvent(t, sub.Events()))
	select {
	case _, ok := <-sub.Events():
		require.False(t, ok, "channel should close after disconnect")
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed")
	}
}

func TestTCP_OversizedFrameIsDropped(t *testing.T) {
	srv := newFakeServer(t)
	be := NewTCP(TCPConfig{Logger: quietLogger()})
	defer be.Close()

	require.NoError(t, be.Connect(context.Background(), srv.ln.Addr().String()))
	conn := srv.accept(t)
	sub, err := be.Subscribe()
	require.NoError(t, err)
	defer sub.Unsubscribe()

	big := `{"event_type":"message","content":"` + strings.Repeat("x", 2*maxFrameSize) + `"}` + "\n"
	go func() {
		conn.Write([]byte(big))
		conn.Write([]byte(`{"event_type":"info","content":"still here"}` + "\n"))
	}()

	require.Equal(t, event.Info{Content: "still here"}, recvEvent(t, sub.Events()))
}

func TestReadFrame(t *testing.T) {
	long := strings.Repeat("y", maxFrameSize+1)
	exact := strings.Repeat("z", maxFrameSize)
	r := bufio.NewReaderSize(strings.NewReader("a\n"+long+"\nb\r\n"+exact+"\ntail"), 4096)

	var buf []byte
	line, err := readFrame(r, buf)
	require.NoError(t, err)
	require.Equal(t, "a", string(line))

	_, err = readFrame(r, buf)
	require.ErrorIs(t, err, errFrameTooLong)

	line, err = readFrame(r, buf)
	require.NoError(t, err)
	require.Equal(t, "b\r", string(line))

	line, err = readFrame(r, buf)
	require.NoError(t, err)
	require.Len(t, line, maxFrameSize)

	line, err = readFrame(r, buf)
	require.NoError(t, err)
	require.Equal(t, "tail", string(line))

	_, err = readFrame(r, buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestTCP_ConcurrentConnectKeepsOneConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	be := NewTCP(TCPConfig{Logger: quietLogger()})
	defer be.Close()

	errs := make(chan error, 2)
	for range 2 {
		go func() { errs <- be.Connect(context.Background(), ln.Addr().String()) }()
	}
	var ok, busy int
	for range 2 {
		switch err := <-errs; {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyConnected):
			busy++
		default:
			t.Fatalf("unexpected connect error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, busy)
}

func TestTCP_NotConnected(t *testing.T) {
	be := NewTCP(TCPConfig{Logger: quietLogger()})
	ctx := context.Background()

	require.ErrorIs(t, be.SendInput(ctx, "x"), ErrNotConnected)
	_, _, err := be.GetCommands(ctx)
	require.ErrorIs(t, err, ErrNotConnected)
	require.NoError(t, be.Close())
}

func TestTCP_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	be := NewTCP(TCPConfig{Logger: quietLogger(), DialTimeout: time.Second})
	require.Error(t, be.Connect(context.Background(), addr))

	_, err = be.Subscribe()
	require.ErrorIs(t, err, ErrNotConnected)
}
