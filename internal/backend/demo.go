// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"strings"
	"sync"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
)

// NewDemo returns a Memory backend that plays a small local server: it
// asks for a username and password, then echoes chat lines and answers a
// few commands. It needs no network.
func NewDemo() *Memory {
	d := &demo{}
	m := NewMemory()
	m.Prefix = "/"
	m.Commands = []commands.CommandInfo{
		{Name: "help", Triggers: []string{"help", "h"}, Description: "List commands"},
		{Name: "who", Triggers: []string{"who"}, Description: "List users online"},
		{Name: "whois", Triggers: []string{"whois"}, Args: []commands.Arg{{Name: "user", Required: true}}, Description: "Show a user"},
		{Name: "undo", Triggers: []string{"undo"}, Description: "Retract your last message"},
		{Name: "quit", Triggers: []string{"quit", "exit"}, Description: "Leave the server"},
	}
	m.OnConnect = d.connect
	m.OnInput = d.input
	return m
}

type demoStage int

const (
	demoUsername demoStage = iota
	demoPassword
	demoChat
)

type demo struct {
	mu    sync.Mutex
	stage demoStage
	user  string
}

func (d *demo) connect(m *Memory, address string) {
	d.mu.Lock()
	d.stage = demoUsername
	d.user = ""
	d.mu.Unlock()

	m.Emit(event.Status{Content: "connected", Label: "demo@" + address})
	m.Emit(event.Info{Content: "Successfully connected to " + address + "."})
	m.Emit(event.UIControl{Target: "Enter username:", Enabled: true, InputType: "text"})
}

func (d *demo) input(m *Memory, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.stage {
	case demoUsername:
		d.user = strings.TrimSpace(text)
		d.stage = demoPassword
		m.Emit(event.UIControl{Target: "Enter password:", Enabled: true, InputType: event.PasswordInput})
	case demoPassword:
		d.stage = demoChat
		m.Emit(event.UIControl{Target: event.ChatInputTarget, Enabled: true})
		m.Emit(event.Info{Content: "Welcome, " + d.user + ". Type /help for commands."})
	default:
		d.chat(m, text)
	}
}

func (d *demo) chat(m *Memory, text string) {
	if !strings.HasPrefix(text, "/") {
		m.Emit(event.Message{Content: text, Username: d.user})
		return
	}

	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return
	}
	switch strings.ToLower(fields[0]) {
	case "help", "h":
		for _, c := range m.Commands {
			m.Emit(event.Info{Content: commands.Usage(m.Prefix, c) + " - " + c.Description})
		}
	case "who":
		m.Emit(event.Info{Content: "Online: " + d.user})
	case "whois":
		if len(fields) < 2 {
			m.Emit(event.Error{Content: "Usage: /whois <user>"})
			return
		}
		m.Emit(event.Info{Content: fields[1] + " is a demo user."})
	case "undo":
		m.Emit(event.Clear{Header: event.Header{ClearCount: 1}})
	case "quit", "exit":
		m.Hangup()
	default:
		m.Emit(event.Error{Content: "Unknown command: " + fields[0]})
	}
}
