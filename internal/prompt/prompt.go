// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt holds the single modal input request a server may have
// open at any time.
//
// Opening a prompt replaces whatever prompt was open before; prompts are
// never stacked. Submitting a value hands it to the caller's send function
// and closes the prompt at once, without waiting for the send to finish.
// The server opens the next prompt itself when it needs more input.
package prompt

import "errors"

var (
	// ErrEmptyValue is returned when an empty answer is submitted.
	ErrEmptyValue = errors.New("prompt: empty value")

	// ErrNoPrompt is returned when Submit is called with no open prompt.
	ErrNoPrompt = errors.New("prompt: no prompt open")
)

// Kind selects how the answer is entered.
type Kind int

const (
	// Text prompts echo what is typed.
	Text Kind = iota
	// Secret prompts mask what is typed.
	Secret
)

// String returns "text" or "secret".
func (k Kind) String() string {
	if k == Secret {
		return "secret"
	}
	return "text"
}

// Config describes one prompt.
type Config struct {
	Label string
	Kind  Kind
}

// Controller holds zero or one open prompt. The zero value has no prompt.
type Controller struct {
	current *Config
}

// Open shows cfg, replacing any open prompt.
func (c *Controller) Open(cfg Config) {
	c.current = &cfg
}

// Close dismisses the open prompt, if any.
func (c *Controller) Close() {
	c.current = nil
}

// Current returns the open prompt.
func (c *Controller) Current() (Config, bool) {
	if c.current == nil {
		return Config{}, false
	}
	return *c.current, true
}

// IsOpen reports whether a prompt is open.
func (c *Controller) IsOpen() bool {
	return c.current != nil
}

// Submit answers the open prompt. An empty value is rejected and nothing is
// sent. Otherwise send is called with the value and the prompt closes
// whatever the outcome of the send turns out to be.
func (c *Controller) Submit(value string, send func(string)) error {
	if c.current == nil {
		return ErrNoPrompt
	}
	if value == "" {
		return ErrEmptyValue
	}
	send(value)
	c.Close()
	return nil
}
