// Copyright 2024-2026 Aiku AI

// Package mute decides whether an event is suppressed from the transcript.
package mute

import (
	"fmt"

	"github.com/aiku/slacktail/pkg/directory"
	"github.com/aiku/slacktail/pkg/matcher"
	"github.com/aiku/slacktail/pkg/model"
)

// Rules are the raw mute lists as configured.
type Rules struct {
	Channels []string `yaml:"channels"`
	Users    []string `yaml:"users"`
}

// Engine holds the compiled rule sets. It is built once at startup and
// never modified afterwards.
type Engine struct {
	channels []*matcher.Matcher
	users    []*matcher.Matcher
	resolver *directory.Resolver
}

// New compiles both rule lists. A malformed pattern is returned as an
// error so startup can fail fast.
func New(rules Rules, resolver *directory.Resolver) (*Engine, error) {
	channels, users, err := Compile(rules)
	if err != nil {
		return nil, err
	}
	return NewCompiled(channels, users, resolver), nil
}

// Compile compiles both rule lists in order.
func Compile(rules Rules) (channels, users []*matcher.Matcher, err error) {
	channels, err = matcher.CompileAll(rules.Channels)
	if err != nil {
		return nil, nil, fmt.Errorf("mute.channels: %w", err)
	}
	users, err = matcher.CompileAll(rules.Users)
	if err != nil {
		return nil, nil, fmt.Errorf("mute.users: %w", err)
	}
	return channels, users, nil
}

// NewCompiled builds an Engine from already compiled matchers, so the
// rules can be compiled once and bound to a fresh resolver per connection.
func NewCompiled(channels, users []*matcher.Matcher, resolver *directory.Resolver) *Engine {
	return &Engine{channels: channels, users: users, resolver: resolver}
}

// IsChannelMuted checks the raw id before touching the directory. A channel
// that cannot be resolved only matches by id.
func (e *Engine) IsChannelMuted(evt model.Event) bool {
	if len(e.channels) == 0 {
		return false
	}
	if matcher.Any(e.channels, evt.Channel) {
		return true
	}
	name, ok := e.resolver.ConversationName(evt.Channel)
	if !ok {
		return false
	}
	return matcher.Any(e.channels, name)
}

// IsUserMuted checks the raw user id, then the user's names. Sigil rules
// (@name) only see the display string; other rules see every non-empty
// name the user has.
func (e *Engine) IsUserMuted(evt model.Event) bool {
	if len(e.users) == 0 {
		return false
	}
	if evt.UserID == "" {
		return e.isBotMuted(evt.BotID)
	}
	if matcher.Any(e.users, evt.UserID) {
		return true
	}
	u, ok := e.resolver.Directory().User(evt.UserID)
	if !ok {
		return false
	}
	display := directory.UserName(u)
	for _, m := range e.users {
		if m.Sigil() {
			if m.Test(display) {
				return true
			}
			continue
		}
		for _, candidate := range [...]string{u.DisplayName, u.Name, u.RealName} {
			if candidate != "" && m.Test(candidate) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) isBotMuted(botID string) bool {
	if botID == "" {
		return false
	}
	if matcher.Any(e.users, botID) {
		return true
	}
	name, ok := e.resolver.ResolveBot(botID)
	return ok && name != "" && matcher.Any(e.users, name)
}
