// Copyright 2024-2026 Aiku AI

// Package directory resolves opaque user, bot and conversation ids to
// display names over a read-only snapshot maintained by the transport.
//
// Resolution never fails: an id missing from every table renders as the
// unknown placeholder "(unknown:<id>)". Entries may appear or vanish
// between two lookups; each lookup is a point-in-time read.
package directory

import (
	"github.com/aiku/slacktail/pkg/model"
)

// Directory is the read-only view of the workspace the transport keeps in
// sync. Implementations must be safe to call from the event loop while the
// transport updates them.
type Directory interface {
	User(id string) (model.User, bool)
	Bot(id string) (model.Bot, bool)
	Channel(id string) (model.Channel, bool)
	Group(id string) (model.Channel, bool)
	DirectMessage(id string) (model.DirectMessage, bool)
}

// Unknown returns the placeholder used for an id that cannot be resolved.
func Unknown(id string) string {
	return "(unknown:" + id + ")"
}

// UnknownSender is the sender tag for events that carry no id at all.
const UnknownSender = "(unknown)"

// Resolver turns ids into display strings.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Directory returns the snapshot the resolver reads from.
func (r *Resolver) Directory() Directory {
	return r.dir
}

// UserName returns the display string of a known user: the display name
// when set, otherwise the account name.
func UserName(u model.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// ResolveUser falls back to the bots table so bot users posting with a user
// id still get a name.
func (r *Resolver) ResolveUser(id string) string {
	if u, ok := r.dir.User(id); ok {
		return UserName(u)
	}
	if b, ok := r.dir.Bot(id); ok {
		return b.Name
	}
	return Unknown(id)
}

// HasUser reports whether ResolveUser would find a name for id.
func (r *Resolver) HasUser(id string) bool {
	if _, ok := r.dir.User(id); ok {
		return true
	}
	_, ok := r.dir.Bot(id)
	return ok
}

// ResolveBot leaves the fallback to the caller.
func (r *Resolver) ResolveBot(id string) (string, bool) {
	b, ok := r.dir.Bot(id)
	if !ok {
		return "", false
	}
	return b.Name, true
}

func (r *Resolver) ResolveChannel(id string) string {
	if c, ok := r.dir.Channel(id); ok {
		return "#" + c.Name
	}
	return Unknown(id)
}

func (r *Resolver) ResolveGroup(id string) string {
	if g, ok := r.dir.Group(id); ok {
		return g.Name
	}
	return Unknown(id)
}

func (r *Resolver) ResolveDirectMessage(id string) string {
	if dm, ok := r.dir.DirectMessage(id); ok {
		return "@" + r.ResolveUser(dm.PeerUserID)
	}
	return Unknown(id)
}

// ResolveConversation dispatches on the id's tag character.
func (r *Resolver) ResolveConversation(id string) string {
	switch model.KindOf(id) {
	case model.ChannelKindGroup:
		return r.ResolveGroup(id)
	case model.ChannelKindDirect:
		return r.ResolveDirectMessage(id)
	default:
		return r.ResolveChannel(id)
	}
}

// ConversationName returns the bare name of a channel or group, checking
// the channels table first. Direct messages have no name.
func (r *Resolver) ConversationName(id string) (string, bool) {
	if c, ok := r.dir.Channel(id); ok {
		return c.Name, true
	}
	if g, ok := r.dir.Group(id); ok {
		return g.Name, true
	}
	return "", false
}
