// Copyright 2024-2026 Aiku AI

package directory

import (
	"sync"

	"github.com/aiku/slacktail/pkg/model"
)

// Store is an in-memory Directory. The transport owns it and is the only
// writer; readers see each table under a read lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	bots     map[string]model.Bot
	channels map[string]model.Channel
	groups   map[string]model.Channel
	ims      map[string]model.DirectMessage
}

var _ Directory = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:    make(map[string]model.User),
		bots:     make(map[string]model.Bot),
		channels: make(map[string]model.Channel),
		groups:   make(map[string]model.Channel),
		ims:      make(map[string]model.DirectMessage),
	}
}

func (s *Store) User(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) Bot(id string) (model.Bot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bots[id]
	return b, ok
}

func (s *Store) Channel(id string) (model.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[id]
	return c, ok
}

func (s *Store) Group(id string) (model.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}

func (s *Store) DirectMessage(id string) (model.DirectMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dm, ok := s.ims[id]
	return dm, ok
}

func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}

func (s *Store) PutBot(b model.Bot) {
	s.mu.Lock()
	s.bots[b.ID] = b
	s.mu.Unlock()
}

func (s *Store) PutChannel(c model.Channel) {
	s.mu.Lock()
	s.channels[c.ID] = c
	s.mu.Unlock()
}

func (s *Store) PutGroup(g model.Channel) {
	s.mu.Lock()
	s.groups[g.ID] = g
	s.mu.Unlock()
}

func (s *Store) PutDirectMessage(dm model.DirectMessage) {
	s.mu.Lock()
	s.ims[dm.ID] = dm
	s.mu.Unlock()
}

// RemoveConversation drops id from every conversation table.
func (s *Store) RemoveConversation(id string) {
	s.mu.Lock()
	delete(s.channels, id)
	delete(s.groups, id)
	delete(s.ims, id)
	s.mu.Unlock()
}

// Counts is a size summary for logging.
type Counts struct {
	Users, Bots, Channels, Groups, DirectMessages int
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Users:          len(s.users),
		Bots:           len(s.bots),
		Channels:       len(s.channels),
		Groups:         len(s.groups),
		DirectMessages: len(s.ims),
	}
}
