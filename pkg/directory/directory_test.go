// Copyright 2024-2026 Aiku AI

package directory

import (
	"sync"
	"testing"

	"github.com/aiku/slacktail/pkg/model"
)

func newTestStore() *Store {
	s := NewStore()
	s.PutUser(model.User{ID: "U1", Name: "alice", RealName: "Alice A"})
	s.PutUser(model.User{ID: "U2", Name: "bob", DisplayName: "Bobby"})
	s.PutBot(model.Bot{ID: "B1", Name: "deploybot"})
	s.PutChannel(model.Channel{ID: "C1", Name: "general"})
	s.PutGroup(model.Channel{ID: "G1", Name: "secret-ops"})
	s.PutDirectMessage(model.DirectMessage{ID: "D1", PeerUserID: "U2"})
	s.PutDirectMessage(model.DirectMessage{ID: "D2", PeerUserID: "U404"})
	return s
}

func TestResolveUser(t *testing.T) {
	t.Parallel()
	r := NewResolver(newTestStore())
	tests := []struct {
		id   string
		want string
	}{
		{"U1", "alice"},
		{"U2", "Bobby"},
		{"B1", "deploybot"},
		{"U9", "(unknown:U9)"},
		{"", "(unknown:)"},
	}
	for _, tt := range tests {
		if got := r.ResolveUser(tt.id); got != tt.want {
			t.Errorf("ResolveUser(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestResolveBot(t *testing.T) {
	t.Parallel()
	r := NewResolver(newTestStore())
	if name, ok := r.ResolveBot("B1"); !ok || name != "deploybot" {
		t.Errorf("ResolveBot(B1) = %q, %v", name, ok)
	}
	if name, ok := r.ResolveBot("B9"); ok || name != "" {
		t.Errorf("ResolveBot(B9) = %q, %v; want absent", name, ok)
	}
}

func TestResolveConversation(t *testing.T) {
	t.Parallel()
	r := NewResolver(newTestStore())
	tests := []struct {
		id   string
		want string
	}{
		{"C1", "#general"},
		{"G1", "secret-ops"},
		{"D1", "@Bobby"},
		{"D2", "@(unknown:U404)"},
		{"C9", "(unknown:C9)"},
		{"G9", "(unknown:G9)"},
		{"D9", "(unknown:D9)"},
	}
	for _, tt := range tests {
		if got := r.ResolveConversation(tt.id); got != tt.want {
			t.Errorf("ResolveConversation(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestResolveDispatchDoesNotCrossTables(t *testing.T) {
	t.Parallel()
	s := NewStore()
	// A group id that only exists in the channels table is not found by
	// tag dispatch.
	s.PutChannel(model.Channel{ID: "G7", Name: "misfiled"})
	r := NewResolver(s)
	if got := r.ResolveConversation("G7"); got != "(unknown:G7)" {
		t.Errorf("got %q", got)
	}
	if name, ok := r.ConversationName("G7"); !ok || name != "misfiled" {
		t.Errorf("ConversationName should search both tables, got %q, %v", name, ok)
	}
}

func TestConversationName(t *testing.T) {
	t.Parallel()
	r := NewResolver(newTestStore())
	if name, ok := r.ConversationName("C1"); !ok || name != "general" {
		t.Errorf("C1: %q, %v", name, ok)
	}
	if name, ok := r.ConversationName("G1"); !ok || name != "secret-ops" {
		t.Errorf("G1: %q, %v", name, ok)
	}
	if _, ok := r.ConversationName("D1"); ok {
		t.Error("direct messages have no conversation name")
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()
	r := NewResolver(newTestStore())
	for _, id := range []string{"U1", "U9", "C1", "D1", "G9"} {
		first := r.ResolveConversation(id) + r.ResolveUser(id)
		second := r.ResolveConversation(id) + r.ResolveUser(id)
		if first != second {
			t.Errorf("resolution of %q changed between calls: %q vs %q", id, first, second)
		}
	}
}

func TestHasUser(t *testing.T) {
	t.Parallel()
	r := NewResolver(newTestStore())
	if !r.HasUser("U1") || !r.HasUser("B1") {
		t.Error("expected users and bots to be found")
	}
	if r.HasUser("U9") {
		t.Error("unexpected hit")
	}
}

func TestStoreRemoveConversation(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.RemoveConversation("C1")
	s.RemoveConversation("D1")
	if _, ok := s.Channel("C1"); ok {
		t.Error("C1 should be gone")
	}
	if _, ok := s.DirectMessage("D1"); ok {
		t.Error("D1 should be gone")
	}
	c := s.Counts()
	if c.Channels != 0 || c.Groups != 1 || c.DirectMessages != 1 || c.Users != 2 || c.Bots != 1 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestStoreConcurrentReadWrite(t *testing.T) {
	t.Parallel()
	s := NewStore()
	r := NewResolver(s)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.PutChannel(model.Channel{ID: "C1", Name: "general"})
			s.RemoveConversation("C1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			got := r.ResolveConversation("C1")
			if got != "#general" && got != "(unknown:C1)" {
				t.Errorf("torn read: %q", got)
				return
			}
		}
	}()
	wg.Wait()
}
