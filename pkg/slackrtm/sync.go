// Copyright 2024-2026 Aiku AI

package slackrtm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aiku/slacktail/pkg/directory"
	"github.com/aiku/slacktail/pkg/model"
)

// SyncDirectory fills store from users.list and conversations.list.
// Bot users also register their bot id, so bot messages resolve by name.
func (c *APIClient) SyncDirectory(ctx context.Context, store *directory.Store, log zerolog.Logger) error {
	users, err := c.users(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync users: %w", err)
	}
	for _, u := range users {
		putUser(store, u)
	}

	convs, err := c.conversations(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync conversations: %w", err)
	}
	for _, conv := range convs {
		putConversation(store, conv)
	}

	counts := store.Counts()
	log.Info().
		Int("users", counts.Users).
		Int("bots", counts.Bots).
		Int("channels", counts.Channels).
		Int("groups", counts.Groups).
		Int("direct_messages", counts.DirectMessages).
		Msg("Directory synced")
	return nil
}

func putUser(store *directory.Store, u apiUser) {
	if u.ID == "" {
		return
	}
	realName := u.Profile.RealName
	if realName == "" {
		realName = u.RealName
	}
	store.PutUser(model.User{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.Profile.DisplayName,
		RealName:    realName,
	})
	if u.IsBot && u.Profile.BotID != "" {
		store.PutBot(model.Bot{ID: u.Profile.BotID, Name: u.Name})
	}
}

// putConversation files a conversation by the shape of its id, which is
// what lookups dispatch on.
func putConversation(store *directory.Store, conv apiConversation) {
	if conv.ID == "" {
		return
	}
	if conv.IsIM {
		store.PutDirectMessage(model.DirectMessage{ID: conv.ID, PeerUserID: conv.User})
		return
	}
	switch model.KindOf(conv.ID) {
	case model.ChannelKindGroup:
		store.PutGroup(model.Channel{ID: conv.ID, Name: conv.Name})
	case model.ChannelKindDirect:
		store.PutDirectMessage(model.DirectMessage{ID: conv.ID, PeerUserID: conv.User})
	default:
		store.PutChannel(model.Channel{ID: conv.ID, Name: conv.Name})
	}
}
