// Copyright 2024-2026 Aiku AI

package slackrtm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	mmodel "github.com/mattermost/mattermost/server/public/model"
	"github.com/tidwall/gjson"

	"github.com/aiku/slacktail/pkg/connerr"
	"github.com/aiku/slacktail/pkg/model"
	"github.com/aiku/slacktail/pkg/supervisor"
)

// handleFrame dispatches one RTM frame. A non-nil error ends the session.
func (t *Transport) handleFrame(data []byte, h supervisor.Handler) error {
	if !gjson.ValidBytes(data) {
		t.log.Warn().Int("len", len(data)).Msg("Ignoring malformed frame")
		return nil
	}
	frame := gjson.ParseBytes(data)
	evtType := frame.Get("type").String()

	switch evtType {
	case "hello":
		h.OnHello()
	case "message":
		h.OnMessage(decodeMessage(frame))
	case "goodbye":
		return connerr.New(connerr.KindTaskStopped, "", errors.New("server sent goodbye"))
	case "team_migration_started":
		return connerr.New(connerr.KindRateLimited, "migration_in_progress", errors.New("team migration started"))
	case "error":
		return connerr.New(connerr.KindService, frame.Get("error.code").String(),
			fmt.Errorf("rtm error: %s", frame.Get("error.msg").String()))
	case "user_change", "team_join":
		putUser(t.store, decodeUser(frame.Get("user")))
	case "bot_added", "bot_changed":
		bot := frame.Get("bot")
		if id := bot.Get("id").String(); id != "" {
			t.store.PutBot(model.Bot{ID: id, Name: bot.Get("name").String()})
		}
	case "channel_created", "channel_joined", "channel_rename",
		"group_joined", "group_rename":
		ch := frame.Get("channel")
		putConversation(t.store, apiConversation{
			ID:   ch.Get("id").String(),
			Name: ch.Get("name").String(),
		})
	case "im_created":
		putConversation(t.store, apiConversation{
			ID:   frame.Get("channel.id").String(),
			IsIM: true,
			User: frame.Get("user").String(),
		})
	case "channel_deleted", "group_archive", "channel_archive":
		t.store.RemoveConversation(frame.Get("channel").String())
	case "":
		// Replies to our pings carry reply_to and no type.
		if !frame.Get("reply_to").Exists() {
			t.log.Debug().Str("frame", string(data)).Msg("Ignoring untyped frame")
		}
	default:
		t.log.Trace().Str("type", evtType).Msg("Ignoring event")
	}
	return nil
}

func decodeMessage(frame gjson.Result) model.Event {
	evt := model.Event{
		Channel:  frame.Get("channel").String(),
		UserID:   frame.Get("user").String(),
		BotID:    frame.Get("bot_id").String(),
		Username: frame.Get("username").String(),
		Subtype:  frame.Get("subtype").String(),
		Text:     frame.Get("text").String(),
		Hidden:   frame.Get("hidden").Bool(),
	}
	if ts, err := strconv.ParseFloat(frame.Get("ts").String(), 64); err == nil {
		evt.Timestamp = ts
	}
	for _, raw := range frame.Get("attachments").Array() {
		var att mmodel.SlackAttachment
		if err := json.Unmarshal([]byte(raw.Raw), &att); err != nil {
			evt.Attachments = append(evt.Attachments, model.Attachment{
				Fallback: raw.Get("fallback").String(),
				Text:     raw.Get("text").String(),
			})
			continue
		}
		evt.Attachments = append(evt.Attachments, model.Attachment{
			Fallback: att.Fallback,
			Text:     att.Text,
		})
	}
	return evt
}

func decodeUser(u gjson.Result) apiUser {
	return apiUser{
		ID:       u.Get("id").String(),
		Name:     u.Get("name").String(),
		RealName: u.Get("real_name").String(),
		Deleted:  u.Get("deleted").Bool(),
		IsBot:    u.Get("is_bot").Bool(),
		Profile: apiProfile{
			DisplayName: u.Get("profile.display_name").String(),
			RealName:    u.Get("profile.real_name").String(),
			BotID:       u.Get("profile.bot_id").String(),
		},
	}
}
