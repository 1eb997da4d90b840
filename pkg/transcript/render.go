// Copyright 2024-2026 Aiku AI

package transcript

import (
	"math"
	"strings"
	"time"

	"github.com/aiku/slacktail/pkg/directory"
	"github.com/aiku/slacktail/pkg/model"
	"github.com/aiku/slacktail/pkg/transcript/slackfmt"
)

// contentSeparator joins the text and attachment lines of one event.
const contentSeparator = "\n  "

// RendererOptions tweaks presentation. The zero value renders plain text in
// the local time zone.
type RendererOptions struct {
	Location *time.Location
	Styler   Styler
}

// Renderer formats one event as one transcript block:
//
//	HH:MM:SS <channel> sender: content
type Renderer struct {
	resolver *directory.Resolver
	loc      *time.Location
	styler   Styler
}

func NewRenderer(resolver *directory.Resolver, opts RendererOptions) *Renderer {
	r := &Renderer{resolver: resolver, loc: opts.Location, styler: opts.Styler}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.styler == nil {
		r.styler = PlainStyler{}
	}
	return r
}

// Render never mutates evt and never fails; unresolvable ids render as
// unknown placeholders.
func (r *Renderer) Render(evt model.Event) string {
	segments := [...]string{
		r.styler.Style(SegmentTimestamp, r.timestamp(evt.Timestamp)),
		r.styler.Style(SegmentChannel, "<"+r.resolver.ResolveConversation(evt.Channel)+">"),
		r.styler.Style(SegmentSender, r.sender(evt)+":"),
		r.content(evt),
	}
	return strings.Join(segments[:], " ")
}

func (r *Renderer) timestamp(ts float64) string {
	return time.Unix(int64(math.Floor(ts)), 0).In(r.loc).Format("15:04:05")
}

// sender applies the fallback chain: explicit username override, known
// user, bot, then placeholders.
func (r *Renderer) sender(evt model.Event) string {
	switch {
	case evt.Username != "":
		return evt.Username
	case evt.UserID != "" && r.resolver.HasUser(evt.UserID):
		return r.resolver.ResolveUser(evt.UserID)
	case evt.BotID != "":
		if name, ok := r.resolver.ResolveBot(evt.BotID); ok {
			return name
		}
		return directory.Unknown(evt.BotID)
	case evt.UserID != "":
		return directory.Unknown(evt.UserID)
	default:
		return directory.UnknownSender
	}
}

func (r *Renderer) content(evt model.Event) string {
	var lines []string
	if evt.Text != "" {
		lines = append(lines, slackfmt.Decode(evt.Text, r.resolver))
	}
	for _, att := range evt.Attachments {
		body := att.Fallback
		if body == "" {
			body = att.Text
		}
		if body != "" {
			lines = append(lines, slackfmt.Decode(body, r.resolver))
		}
	}
	return strings.Join(lines, contentSeparator)
}
