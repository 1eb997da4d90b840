// Copyright 2024-2026 Aiku AI

// Package slackfmt converts Slack message markup to plain terminal text.
package slackfmt

import (
	"regexp"
	"strings"
)

// Resolver names the ids that appear inside message markup.
type Resolver interface {
	ResolveUser(id string) string
	ResolveConversation(id string) string
}

var (
	tokenRe = regexp.MustCompile(`<([^<>]*)>`)

	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// Decode rewrites angle-bracket tokens and then unescapes the three HTML
// entities Slack escapes. Tokens are rewritten first so an escaped "&lt;@U1&gt;"
// in the text is never taken for a mention.
//
//	<@U1>, <@U1|name>      @ + resolved user name
//	<#C1|name>             #name
//	<#C1>                  resolved conversation name
//	<!here>, <!channel>    @here, @channel
//	<!subteam^S1|@team>    @team
//	<url|label>, <url>     url
func Decode(text string, r Resolver) string {
	if text == "" {
		return ""
	}
	if strings.IndexByte(text, '<') >= 0 {
		text = tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
			return decodeToken(tok[1:len(tok)-1], r)
		})
	}
	if strings.IndexByte(text, '&') >= 0 {
		text = entityReplacer.Replace(text)
	}
	return text
}

func decodeToken(body string, r Resolver) string {
	target, label, hasLabel := strings.Cut(body, "|")
	if target == "" {
		return label
	}
	switch target[0] {
	case '@':
		return "@" + r.ResolveUser(target[1:])
	case '#':
		if hasLabel && label != "" {
			return "#" + label
		}
		return r.ResolveConversation(target[1:])
	case '!':
		if hasLabel && label != "" {
			return label
		}
		cmd := target[1:]
		switch {
		case cmd == "here" || cmd == "channel" || cmd == "everyone":
			return "@" + cmd
		case strings.HasPrefix(cmd, "subteam^"):
			return "@" + strings.TrimPrefix(cmd, "subteam^")
		default:
			return cmd
		}
	default:
		return target
	}
}
